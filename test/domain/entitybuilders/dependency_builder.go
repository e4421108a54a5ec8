//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"github.com/rios0rios0/malaclypse/internal/domain/entities"
	testkit "github.com/rios0rios0/testkit/pkg/test"
)

// DependencyBuilder helps create test dependencies with a fluent interface.
type DependencyBuilder struct {
	*testkit.BaseBuilder
	id         string
	versions   string
	scope      entities.Scope
	classifier string
	kind       string
	exclusions []string
	optional   bool
}

// NewDependencyBuilder creates a new dependency builder with sensible defaults.
func NewDependencyBuilder() *DependencyBuilder {
	return &DependencyBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		id:          "com.acme:core",
		versions:    "1.0",
		scope:       entities.ScopeCompile,
	}
}

// WithID sets the "group:artifact" identity.
func (b *DependencyBuilder) WithID(id string) *DependencyBuilder {
	b.id = id
	return b
}

// WithRange sets the version range in Maven syntax.
func (b *DependencyBuilder) WithRange(versions string) *DependencyBuilder {
	b.versions = versions
	return b
}

// WithScope sets the scope.
func (b *DependencyBuilder) WithScope(scope entities.Scope) *DependencyBuilder {
	b.scope = scope
	return b
}

// WithClassifier sets the binary classifier.
func (b *DependencyBuilder) WithClassifier(classifier string) *DependencyBuilder {
	b.classifier = classifier
	return b
}

// WithType sets the binary packaging.
func (b *DependencyBuilder) WithType(kind string) *DependencyBuilder {
	b.kind = kind
	return b
}

// WithExclusions adds "group:artifact" exclusion patterns.
func (b *DependencyBuilder) WithExclusions(exclusions ...string) *DependencyBuilder {
	b.exclusions = append(b.exclusions, exclusions...)
	return b
}

// WithOptional marks the dependency as optional.
func (b *DependencyBuilder) WithOptional(optional bool) *DependencyBuilder {
	b.optional = optional
	return b
}

// Build creates the dependency (satisfies testkit.Builder interface).
func (b *DependencyBuilder) Build() interface{} {
	return b.BuildDependency()
}

// BuildDependency creates the dependency with a concrete return type.
func (b *DependencyBuilder) BuildDependency() entities.Dependency {
	id, err := entities.ParseIdentity(b.id)
	if err != nil {
		panic(err)
	}
	dep := entities.Dependency{
		Identity:   id,
		Range:      entities.MustParseRange(b.versions),
		Scope:      b.scope,
		Classifier: b.classifier,
		Type:       b.kind,
		Optional:   b.optional,
	}
	for _, raw := range b.exclusions {
		exclusion, exclErr := entities.ParseExclusion(raw)
		if exclErr != nil {
			panic(exclErr)
		}
		dep.Exclusions = append(dep.Exclusions, exclusion)
	}
	return dep
}

// Reset clears the builder state, allowing it to be reused.
func (b *DependencyBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.id = "com.acme:core"
	b.versions = "1.0"
	b.scope = entities.ScopeCompile
	b.classifier = ""
	b.kind = ""
	b.exclusions = nil
	b.optional = false
	return b
}

// Clone creates a deep copy of the DependencyBuilder.
func (b *DependencyBuilder) Clone() testkit.Builder {
	return &DependencyBuilder{
		BaseBuilder: b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		id:          b.id,
		versions:    b.versions,
		scope:       b.scope,
		classifier:  b.classifier,
		kind:        b.kind,
		exclusions:  append([]string(nil), b.exclusions...),
		optional:    b.optional,
	}
}
