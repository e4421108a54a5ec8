//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"github.com/rios0rios0/malaclypse/internal/domain/entities"
	testkit "github.com/rios0rios0/testkit/pkg/test"
)

// DeclaredArtifactBuilder helps create project models with a fluent interface.
type DeclaredArtifactBuilder struct {
	*testkit.BaseBuilder
	coordinate   string
	dependencies []entities.Dependency
}

// NewDeclaredArtifactBuilder creates a new builder for a project without
// dependencies.
func NewDeclaredArtifactBuilder() *DeclaredArtifactBuilder {
	return &DeclaredArtifactBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		coordinate:  "com.acme:app:1.0.0",
	}
}

// WithCoordinate sets the "group:artifact:version" coordinate.
func (b *DeclaredArtifactBuilder) WithCoordinate(coordinate string) *DeclaredArtifactBuilder {
	b.coordinate = coordinate
	return b
}

// WithDependency appends a dependency in declaration order.
func (b *DeclaredArtifactBuilder) WithDependency(dependency entities.Dependency) *DeclaredArtifactBuilder {
	b.dependencies = append(b.dependencies, dependency)
	return b
}

// Build creates the artifact (satisfies testkit.Builder interface).
func (b *DeclaredArtifactBuilder) Build() interface{} {
	return b.BuildDeclaredArtifact()
}

// BuildDeclaredArtifact creates the artifact with a concrete return type.
func (b *DeclaredArtifactBuilder) BuildDeclaredArtifact() *entities.DeclaredArtifact {
	coordinate, err := entities.ParseCoordinate(b.coordinate)
	if err != nil {
		panic(err)
	}
	return &entities.DeclaredArtifact{
		Coordinate:   coordinate,
		Dependencies: append([]entities.Dependency(nil), b.dependencies...),
	}
}

// Reset clears the builder state, allowing it to be reused.
func (b *DeclaredArtifactBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.coordinate = "com.acme:app:1.0.0"
	b.dependencies = nil
	return b
}

// Clone creates a deep copy of the DeclaredArtifactBuilder.
func (b *DeclaredArtifactBuilder) Clone() testkit.Builder {
	return &DeclaredArtifactBuilder{
		BaseBuilder:  b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		coordinate:   b.coordinate,
		dependencies: append([]entities.Dependency(nil), b.dependencies...),
	}
}
