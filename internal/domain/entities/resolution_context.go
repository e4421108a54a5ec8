package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ConflictPolicy chooses among competing versions of one identity.
type ConflictPolicy string

const (
	PolicyNearestWins        ConflictPolicy = "nearest-wins"
	PolicyHighestVersionWins ConflictPolicy = "highest-version-wins"
)

// ParseConflictPolicy validates a policy name.
func ParseConflictPolicy(raw string) (ConflictPolicy, error) {
	switch ConflictPolicy(raw) {
	case PolicyNearestWins, PolicyHighestVersionWins:
		return ConflictPolicy(raw), nil
	default:
		return "", fmt.Errorf("unknown conflict policy %q", raw)
	}
}

// RetrySettings configures exponential backoff for part downloads.
type RetrySettings struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	Multiplier   float64       `yaml:"multiplier"`
}

// ResolutionContext carries the policy of one resolution request. It is
// passed explicitly through every layer.
type ResolutionContext struct {
	SessionID       string
	Policy          ConflictPolicy
	Offline         bool
	Strict          bool
	Scopes          []Scope // Wanted scopes, all when empty
	Exclusions      []Exclusion
	Parts           []PartKind // Optional parts to download besides binary and descriptor
	Workers         int
	QueueSize       int
	ProbeTimeout    time.Duration
	DownloadTimeout time.Duration
	Retry           RetrySettings
}

// NewResolutionContext starts from the configured defaults.
func NewResolutionContext(settings *Settings) ResolutionContext {
	r := settings.Resolution
	return ResolutionContext{
		SessionID:       uuid.NewString(),
		Policy:          r.Policy,
		Parts:           append([]PartKind(nil), r.Parts...),
		Workers:         r.Workers,
		QueueSize:       r.QueueSize,
		ProbeTimeout:    r.ProbeTimeout,
		DownloadTimeout: r.DownloadTimeout,
		Retry:           r.Retry,
	}
}

// WantsScope reports whether dependencies of the scope are collected.
func (it ResolutionContext) WantsScope(scope Scope) bool {
	if len(it.Scopes) == 0 {
		return true
	}
	for _, s := range it.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// PartSpecs lists the parts to materialize for a dependency.
func (it ResolutionContext) PartSpecs(dependency Dependency) []PartSpec {
	specs := []PartSpec{dependency.BinarySpec(), DescriptorSpec()}
	for _, kind := range it.Parts {
		if spec, ok := SpecFor(kind); ok && spec.Kind != PartDescriptor {
			specs = append(specs, spec)
		}
	}
	return specs
}
