package entities

import (
	"fmt"
	"time"
)

// RepositoryKind selects the probe implementation of a repository.
type RepositoryKind string

const (
	KindLocalCache   RepositoryKind = "local-cache"
	KindRemoteIndex  RepositoryKind = "remote-index"
	KindCodebaseScan RepositoryKind = "codebase-scan"
)

// StalenessPolicy tells when a remote listing must be re-validated.
type StalenessPolicy string

const (
	StalenessAlways   StalenessPolicy = "always"
	StalenessNever    StalenessPolicy = "never"
	StalenessInterval StalenessPolicy = "interval"
)

const DefaultStalenessInterval = 24 * time.Hour

// StalenessSettings configures the change-token checks of one repository.
type StalenessSettings struct {
	Policy   StalenessPolicy `yaml:"policy"`
	Interval time.Duration   `yaml:"interval"`
}

// RepositoryDescriptor is one entry of the repository chain.
type RepositoryDescriptor struct {
	Name        string            `yaml:"name"`
	Kind        RepositoryKind    `yaml:"kind"`
	Location    string            `yaml:"location"`    // Directory or base URL
	Credentials string            `yaml:"credentials"` // Inline, ${ENV_VAR}, or file path
	Offline     bool              `yaml:"offline"`
	Staleness   StalenessSettings `yaml:"staleness"`
	Groups      []string          `yaml:"groups"` // Glob patterns of served groups, all when empty
}

// IsRemote reports whether the repository needs the network.
func (it RepositoryDescriptor) IsRemote() bool {
	return it.Kind == KindRemoteIndex
}

func (it *RepositoryDescriptor) applyDefaults() {
	if it.Staleness.Policy == "" {
		it.Staleness.Policy = StalenessInterval
	}
	if it.Staleness.Policy == StalenessInterval && it.Staleness.Interval <= 0 {
		it.Staleness.Interval = DefaultStalenessInterval
	}
}

func (it RepositoryDescriptor) validate(index int) error {
	if it.Name == "" {
		return fmt.Errorf("repositories[%d].name is required", index)
	}
	switch it.Kind {
	case KindLocalCache, KindRemoteIndex, KindCodebaseScan:
	default:
		return fmt.Errorf("repositories[%d].kind %q is not one of %s, %s, %s",
			index, it.Kind, KindLocalCache, KindRemoteIndex, KindCodebaseScan)
	}
	if it.Location == "" {
		return fmt.Errorf("repositories[%d].location is required", index)
	}
	switch it.Staleness.Policy {
	case StalenessAlways, StalenessNever, StalenessInterval:
	default:
		return fmt.Errorf("repositories[%d].staleness.policy %q is invalid", index, it.Staleness.Policy)
	}
	return nil
}
