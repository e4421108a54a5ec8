package repositories

import (
	"fmt"
	"sort"

	"github.com/rios0rios0/malaclypse/internal/domain/entities"
	domainRepos "github.com/rios0rios0/malaclypse/internal/domain/repositories"
	"github.com/rios0rios0/malaclypse/internal/metrics"
	"github.com/rios0rios0/malaclypse/internal/staleness"
)

// ProbeFactory is a constructor function that creates a ProbeRepository from its configuration.
type ProbeFactory func(descriptor entities.RepositoryDescriptor) (domainRepos.ProbeRepository, error)

// ProbeRegistry manages the probe implementations by repository kind.
type ProbeRegistry struct {
	factories map[entities.RepositoryKind]ProbeFactory
	metrics   *metrics.Metrics
}

// NewProbeRegistry creates an empty probe registry.
func NewProbeRegistry(m *metrics.Metrics) *ProbeRegistry {
	return &ProbeRegistry{
		factories: make(map[entities.RepositoryKind]ProbeFactory),
		metrics:   m,
	}
}

// Register adds a probe factory under the given kind (e.g. "remote-index").
func (r *ProbeRegistry) Register(kind entities.RepositoryKind, factory ProbeFactory) {
	r.factories[kind] = factory
}

// Get returns a configured probe for the descriptor.
func (r *ProbeRegistry) Get(descriptor entities.RepositoryDescriptor) (domainRepos.ProbeRepository, error) {
	factory, ok := r.factories[descriptor.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown repository kind: %q", descriptor.Kind)
	}
	probe, err := factory(descriptor)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize repository %q: %w", descriptor.Name, err)
	}
	return probe, nil
}

// Kinds returns the registered repository kinds.
func (r *ProbeRegistry) Kinds() []string {
	kinds := make([]string, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)
	return kinds
}

// BuildChain instantiates every configured repository in order. Remote
// repositories are put behind the staleness detector.
func (r *ProbeRegistry) BuildChain(settings *entities.Settings, detector *staleness.Detector) (*Chain, error) {
	chain := NewChain(r.metrics)
	for _, descriptor := range settings.Repositories {
		probe, err := r.Get(descriptor)
		if err != nil {
			return nil, err
		}
		if probe.IsRemote() && detector != nil {
			probe = detector.Wrap(probe, descriptor.Staleness)
		}
		if appendErr := chain.Append(probe,
			ServingGroups(descriptor.Groups...),
			Offline(descriptor.Offline),
		); appendErr != nil {
			return nil, appendErr
		}
	}
	return chain, nil
}
