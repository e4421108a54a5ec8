package commands

import (
	"context"
	"fmt"
	"sync"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/malaclypse/internal/cache"
	"github.com/rios0rios0/malaclypse/internal/conflict"
	"github.com/rios0rios0/malaclypse/internal/domain/entities"
	"github.com/rios0rios0/malaclypse/internal/download"
	"github.com/rios0rios0/malaclypse/internal/graph"
	infraRepos "github.com/rios0rios0/malaclypse/internal/infrastructure/repositories"
	"github.com/rios0rios0/malaclypse/internal/infrastructure/repositories/descriptor"
	"github.com/rios0rios0/malaclypse/internal/infrastructure/repositories/state"
	"github.com/rios0rios0/malaclypse/internal/metrics"
	"github.com/rios0rios0/malaclypse/internal/staleness"
)

// maxRepickRounds bounds how many times a graph is rebuilt with re-picked
// versions pinned.
const maxRepickRounds = 3

// engine wires the resolution services of one configuration. It is kept
// for the lifetime of the process so that the resolution cache survives
// between requests.
type engine struct {
	settings *entities.Settings
	state    *state.FileStateRepository
	chain    *infraRepos.Chain
	cache    *cache.Manager
	builder  *graph.Builder
	download *download.Manager
	metrics  *metrics.Metrics
}

func newEngine(
	registry *infraRepos.ProbeRegistry,
	m *metrics.Metrics,
	settings *entities.Settings,
) (*engine, error) {
	store := state.NewFileStateRepository(settings.LocalRepository)
	detector := staleness.NewDetector(store, m)

	chain, err := registry.BuildChain(settings, detector)
	if err != nil {
		return nil, fmt.Errorf("failed to build repository chain: %w", err)
	}

	models := descriptor.NewDescriptorModelRepository(chain)
	resolutions := cache.NewManager(
		chain, models, m, settings.Resolution.CacheSize, settings.Resolution.CacheTTL,
	)

	logger.Debugf("[engine] Repository chain: %v", chain.Names())
	return &engine{
		settings: settings,
		state:    store,
		chain:    chain,
		cache:    resolutions,
		builder:  graph.NewBuilder(resolutions),
		download: download.NewManager(chain, resolutions, settings.LocalRepository, m),
		metrics:  m,
	}, nil
}

// resolve builds the graph, settles conflicts, and materializes the parts
// of the surviving nodes. Only cancellation is returned as an error.
func (it *engine) resolve(
	ctx context.Context,
	rc entities.ResolutionContext,
	project *entities.DeclaredArtifact,
	skipDownload bool,
) (*entities.Graph, error) {
	started := time.Now()
	defer func() {
		it.metrics.ResolutionDuration.Observe(time.Since(started).Seconds())
	}()

	pins := make(graph.Pins)
	var result *entities.Graph
	for round := 0; ; round++ {
		built, err := it.builder.Build(ctx, rc, project, pins)
		if err != nil {
			return built, err
		}

		outcome := conflict.Resolve(built, rc.Policy, round < maxRepickRounds)
		if len(outcome.Repicks) == 0 {
			result = built
			break
		}
		for id, version := range outcome.Repicks {
			logger.Infof("[engine] Pinning %s to %s and rebuilding", id, version)
			pins[id] = version
		}
	}

	if !skipDownload {
		if err := it.download.Materialize(ctx, rc, result); err != nil {
			return result, err
		}
	}

	it.metrics.UnresolvedNodes.Set(float64(len(result.Unresolved())))
	return result, nil
}

// Engines keeps one resolution engine per configuration, shared by every
// command of the process.
type Engines struct {
	registry *infraRepos.ProbeRegistry
	metrics  *metrics.Metrics

	mu   sync.Mutex
	byID map[*entities.Settings]*engine
}

// NewEngines creates an empty engine set.
func NewEngines(registry *infraRepos.ProbeRegistry, m *metrics.Metrics) *Engines {
	return &Engines{registry: registry, metrics: m, byID: make(map[*entities.Settings]*engine)}
}

func (it *Engines) get(settings *entities.Settings) (*engine, error) {
	it.mu.Lock()
	defer it.mu.Unlock()

	if e, ok := it.byID[settings]; ok {
		return e, nil
	}
	e, err := newEngine(it.registry, it.metrics, settings)
	if err != nil {
		return nil, err
	}
	it.byID[settings] = e
	return e, nil
}
