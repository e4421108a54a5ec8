// Package cache holds resolved solutions across requests and guarantees at
// most one in-flight resolution per (identity, range) in the process.
package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/rios0rios0/malaclypse/internal/domain/entities"
	"github.com/rios0rios0/malaclypse/internal/domain/repositories"
	"github.com/rios0rios0/malaclypse/internal/metrics"
)

const (
	resultHit    = "hit"
	resultMiss   = "miss"
	resultShared = "shared"
)

// Resolver turns an identity and a range into a solution by walking the
// repository chain.
type Resolver interface {
	Resolve(
		ctx context.Context,
		rc entities.ResolutionContext,
		id entities.ArtifactIdentity,
		versionRange entities.VersionRange,
	) (*entities.Solution, *entities.Listing, error)
}

// Resolution is a cached solution plus the listing it was picked from.
type Resolution struct {
	Solution *entities.Solution
	Listing  *entities.Listing
}

// entry is what the range caches store: the interned coordinate key, so
// that a materialized solution replaces the bare one for every range.
type entry struct {
	coordinate string
	listing    *entities.Listing
}

// Manager is the resolution cache. Pinned ranges never expire; open ranges
// expire after the configured TTL. Failures are never cached.
type Manager struct {
	resolver Resolver
	models   repositories.ModelRepository
	metrics  *metrics.Metrics

	group      singleflight.Group
	modelGroup singleflight.Group

	mu        sync.RWMutex
	pinned    map[string]entry
	ranged    *expirable.LRU[string, entry]
	solutions map[string]*entities.Solution
	declared  map[string]*entities.DeclaredArtifact

	generation atomic.Uint64
}

// NewManager creates a cache in front of the resolver and model repository.
func NewManager(
	resolver Resolver,
	models repositories.ModelRepository,
	m *metrics.Metrics,
	size int,
	ttl time.Duration,
) *Manager {
	return &Manager{
		resolver:  resolver,
		models:    models,
		metrics:   m,
		pinned:    make(map[string]entry),
		ranged:    expirable.NewLRU[string, entry](size, nil, ttl),
		solutions: make(map[string]*entities.Solution),
		declared:  make(map[string]*entities.DeclaredArtifact),
	}
}

// Key is the single-flight and cache key of a request.
func Key(id entities.ArtifactIdentity, versionRange entities.VersionRange) string {
	return id.String() + "@" + versionRange.String()
}

// Resolve returns the cached resolution of the request or resolves it.
// Concurrent callers with the same key share one resolver call, which runs
// detached from any single caller: a caller that gives up gets a
// cancellation error while the others still receive the result. Solutions
// are interned per coordinate, so any request resolving to the same
// coordinate gets the same pointer.
func (it *Manager) Resolve(
	ctx context.Context,
	rc entities.ResolutionContext,
	id entities.ArtifactIdentity,
	versionRange entities.VersionRange,
) (*Resolution, error) {
	key := Key(id, versionRange)
	if cached, ok := it.lookup(key); ok {
		it.count(resultHit)
		return cached, nil
	}

	it.count(resultMiss)
	detached := context.WithoutCancel(ctx)
	v, joined, err := await(ctx, it.group.DoChan(key, func() (any, error) {
		// another caller may have populated it while we were waiting
		if cached, ok := it.lookup(key); ok {
			return cached, nil
		}

		solution, listing, resolveErr := it.resolver.Resolve(detached, rc, id, versionRange)
		if resolveErr != nil {
			return nil, resolveErr
		}
		return it.store(key, versionRange, solution, listing), nil
	}))
	if err != nil {
		return nil, err
	}
	if joined {
		it.count(resultShared)
	}
	return v.(*Resolution), nil //nolint:forcetypeassert // only *Resolution is ever returned
}

// Model returns the declared model of a solution, loading it once per
// coordinate.
func (it *Manager) Model(ctx context.Context, solution *entities.Solution) (*entities.DeclaredArtifact, error) {
	key := solution.Coordinate.Key()

	it.mu.RLock()
	model, ok := it.declared[key]
	it.mu.RUnlock()
	if ok {
		return model, nil
	}

	detached := context.WithoutCancel(ctx)
	v, _, err := await(ctx, it.modelGroup.DoChan(key, func() (any, error) {
		it.mu.RLock()
		cached, found := it.declared[key]
		it.mu.RUnlock()
		if found {
			return cached, nil
		}

		loaded, loadErr := it.models.LoadModel(detached, solution)
		if loadErr != nil {
			return nil, loadErr
		}
		it.mu.Lock()
		it.declared[key] = loaded
		it.mu.Unlock()
		return loaded, nil
	}))
	if err != nil {
		return nil, err
	}
	return v.(*entities.DeclaredArtifact), nil //nolint:forcetypeassert // only models are ever returned
}

// NextGeneration hands out a fresh generation number.
func (it *Manager) NextGeneration() uint64 {
	return it.generation.Add(1)
}

// Publish replaces the interned solution of a coordinate with a newer
// generation, typically one whose parts were materialized. Older
// generations are ignored.
func (it *Manager) Publish(solution *entities.Solution) *entities.Solution {
	key := solution.Coordinate.Key()

	it.mu.Lock()
	defer it.mu.Unlock()

	current, ok := it.solutions[key]
	if ok && current.Generation >= solution.Generation {
		return current
	}
	it.solutions[key] = solution
	return solution
}

// Solution returns the interned solution of a coordinate.
func (it *Manager) Solution(coordinate entities.Coordinate) (*entities.Solution, bool) {
	it.mu.RLock()
	defer it.mu.RUnlock()
	solution, ok := it.solutions[coordinate.Key()]
	return solution, ok
}

// Purge forgets every cached resolution and model.
func (it *Manager) Purge() {
	it.mu.Lock()
	defer it.mu.Unlock()

	it.pinned = make(map[string]entry)
	it.ranged.Purge()
	it.solutions = make(map[string]*entities.Solution)
	it.declared = make(map[string]*entities.DeclaredArtifact)
	logger.Debug("[cache] Purged")
}

// await waits for a single-flight result or for the caller to give up,
// whichever comes first. The flight itself keeps running for the others.
func await(ctx context.Context, results <-chan singleflight.Result) (any, bool, error) {
	select {
	case <-ctx.Done():
		return nil, false, fmt.Errorf("%w: %w", entities.ErrCancelled, ctx.Err())
	case result := <-results:
		return result.Val, result.Shared, result.Err
	}
}

func (it *Manager) lookup(key string) (*Resolution, bool) {
	it.mu.RLock()
	defer it.mu.RUnlock()

	e, ok := it.pinned[key]
	if !ok {
		e, ok = it.ranged.Get(key)
	}
	if !ok {
		return nil, false
	}
	solution, ok := it.solutions[e.coordinate]
	if !ok {
		return nil, false
	}
	return &Resolution{Solution: solution, Listing: e.listing}, true
}

func (it *Manager) store(
	key string,
	versionRange entities.VersionRange,
	solution *entities.Solution,
	listing *entities.Listing,
) *Resolution {
	coordinate := solution.Coordinate.Key()

	it.mu.Lock()
	defer it.mu.Unlock()

	interned, ok := it.solutions[coordinate]
	if !ok {
		solution.Generation = it.generation.Add(1)
		it.solutions[coordinate] = solution
		interned = solution
	}

	e := entry{coordinate: coordinate, listing: listing}
	if versionRange.IsPinned() {
		it.pinned[key] = e
	} else {
		it.ranged.Add(key, e)
	}
	return &Resolution{Solution: interned, Listing: listing}
}

func (it *Manager) count(result string) {
	it.metrics.CacheRequestsTotal.WithLabelValues(result).Inc()
}
