package repositories

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gobwas/glob"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/malaclypse/internal/domain/entities"
	domainRepos "github.com/rios0rios0/malaclypse/internal/domain/repositories"
	"github.com/rios0rios0/malaclypse/internal/metrics"
)

const (
	probeResultHit      = "hit"
	probeResultMiss     = "miss"
	probeResultNotFound = "not_found"
	probeResultError    = "error"
)

// chainEntry is a probe plus the group patterns it serves.
type chainEntry struct {
	probe   domainRepos.ProbeRepository
	offline bool
	groups  []glob.Glob
}

func (it chainEntry) serves(id entities.ArtifactIdentity) bool {
	if len(it.groups) == 0 {
		return true
	}
	for _, g := range it.groups {
		if g.Match(id.GroupID) {
			return true
		}
	}
	return false
}

// Chain is the ordered list of repositories consulted for every coordinate.
// It is immutable once built.
type Chain struct {
	entries []chainEntry
	byName  map[string]domainRepos.ProbeRepository
	metrics *metrics.Metrics
}

// ChainOption customizes an entry when it is appended.
type ChainOption func(*chainEntry) error

// ServingGroups restricts an entry to the groups matching the patterns.
func ServingGroups(patterns ...string) ChainOption {
	return func(entry *chainEntry) error {
		for _, pattern := range patterns {
			compiled, err := glob.Compile(pattern)
			if err != nil {
				return fmt.Errorf("invalid group pattern %q: %w", pattern, err)
			}
			entry.groups = append(entry.groups, compiled)
		}
		return nil
	}
}

// Offline marks an entry as unreachable regardless of the request.
func Offline(offline bool) ChainOption {
	return func(entry *chainEntry) error {
		entry.offline = offline
		return nil
	}
}

// NewChain creates an empty chain.
func NewChain(m *metrics.Metrics) *Chain {
	return &Chain{byName: make(map[string]domainRepos.ProbeRepository), metrics: m}
}

// Append adds a probe at the end of the chain.
func (it *Chain) Append(probe domainRepos.ProbeRepository, opts ...ChainOption) error {
	if _, dup := it.byName[probe.Name()]; dup {
		return fmt.Errorf("repository %q is already in the chain", probe.Name())
	}
	entry := chainEntry{probe: probe}
	for _, opt := range opts {
		if err := opt(&entry); err != nil {
			return fmt.Errorf("repository %q: %w", probe.Name(), err)
		}
	}
	it.entries = append(it.entries, entry)
	it.byName[probe.Name()] = probe
	return nil
}

// Names returns the repository names in chain order.
func (it *Chain) Names() []string {
	names := make([]string, len(it.entries))
	for i, e := range it.entries {
		names[i] = e.probe.Name()
	}
	return names
}

// Repository returns the probe with the given name.
func (it *Chain) Repository(name string) (domainRepos.ProbeRepository, bool) {
	probe, ok := it.byName[name]
	return probe, ok
}

// Resolve walks the chain and accepts the first listing holding a version
// inside the range. Failing probes are logged and skipped; only when every
// consulted probe fails is the outcome a probe failure. The returned error
// is always an *entities.Reason.
func (it *Chain) Resolve(
	ctx context.Context,
	rc entities.ResolutionContext,
	id entities.ArtifactIdentity,
	versionRange entities.VersionRange,
) (*entities.Solution, *entities.Listing, error) {
	var (
		tried     []string
		failures  int
		listed    int
		lastError error
	)

	for _, entry := range it.entries {
		name := entry.probe.Name()
		if !entry.serves(id) {
			continue
		}
		if entry.probe.IsRemote() && (rc.Offline || entry.offline) {
			logger.Debugf("[chain] Skipping %s for %s: offline", name, id)
			continue
		}
		if ctx.Err() != nil {
			return nil, nil, &entities.Reason{Kind: entities.ReasonCancelled, Repositories: tried, Cause: ctx.Err()}
		}

		tried = append(tried, name)
		listing, err := it.probe(ctx, rc, entry.probe, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, &entities.Reason{Kind: entities.ReasonCancelled, Repositories: tried, Cause: ctx.Err()}
			}
			if errors.Is(err, entities.ErrNotFound) {
				it.count(name, probeResultNotFound)
				logger.Debugf("[chain] %s does not know %s", name, id)
			} else {
				it.count(name, probeResultError)
				logger.Warnf("[chain] Probe of %s in %s failed, trying next repository: %v", id, name, err)
			}
			failures++
			lastError = err
			continue
		}
		if listing.IsEmpty() {
			it.count(name, probeResultNotFound)
			failures++
			continue
		}

		listed++
		version, ok := listing.HighestSatisfying(versionRange)
		if !ok {
			it.count(name, probeResultMiss)
			logger.Debugf("[chain] %s lists %s but nothing in %s", name, id, versionRange)
			continue
		}

		it.count(name, probeResultHit)
		solution := &entities.Solution{
			Coordinate: entities.Coordinate{Identity: id, Version: version},
			Repository: name,
		}
		return solution, listing, nil
	}

	switch {
	case len(tried) == 0:
		return nil, nil, entities.NewReason(entities.ReasonProbeFailure, "no repository available for %s", id)
	case listed > 0:
		reason := entities.NewReason(entities.ReasonNoMatchingVersion, "no version of %s in %s", id, versionRange)
		reason.Repositories = tried
		return nil, nil, reason
	default:
		reason := entities.NewReason(entities.ReasonProbeFailure, "%s not found in %d repositories", id, failures)
		reason.Repositories = tried
		reason.Cause = lastError
		return nil, nil, reason
	}
}

// Versions returns the listing of every reachable repository, in chain
// order. Probe errors are returned per repository.
func (it *Chain) Versions(
	ctx context.Context, rc entities.ResolutionContext, id entities.ArtifactIdentity,
) ([]*entities.Listing, map[string]error) {
	var listings []*entities.Listing
	failures := make(map[string]error)
	for _, entry := range it.entries {
		if !entry.serves(id) || (entry.probe.IsRemote() && (rc.Offline || entry.offline)) {
			continue
		}
		listing, err := it.probe(ctx, rc, entry.probe, id)
		if err != nil {
			failures[entry.probe.Name()] = err
			continue
		}
		listings = append(listings, listing)
	}
	return listings, failures
}

// FetchFrom opens a part from the named repository.
func (it *Chain) FetchFrom(
	ctx context.Context, repository string, coordinate entities.Coordinate, spec entities.PartSpec,
) (io.ReadCloser, error) {
	probe, ok := it.byName[repository]
	if !ok {
		return nil, fmt.Errorf("unknown repository %q", repository)
	}
	return probe.Fetch(ctx, coordinate, spec)
}

func (it *Chain) probe(
	ctx context.Context,
	rc entities.ResolutionContext,
	probe domainRepos.ProbeRepository,
	id entities.ArtifactIdentity,
) (*entities.Listing, error) {
	if rc.ProbeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rc.ProbeTimeout)
		defer cancel()
	}
	return probe.Probe(ctx, id)
}

func (it *Chain) count(repository, result string) {
	it.metrics.ProbesTotal.WithLabelValues(repository, result).Inc()
}
