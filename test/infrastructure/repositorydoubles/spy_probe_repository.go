//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/opencontainers/go-digest"

	"github.com/rios0rios0/malaclypse/internal/domain/entities"
	"github.com/rios0rios0/malaclypse/internal/domain/repositories"
	"github.com/rios0rios0/malaclypse/internal/infrastructure/repositories/descriptor"
)

// SpyProbeRepository implements repositories.ProbeRepository as a
// configurable, concurrency-safe spy. Listings and parts are registered per
// identity and coordinate; every call is recorded.
type SpyProbeRepository struct {
	// --- identity ---
	RepositoryName string
	Remote         bool

	// --- Probe ---
	Versions   map[string][]string // "group:artifact" -> versions
	ProbeErr   error
	ProbeDelay time.Duration

	// --- Fetch / Checksum ---
	Parts         map[string][]byte // relative part path -> content
	Checksums     map[string]digest.Digest
	FetchErr      error
	FetchFailures int // Fetch calls failing with FetchErr before succeeding
	FetchDelay    time.Duration

	mu         sync.Mutex
	probeCalls []entities.ArtifactIdentity
	fetchCalls []string
}

var _ repositories.ProbeRepository = (*SpyProbeRepository)(nil)

// NewSpyProbeRepository creates an empty spy.
func NewSpyProbeRepository(name string, remote bool) *SpyProbeRepository {
	return &SpyProbeRepository{
		RepositoryName: name,
		Remote:         remote,
		Versions:       make(map[string][]string),
		Parts:          make(map[string][]byte),
		Checksums:      make(map[string]digest.Digest),
	}
}

// WithArtifact lists the version and serves its descriptor and a binary
// part. The descriptor declares the given dependencies.
func (s *SpyProbeRepository) WithArtifact(coordinate string, dependencies ...entities.Dependency) *SpyProbeRepository {
	c, err := entities.ParseCoordinate(coordinate)
	if err != nil {
		panic(err)
	}
	s.Versions[c.Identity.String()] = append(s.Versions[c.Identity.String()], c.Version.String())
	model, err := descriptor.EncodeYAML(&entities.DeclaredArtifact{Coordinate: c, Dependencies: dependencies})
	if err != nil {
		panic(err)
	}
	s.Parts[entities.RelativePartPath(c, entities.DescriptorSpec())] = model
	s.Parts[entities.RelativePartPath(c, entities.Dependency{}.BinarySpec())] = []byte("binary of " + coordinate)
	return s
}

// WithoutPart stops serving one part of the coordinate.
func (s *SpyProbeRepository) WithoutPart(coordinate string, spec entities.PartSpec) *SpyProbeRepository {
	c, err := entities.ParseCoordinate(coordinate)
	if err != nil {
		panic(err)
	}
	delete(s.Parts, entities.RelativePartPath(c, spec))
	return s
}

func (s *SpyProbeRepository) Name() string { return s.RepositoryName }

func (s *SpyProbeRepository) IsRemote() bool { return s.Remote }

func (s *SpyProbeRepository) Probe(ctx context.Context, id entities.ArtifactIdentity) (*entities.Listing, error) {
	s.mu.Lock()
	s.probeCalls = append(s.probeCalls, id)
	s.mu.Unlock()

	if s.ProbeDelay > 0 {
		select {
		case <-time.After(s.ProbeDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.ProbeErr != nil {
		return nil, s.ProbeErr
	}

	raw, ok := s.Versions[id.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", entities.ErrNotFound, id, s.RepositoryName)
	}
	versions := make([]entities.Version, len(raw))
	for i, v := range raw {
		versions[i] = entities.ParseVersion(v)
	}
	return entities.NewListing(id, s.RepositoryName, versions), nil
}

func (s *SpyProbeRepository) Fetch(
	ctx context.Context, coordinate entities.Coordinate, spec entities.PartSpec,
) (io.ReadCloser, error) {
	path := entities.RelativePartPath(coordinate, spec)

	s.mu.Lock()
	s.fetchCalls = append(s.fetchCalls, path)
	failing := s.FetchErr != nil && (s.FetchFailures < 0 || len(s.fetchCalls) <= s.FetchFailures)
	s.mu.Unlock()

	if s.FetchDelay > 0 {
		select {
		case <-time.After(s.FetchDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if failing {
		return nil, s.FetchErr
	}
	content, ok := s.Parts[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", entities.ErrNotFound, path, s.RepositoryName)
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (s *SpyProbeRepository) Checksum(
	_ context.Context, coordinate entities.Coordinate, spec entities.PartSpec,
) (digest.Digest, error) {
	return s.Checksums[entities.RelativePartPath(coordinate, spec)], nil
}

// ProbeCount returns how many times Probe was called.
func (s *SpyProbeRepository) ProbeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.probeCalls)
}

// ProbedIdentities returns the identities probed, in call order.
func (s *SpyProbeRepository) ProbedIdentities() []entities.ArtifactIdentity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entities.ArtifactIdentity(nil), s.probeCalls...)
}

// FetchCount returns how many times Fetch was called.
func (s *SpyProbeRepository) FetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fetchCalls)
}

// SpyTokenProbeRepository is a remote spy that also publishes change tokens.
type SpyTokenProbeRepository struct {
	*SpyProbeRepository

	Tokens   map[string]string // group -> token
	TokenErr error

	tokenMu    sync.Mutex
	tokenCalls int
}

var _ repositories.ChangeTokenRepository = (*SpyTokenProbeRepository)(nil)

// NewSpyTokenProbeRepository creates a remote spy with change tokens.
func NewSpyTokenProbeRepository(name string) *SpyTokenProbeRepository {
	return &SpyTokenProbeRepository{
		SpyProbeRepository: NewSpyProbeRepository(name, true),
		Tokens:             make(map[string]string),
	}
}

func (s *SpyTokenProbeRepository) ChangeToken(_ context.Context, group string) (string, error) {
	s.tokenMu.Lock()
	s.tokenCalls++
	s.tokenMu.Unlock()

	if s.TokenErr != nil {
		return "", s.TokenErr
	}
	return s.Tokens[group], nil
}

// TokenCount returns how many times ChangeToken was called.
func (s *SpyTokenProbeRepository) TokenCount() int {
	s.tokenMu.Lock()
	defer s.tokenMu.Unlock()
	return s.tokenCalls
}
