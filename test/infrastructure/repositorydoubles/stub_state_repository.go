//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"sync"

	"github.com/rios0rios0/malaclypse/internal/domain/entities"
	"github.com/rios0rios0/malaclypse/internal/domain/repositories"
)

// StubStateRepository implements repositories.StateRepository in memory.
type StubStateRepository struct {
	SaveErr error

	mu         sync.Mutex
	watermarks map[string]entities.Watermark
	listings   map[string]*entities.Listing
	forgotten  []string
}

var _ repositories.StateRepository = (*StubStateRepository)(nil)

// NewStubStateRepository creates an empty in-memory state store.
func NewStubStateRepository() *StubStateRepository {
	return &StubStateRepository{
		watermarks: make(map[string]entities.Watermark),
		listings:   make(map[string]*entities.Listing),
	}
}

func (s *StubStateRepository) LoadWatermark(repository, group string) (entities.Watermark, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.watermarks[repository+"/"+group]
	return w, ok, nil
}

func (s *StubStateRepository) SaveWatermark(watermark entities.Watermark) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watermarks[watermark.Repository+"/"+watermark.Group] = watermark
	return nil
}

func (s *StubStateRepository) LoadListing(
	repository string, id entities.ArtifactIdentity,
) (*entities.Listing, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[repository+"/"+id.String()]
	return l, ok, nil
}

func (s *StubStateRepository) SaveListing(listing *entities.Listing) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listings[listing.Repository+"/"+listing.Identity.String()] = listing
	return nil
}

func (s *StubStateRepository) Forget(repository string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forgotten = append(s.forgotten, repository)
	if repository == "" {
		s.watermarks = make(map[string]entities.Watermark)
		s.listings = make(map[string]*entities.Listing)
		return nil
	}
	for key, w := range s.watermarks {
		if w.Repository == repository {
			delete(s.watermarks, key)
		}
	}
	for key, l := range s.listings {
		if l.Repository == repository {
			delete(s.listings, key)
		}
	}
	return nil
}

// Watermark returns the stored watermark of a repository group.
func (s *StubStateRepository) Watermark(repository, group string) (entities.Watermark, bool) {
	w, ok, _ := s.LoadWatermark(repository, group)
	return w, ok
}

// Forgotten returns the repositories passed to Forget, in call order.
func (s *StubStateRepository) Forgotten() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.forgotten...)
}
