//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/malaclypse/internal/domain/entities"
	"github.com/rios0rios0/malaclypse/internal/domain/repositories"
)

// StubProjectRepository implements repositories.ProjectRepository with a
// fixed project.
type StubProjectRepository struct {
	Project   *entities.DeclaredArtifact
	LoadErr   error
	LoadPaths []string
}

var _ repositories.ProjectRepository = (*StubProjectRepository)(nil)

func (s *StubProjectRepository) LoadProject(_ context.Context, path string) (*entities.DeclaredArtifact, error) {
	s.LoadPaths = append(s.LoadPaths, path)
	return s.Project, s.LoadErr
}
