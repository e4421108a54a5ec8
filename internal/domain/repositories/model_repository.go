package repositories

import (
	"context"

	"github.com/rios0rios0/malaclypse/internal/domain/entities"
)

// ModelRepository loads the declared model of a resolved artifact from the
// descriptor part of the repository that resolved it.
type ModelRepository interface {
	LoadModel(ctx context.Context, solution *entities.Solution) (*entities.DeclaredArtifact, error)
}

// ProjectRepository loads the declared model of the project being resolved.
type ProjectRepository interface {
	LoadProject(ctx context.Context, path string) (*entities.DeclaredArtifact, error)
}
