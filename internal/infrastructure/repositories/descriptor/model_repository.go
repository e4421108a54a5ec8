package descriptor

import (
	"context"
	"fmt"
	"io"

	"github.com/rios0rios0/malaclypse/internal/domain/entities"
	"github.com/rios0rios0/malaclypse/internal/domain/repositories"
)

// PartSource fetches a part from a named repository of the chain.
type PartSource interface {
	FetchFrom(
		ctx context.Context, repository string, coordinate entities.Coordinate, spec entities.PartSpec,
	) (io.ReadCloser, error)
}

// DescriptorModelRepository loads declared models from the descriptor part
// served by the repository that resolved the artifact.
type DescriptorModelRepository struct {
	source PartSource
}

// NewDescriptorModelRepository creates a model repository over the chain.
func NewDescriptorModelRepository(source PartSource) repositories.ModelRepository {
	return &DescriptorModelRepository{source: source}
}

// LoadModel fetches and decodes the descriptor of the solution.
func (it *DescriptorModelRepository) LoadModel(
	ctx context.Context, solution *entities.Solution,
) (*entities.DeclaredArtifact, error) {
	reader, err := it.source.FetchFrom(ctx, solution.Repository, solution.Coordinate, entities.DescriptorSpec())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", entities.ErrModelUnavailable, solution.Coordinate, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", entities.ErrModelUnavailable, solution.Coordinate, err)
	}

	artifact, err := DecodeYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", entities.ErrModelUnavailable, solution.Coordinate, err)
	}
	return artifact, nil
}
