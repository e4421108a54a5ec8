package descriptor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rios0rios0/malaclypse/internal/domain/entities"
	"github.com/rios0rios0/malaclypse/internal/domain/repositories"
)

// FileProjectRepository reads project files from disk, in YAML or HCL
// depending on the extension.
type FileProjectRepository struct{}

// NewFileProjectRepository creates a new FileProjectRepository.
func NewFileProjectRepository() repositories.ProjectRepository {
	return &FileProjectRepository{}
}

// LoadProject reads the project file, or the artifact.yaml / artifact.hcl
// inside it when path is a directory.
func (it *FileProjectRepository) LoadProject(_ context.Context, path string) (*entities.DeclaredArtifact, error) {
	resolved, err := locateProjectFile(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file %q: %w", resolved, err)
	}

	if strings.EqualFold(filepath.Ext(resolved), ".hcl") {
		return DecodeHCL(data, resolved)
	}
	artifact, err := DecodeYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", resolved, err)
	}
	return artifact, nil
}

// ProjectFileNames are looked up, in order, inside a project directory.
var ProjectFileNames = []string{"artifact.yaml", "artifact.yml", "artifact.hcl"} //nolint:gochecknoglobals // fixed lookup order

func locateProjectFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("project file %q: %w", path, err)
	}
	if !info.IsDir() {
		return path, nil
	}
	for _, name := range ProjectFileNames {
		candidate := filepath.Join(path, name)
		if _, statErr := os.Stat(candidate); statErr == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no project file found in %s, expected one of %s",
		path, strings.Join(ProjectFileNames, ", "))
}
