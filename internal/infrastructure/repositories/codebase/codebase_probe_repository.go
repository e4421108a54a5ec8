package codebase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/opencontainers/go-digest"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/malaclypse/internal/domain/entities"
	"github.com/rios0rios0/malaclypse/internal/domain/repositories"
	"github.com/rios0rios0/malaclypse/internal/infrastructure/repositories/descriptor"
)

const (
	descriptorFileName = "artifact.yaml"
	outputDirName      = "target"
)

// workspaceProject is one artifact found in the workspace.
type workspaceProject struct {
	coordinate entities.Coordinate
	dir        string
	descriptor []byte
}

// CodebaseProbeRepository serves artifacts built from sibling projects of a
// workspace: every directory carrying an artifact.yaml is an artifact whose
// binaries live in its target/ directory. When the workspace is a git
// checkout the HEAD commit is the listing token, and the workspace is only
// rescanned when HEAD moves.
type CodebaseProbeRepository struct {
	name string
	root string

	mu       sync.Mutex
	token    string
	scanned  bool
	projects map[string][]workspaceProject // identity -> projects
}

// NewCodebaseProbeRepository creates a probe over the workspace directory.
func NewCodebaseProbeRepository(d entities.RepositoryDescriptor) (repositories.ProbeRepository, error) {
	info, err := os.Stat(d.Location)
	if err != nil {
		return nil, fmt.Errorf("workspace %q: %w", d.Location, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace %q is not a directory", d.Location)
	}
	return &CodebaseProbeRepository{name: d.Name, root: d.Location}, nil
}

func (it *CodebaseProbeRepository) Name() string { return it.name }

func (it *CodebaseProbeRepository) IsRemote() bool { return false }

// Probe lists the versions the workspace builds for the identity.
func (it *CodebaseProbeRepository) Probe(
	ctx context.Context, id entities.ArtifactIdentity,
) (*entities.Listing, error) {
	projects, token, err := it.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	found := projects[id.String()]
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: %s in workspace %s", entities.ErrNotFound, id, it.name)
	}
	versions := make([]entities.Version, 0, len(found))
	for _, p := range found {
		versions = append(versions, p.coordinate.Version)
	}
	listing := entities.NewListing(id, it.name, versions)
	listing.Token = token
	return listing, nil
}

// Fetch serves the descriptor from the project file and every other part
// from the project's target directory.
func (it *CodebaseProbeRepository) Fetch(
	ctx context.Context, coordinate entities.Coordinate, spec entities.PartSpec,
) (io.ReadCloser, error) {
	project, err := it.project(ctx, coordinate)
	if err != nil {
		return nil, err
	}
	if spec.Kind == entities.PartDescriptor {
		return io.NopCloser(bytes.NewReader(project.descriptor)), nil
	}

	path := filepath.Join(project.dir, outputDirName, spec.FileName(coordinate))
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s has not been built (%s)", entities.ErrNotFound, coordinate, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return file, nil
}

// Checksum is never published by a workspace.
func (it *CodebaseProbeRepository) Checksum(
	context.Context, entities.Coordinate, entities.PartSpec,
) (digest.Digest, error) {
	return "", nil
}

func (it *CodebaseProbeRepository) project(
	ctx context.Context, coordinate entities.Coordinate,
) (workspaceProject, error) {
	projects, _, err := it.snapshot(ctx)
	if err != nil {
		return workspaceProject{}, err
	}
	for _, p := range projects[coordinate.Identity.String()] {
		if p.coordinate.Version.Equal(coordinate.Version) {
			return p, nil
		}
	}
	return workspaceProject{}, fmt.Errorf("%w: %s in workspace %s", entities.ErrNotFound, coordinate, it.name)
}

// snapshot returns the scanned projects, rescanning when HEAD moved or
// when the workspace is not under git.
func (it *CodebaseProbeRepository) snapshot(ctx context.Context) (map[string][]workspaceProject, string, error) {
	it.mu.Lock()
	defer it.mu.Unlock()

	token := headToken(it.root)
	if it.scanned && token != "" && token == it.token {
		return it.projects, it.token, nil
	}

	projects, err := scanWorkspace(ctx, it.root)
	if err != nil {
		return nil, "", err
	}
	logger.Debugf("[codebase] %s: scanned %d artifact(s) at %q", it.name, len(projects), token)
	it.projects, it.token, it.scanned = projects, token, true
	return projects, token, nil
}

// headToken returns the HEAD commit hash of the git checkout that contains
// root, or an empty string.
func headToken(root string) string {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		return ""
	}
	return head.Hash().String()
}

func scanWorkspace(ctx context.Context, root string) (map[string][]workspaceProject, error) {
	projects := make(map[string][]workspaceProject)
	walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if entry.IsDir() {
			if name := entry.Name(); path != root && (name == ".git" || name == outputDirName) {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.Name() != descriptorFileName {
			return nil
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return fmt.Errorf("failed to read %s: %w", path, readErr)
		}
		artifact, decodeErr := descriptor.DecodeYAML(data)
		if decodeErr != nil {
			logger.Warnf("[codebase] Skipping %s: %v", path, decodeErr)
			return nil
		}

		key := artifact.Coordinate.Identity.String()
		projects[key] = append(projects[key], workspaceProject{
			coordinate: artifact.Coordinate,
			dir:        filepath.Dir(path),
			descriptor: data,
		})
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("failed to scan workspace %s: %w", root, walkErr)
	}
	return projects, nil
}
