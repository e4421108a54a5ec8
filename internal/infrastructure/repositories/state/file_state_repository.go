package state

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rios0rios0/malaclypse/internal/domain/entities"
	"github.com/rios0rios0/malaclypse/internal/domain/repositories"
)

const (
	stateDirName     = ".ravenhurst"
	watermarksDir    = "watermarks"
	listingsDir      = "listings"
	stateFileMode    = 0o644
	stateDirFileMode = 0o755
)

// listingDocument is the persisted form of a listing.
type listingDocument struct {
	Group      string    `yaml:"group"`
	Artifact   string    `yaml:"artifact"`
	Repository string    `yaml:"repository"`
	Versions   []string  `yaml:"versions"`
	Token      string    `yaml:"token,omitempty"`
	FetchedAt  time.Time `yaml:"fetched_at"`
}

// FileStateRepository keeps watermarks and listings as YAML files under
// "<local repository>/.ravenhurst". Writes go to a temp file that is then
// renamed, so readers never observe a half written file.
type FileStateRepository struct {
	root string
	mu   sync.Mutex
}

var _ repositories.StateRepository = (*FileStateRepository)(nil)

// NewFileStateRepository stores state under the local repository.
func NewFileStateRepository(localRepository string) *FileStateRepository {
	return &FileStateRepository{root: filepath.Join(localRepository, stateDirName)}
}

// LoadWatermark returns the recorded watermark of a repository group.
func (it *FileStateRepository) LoadWatermark(repository, group string) (entities.Watermark, bool, error) {
	var watermark entities.Watermark
	found, err := it.read(it.watermarkPath(repository, group), &watermark)
	return watermark, found, err
}

// SaveWatermark records a watermark.
func (it *FileStateRepository) SaveWatermark(watermark entities.Watermark) error {
	return it.write(it.watermarkPath(watermark.Repository, watermark.Group), &watermark)
}

// LoadListing returns the cached listing of an identity.
func (it *FileStateRepository) LoadListing(
	repository string, id entities.ArtifactIdentity,
) (*entities.Listing, bool, error) {
	var doc listingDocument
	found, err := it.read(it.listingPath(repository, id), &doc)
	if err != nil || !found {
		return nil, found, err
	}

	versions := make([]entities.Version, 0, len(doc.Versions))
	for _, raw := range doc.Versions {
		versions = append(versions, entities.ParseVersion(raw))
	}
	listing := entities.NewListing(id, doc.Repository, versions)
	listing.Token = doc.Token
	listing.FetchedAt = doc.FetchedAt
	return listing, true, nil
}

// SaveListing records a listing.
func (it *FileStateRepository) SaveListing(listing *entities.Listing) error {
	return it.write(it.listingPath(listing.Repository, listing.Identity), &listingDocument{
		Group:      listing.Identity.GroupID,
		Artifact:   listing.Identity.ArtifactID,
		Repository: listing.Repository,
		Versions:   listing.VersionStrings(),
		Token:      listing.Token,
		FetchedAt:  listing.FetchedAt,
	})
}

// Forget removes the state of one repository, or all of it.
func (it *FileStateRepository) Forget(repository string) error {
	it.mu.Lock()
	defer it.mu.Unlock()

	target := it.root
	if repository != "" {
		target = filepath.Join(it.root, repository)
	}
	if err := os.RemoveAll(target); err != nil {
		return fmt.Errorf("failed to forget state at %s: %w", target, err)
	}
	return nil
}

func (it *FileStateRepository) watermarkPath(repository, group string) string {
	return filepath.Join(it.root, repository, watermarksDir, group+".yaml")
}

func (it *FileStateRepository) listingPath(repository string, id entities.ArtifactIdentity) string {
	return filepath.Join(it.root, repository, listingsDir, id.GroupID, id.ArtifactID+".yaml")
}

func (it *FileStateRepository) read(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read state file %s: %w", path, err)
	}
	if unmarshalErr := yaml.Unmarshal(data, out); unmarshalErr != nil {
		return false, fmt.Errorf("failed to parse state file %s: %w", path, unmarshalErr)
	}
	return true, nil
}

func (it *FileStateRepository) write(path string, in any) error {
	data, err := yaml.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to render state file %s: %w", path, err)
	}

	it.mu.Lock()
	defer it.mu.Unlock()

	if mkErr := os.MkdirAll(filepath.Dir(path), stateDirFileMode); mkErr != nil {
		return fmt.Errorf("failed to create state directory: %w", mkErr)
	}
	// unique per writer, other processes may share the directory
	temp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create state file: %w", err)
	}
	tempPath := temp.Name()
	_, writeErr := temp.Write(data)
	closeErr := temp.Close()
	if writeErr == nil {
		writeErr = os.Chmod(tempPath, stateFileMode)
	}
	if writeErr != nil || closeErr != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to write state file: %w", errors.Join(writeErr, closeErr))
	}
	if renameErr := os.Rename(tempPath, path); renameErr != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to replace state file: %w", renameErr)
	}
	return nil
}
