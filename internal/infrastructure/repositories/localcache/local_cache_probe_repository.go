package localcache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/opencontainers/go-digest"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/malaclypse/internal/domain/entities"
	"github.com/rios0rios0/malaclypse/internal/domain/repositories"
)

const (
	lockSuffix    = ".lock"
	partialSuffix = ".part.tmp"
	digestSuffix  = ".sha256"
)

// LocalCacheProbeRepository serves artifacts from a directory that follows
// the repository layout. It is also where downloaded parts are written.
type LocalCacheProbeRepository struct {
	name string
	root string
}

// NewLocalCacheProbeRepository creates a probe over the given root.
func NewLocalCacheProbeRepository(descriptor entities.RepositoryDescriptor) (repositories.ProbeRepository, error) {
	if descriptor.Location == "" {
		return nil, errors.New("local cache location is required")
	}
	return &LocalCacheProbeRepository{name: descriptor.Name, root: descriptor.Location}, nil
}

func (it *LocalCacheProbeRepository) Name() string { return it.name }

func (it *LocalCacheProbeRepository) IsRemote() bool { return false }

// Root returns the directory of the cache.
func (it *LocalCacheProbeRepository) Root() string { return it.root }

// Probe lists the version directories that hold at least one complete part.
func (it *LocalCacheProbeRepository) Probe(
	ctx context.Context, id entities.ArtifactIdentity,
) (*entities.Listing, error) {
	dir := filepath.Join(it.root, filepath.FromSlash(entities.RelativeArtifactDir(id)))
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s in %s", entities.ErrNotFound, id, it.name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var versions []entities.Version
	for _, entry := range entries {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !entry.IsDir() {
			continue
		}
		if hasCompletePart(filepath.Join(dir, entry.Name()), id.ArtifactID) {
			versions = append(versions, entities.ParseVersion(entry.Name()))
		}
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("%w: %s in %s", entities.ErrNotFound, id, it.name)
	}

	logger.Debugf("[local-cache] %s: %d version(s) of %s", it.name, len(versions), id)
	return entities.NewListing(id, it.name, versions), nil
}

// Fetch opens a part file.
func (it *LocalCacheProbeRepository) Fetch(
	_ context.Context, coordinate entities.Coordinate, spec entities.PartSpec,
) (io.ReadCloser, error) {
	path := entities.LocalPartPath(it.root, coordinate, spec)
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", entities.ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return file, nil
}

// Checksum reads the digest recorded next to the part when it was stored.
func (it *LocalCacheProbeRepository) Checksum(
	_ context.Context, coordinate entities.Coordinate, spec entities.PartSpec,
) (digest.Digest, error) {
	return ReadDigestFile(entities.LocalPartPath(it.root, coordinate, spec) + digestSuffix)
}

// ReadDigestFile parses a ".sha256" side file; a missing file yields an empty digest.
func ReadDigestFile(path string) (digest.Digest, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseDigest(string(data))
}

// ParseDigest accepts "sha256:<hex>", a bare hex sum, or the
// "<hex>  <file>" output of sha256sum.
func ParseDigest(raw string) (digest.Digest, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return "", nil
	}
	value := fields[0]
	if !strings.Contains(value, ":") {
		value = digest.SHA256.String() + ":" + strings.ToLower(value)
	}
	parsed, err := digest.Parse(value)
	if err != nil {
		return "", fmt.Errorf("invalid checksum %q: %w", raw, err)
	}
	return parsed, nil
}

// WriteDigestFile records the digest of a stored part.
func WriteDigestFile(partPath string, d digest.Digest) error {
	if err := os.WriteFile(partPath+digestSuffix, []byte(d.String()+"\n"), 0o644); err != nil { //nolint:gosec,mnd // world readable cache
		return fmt.Errorf("failed to write checksum of %s: %w", partPath, err)
	}
	return nil
}

func hasCompletePart(dir, artifactID string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, artifactID+"-") {
			continue
		}
		if strings.HasSuffix(name, lockSuffix) ||
			strings.HasSuffix(name, partialSuffix) ||
			strings.HasSuffix(name, digestSuffix) {
			continue
		}
		return true
	}
	return false
}
