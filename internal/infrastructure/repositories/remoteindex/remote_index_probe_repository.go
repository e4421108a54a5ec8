package remoteindex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/opencontainers/go-digest"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/malaclypse/internal/domain/entities"
	"github.com/rios0rios0/malaclypse/internal/domain/repositories"
	"github.com/rios0rios0/malaclypse/internal/infrastructure/repositories/localcache"
)

const (
	indexFileName = "index.json"
	tokenFileName = ".ravenhurst"
	digestSuffix  = ".sha256"
	maxTokenBytes = 4096
)

// indexDocument is the body of "<group/path>/<artifactId>/index.json".
type indexDocument struct {
	Versions []string `json:"versions"`
}

// RemoteIndexProbeRepository talks to an HTTP repository that publishes a
// JSON version index per artifact and a change token per group.
type RemoteIndexProbeRepository struct {
	name        string
	baseURL     *url.URL
	credentials string
	client      *http.Client
}

var (
	_ repositories.ProbeRepository       = (*RemoteIndexProbeRepository)(nil)
	_ repositories.ChangeTokenRepository = (*RemoteIndexProbeRepository)(nil)
)

// NewRemoteIndexProbeRepository creates a probe for the repository at
// descriptor.Location. Timeouts come from the request context.
func NewRemoteIndexProbeRepository(descriptor entities.RepositoryDescriptor) (repositories.ProbeRepository, error) {
	base, err := url.Parse(strings.TrimSuffix(descriptor.Location, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid repository URL %q: %w", descriptor.Location, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("repository URL %q must use http or https", descriptor.Location)
	}
	return &RemoteIndexProbeRepository{
		name:        descriptor.Name,
		baseURL:     base,
		credentials: descriptor.Credentials,
		client:      &http.Client{},
	}, nil
}

func (it *RemoteIndexProbeRepository) Name() string { return it.name }

func (it *RemoteIndexProbeRepository) IsRemote() bool { return true }

// Probe downloads the version index of the identity.
func (it *RemoteIndexProbeRepository) Probe(
	ctx context.Context, id entities.ArtifactIdentity,
) (*entities.Listing, error) {
	body, err := it.get(ctx, path.Join(entities.RelativeArtifactDir(id), indexFileName))
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var doc indexDocument
	if decodeErr := json.NewDecoder(body).Decode(&doc); decodeErr != nil {
		return nil, fmt.Errorf("failed to parse index of %s from %s: %w", id, it.name, decodeErr)
	}

	versions := make([]entities.Version, 0, len(doc.Versions))
	for _, raw := range doc.Versions {
		versions = append(versions, entities.ParseVersion(raw))
	}
	logger.Debugf("[remote-index] %s: %d version(s) of %s", it.name, len(versions), id)
	return entities.NewListing(id, it.name, versions), nil
}

// ChangeToken returns the opaque token published for the group.
func (it *RemoteIndexProbeRepository) ChangeToken(ctx context.Context, group string) (string, error) {
	groupPath := entities.ArtifactIdentity{GroupID: group}.GroupPath()
	body, err := it.get(ctx, path.Join(groupPath, tokenFileName))
	if err != nil {
		return "", err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, maxTokenBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read change token of %s from %s: %w", group, it.name, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Fetch streams a part.
func (it *RemoteIndexProbeRepository) Fetch(
	ctx context.Context, coordinate entities.Coordinate, spec entities.PartSpec,
) (io.ReadCloser, error) {
	return it.get(ctx, entities.RelativePartPath(coordinate, spec))
}

// Checksum reads the ".sha256" file published next to the part; a missing
// file means the repository supplies no checksum.
func (it *RemoteIndexProbeRepository) Checksum(
	ctx context.Context, coordinate entities.Coordinate, spec entities.PartSpec,
) (digest.Digest, error) {
	body, err := it.get(ctx, entities.RelativePartPath(coordinate, spec)+digestSuffix)
	if errors.Is(err, entities.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, maxTokenBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read checksum from %s: %w", it.name, err)
	}
	return localcache.ParseDigest(string(data))
}

func (it *RemoteIndexProbeRepository) get(ctx context.Context, relative string) (io.ReadCloser, error) {
	target := it.baseURL.JoinPath(relative)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if it.credentials != "" {
		req.Header.Set("Authorization", "Bearer "+it.credentials)
	}

	resp, err := it.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", target.Redacted(), err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", entities.ErrNotFound, target.Redacted())
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, target.Redacted())
	}
	return resp.Body, nil
}
