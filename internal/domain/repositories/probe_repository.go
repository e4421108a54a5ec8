package repositories

import (
	"context"
	"io"

	"github.com/opencontainers/go-digest"

	"github.com/rios0rios0/malaclypse/internal/domain/entities"
)

// ProbeRepository abstracts one repository of the chain. Every repository is
// an opaque lookup service: it lists the versions it knows for an identity
// and serves the parts of a coordinate.
type ProbeRepository interface {
	// Name returns the repository name from the configuration.
	Name() string

	// IsRemote reports whether the repository needs the network; remote
	// repositories are skipped in offline mode.
	IsRemote() bool

	// Probe lists the versions known for the identity. It returns an error
	// wrapping entities.ErrNotFound when the repository does not know it.
	Probe(ctx context.Context, id entities.ArtifactIdentity) (*entities.Listing, error)

	// Fetch opens a part of the coordinate. The caller closes the reader.
	Fetch(ctx context.Context, coordinate entities.Coordinate, spec entities.PartSpec) (io.ReadCloser, error)

	// Checksum returns the published digest of a part, or an empty digest
	// when the repository does not publish one.
	Checksum(ctx context.Context, coordinate entities.Coordinate, spec entities.PartSpec) (digest.Digest, error)
}

// ChangeTokenRepository is implemented by repositories that expose a cheap
// per-group change token used to skip re-fetching unchanged listings.
type ChangeTokenRepository interface {
	ChangeToken(ctx context.Context, group string) (string, error)
}
