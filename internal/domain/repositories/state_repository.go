package repositories

import (
	"github.com/rios0rios0/malaclypse/internal/domain/entities"
)

// StateRepository persists staleness watermarks and the listings they
// vouch for between sessions.
type StateRepository interface {
	LoadWatermark(repository, group string) (entities.Watermark, bool, error)
	SaveWatermark(watermark entities.Watermark) error
	LoadListing(repository string, id entities.ArtifactIdentity) (*entities.Listing, bool, error)
	SaveListing(listing *entities.Listing) error
	// Forget drops everything recorded for the repository, or for every
	// repository when the name is empty.
	Forget(repository string) error
}
