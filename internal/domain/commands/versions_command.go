package commands

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/malaclypse/internal/domain/entities"
)

// Versions is the interface for the versions command.
type Versions interface {
	Execute(ctx context.Context, settings *entities.Settings, opts VersionsOptions) ([]RepositoryVersions, error)
}

// VersionsOptions selects the identity to list.
type VersionsOptions struct {
	Identity entities.ArtifactIdentity
	Range    entities.VersionRange
	Offline  bool
}

// RepositoryVersions is what one repository of the chain reports.
type RepositoryVersions struct {
	Repository string
	Versions   []entities.Version
	Token      string
	Selected   entities.Version // Highest version inside the range, zero when none
	Err        error
}

// VersionsCommand shows the listing every repository of the chain holds
// for an identity.
type VersionsCommand struct {
	engines *Engines
}

// NewVersionsCommand creates a new VersionsCommand.
func NewVersionsCommand(engines *Engines) *VersionsCommand {
	return &VersionsCommand{engines: engines}
}

// Execute probes every reachable repository, in chain order.
func (it *VersionsCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	opts VersionsOptions,
) ([]RepositoryVersions, error) {
	eng, err := it.engines.get(settings)
	if err != nil {
		return nil, err
	}

	rc := entities.NewResolutionContext(settings)
	rc.Offline = opts.Offline

	listings, failures := eng.chain.Versions(ctx, rc, opts.Identity)
	byRepository := make(map[string]*entities.Listing, len(listings))
	for _, listing := range listings {
		byRepository[listing.Repository] = listing
	}

	var out []RepositoryVersions
	for _, name := range eng.chain.Names() {
		if failure, failed := failures[name]; failed {
			if !errors.Is(failure, entities.ErrNotFound) {
				logger.Warnf("[versions] %s: %v", name, failure)
			}
			out = append(out, RepositoryVersions{Repository: name, Err: failure})
			continue
		}
		listing, ok := byRepository[name]
		if !ok {
			continue
		}
		entry := RepositoryVersions{Repository: name, Versions: listing.Versions, Token: listing.Token}
		if selected, found := listing.HighestSatisfying(opts.Range); found {
			entry.Selected = selected
		}
		out = append(out, entry)
	}
	return out, ctx.Err()
}
