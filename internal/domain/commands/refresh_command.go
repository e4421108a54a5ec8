package commands

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/malaclypse/internal/domain/entities"
)

// Refresh is the interface for the refresh command.
type Refresh interface {
	Execute(ctx context.Context, settings *entities.Settings, opts RefreshOptions) error
}

// RefreshOptions selects what to forget.
type RefreshOptions struct {
	Repository string // Empty forgets every repository
}

// RefreshCommand drops the staleness watermarks and cached listings so the
// next resolution re-checks the remote repositories.
type RefreshCommand struct {
	engines *Engines
}

// NewRefreshCommand creates a new RefreshCommand.
func NewRefreshCommand(engines *Engines) *RefreshCommand {
	return &RefreshCommand{engines: engines}
}

// Execute forgets the persisted state and purges the in-memory cache.
func (it *RefreshCommand) Execute(_ context.Context, settings *entities.Settings, opts RefreshOptions) error {
	if opts.Repository != "" {
		if _, ok := settings.Descriptor(opts.Repository); !ok {
			return fmt.Errorf("unknown repository %q", opts.Repository)
		}
	}

	eng, err := it.engines.get(settings)
	if err != nil {
		return err
	}
	if forgetErr := eng.state.Forget(opts.Repository); forgetErr != nil {
		return fmt.Errorf("failed to forget watermarks: %w", forgetErr)
	}
	eng.cache.Purge()

	if opts.Repository == "" {
		logger.Info("Forgot the watermarks of every repository")
	} else {
		logger.Infof("Forgot the watermarks of %q", opts.Repository)
	}
	return nil
}
