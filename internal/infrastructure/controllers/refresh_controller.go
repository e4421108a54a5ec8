package controllers

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/malaclypse/internal/domain/commands"
	"github.com/rios0rios0/malaclypse/internal/domain/entities"
)

// RefreshController handles the "refresh" subcommand.
type RefreshController struct {
	command commands.Refresh
}

// NewRefreshController creates a new RefreshController.
func NewRefreshController(command commands.Refresh) *RefreshController {
	return &RefreshController{command: command}
}

// GetBind returns the Cobra command metadata for the refresh controller.
func (it *RefreshController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "refresh [repository]",
		Short: "Forget the change tokens of remote repositories",
		Long: `Forget the recorded change tokens and cached listings, for one
repository or for all of them, so the next resolution fetches the remote
listings again.`,
	}
}

// Execute forgets the watermarks.
func (it *RefreshController) Execute(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		logger.Errorf("%v", err)
		return err
	}

	opts := commands.RefreshOptions{}
	if len(args) > 0 {
		opts.Repository = args[0]
	}
	if refreshErr := it.command.Execute(context.Background(), settings, opts); refreshErr != nil {
		logger.Errorf("Refresh failed: %v", refreshErr)
		return refreshErr
	}
	return nil
}
