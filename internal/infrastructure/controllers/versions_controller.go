package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/malaclypse/internal/domain/commands"
	"github.com/rios0rios0/malaclypse/internal/domain/entities"
)

// VersionsController handles the "versions" subcommand.
type VersionsController struct {
	command commands.Versions
}

// NewVersionsController creates a new VersionsController.
func NewVersionsController(command commands.Versions) *VersionsController {
	return &VersionsController{command: command}
}

// GetBind returns the Cobra command metadata for the versions controller.
func (it *VersionsController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "versions <group:artifact> [range]",
		Short: "Show the versions each repository lists for an artifact",
		Long: `Probe every repository of the chain for an artifact and print the
versions it lists, in chain order. With a range, the version each
repository would select is marked.`,
	}
}

// Execute prints the listing of every repository.
func (it *VersionsController) Execute(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return errors.New("missing <group:artifact> argument")
	}

	id, err := entities.ParseIdentity(args[0])
	if err != nil {
		return err
	}
	versionRange := entities.AnyVersion()
	if len(args) > 1 {
		if versionRange, err = entities.ParseRange(args[1]); err != nil {
			return err
		}
	}

	settings, err := loadSettings(cmd)
	if err != nil {
		logger.Errorf("%v", err)
		return err
	}
	offline, _ := cmd.Flags().GetBool("offline")

	reports, err := it.command.Execute(context.Background(), settings, commands.VersionsOptions{
		Identity: id,
		Range:    versionRange,
		Offline:  offline,
	})
	if err != nil {
		logger.Errorf("Listing failed: %v", err)
		return err
	}
	return renderVersions(cmd.OutOrStdout(), id, reports)
}

// AddFlags adds the versions-specific flags to the given Cobra command.
func (it *VersionsController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("offline", false, "Skip remote repositories")
}

func renderVersions(w io.Writer, id entities.ArtifactIdentity, reports []commands.RepositoryVersions) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", id)
	for _, report := range reports {
		if report.Err != nil {
			fmt.Fprintf(&sb, "  %-12s %v\n", report.Repository, report.Err)
			continue
		}
		versions := make([]string, len(report.Versions))
		for i, v := range report.Versions {
			versions[i] = v.String()
			if !report.Selected.IsZero() && v.Equal(report.Selected) {
				versions[i] = "*" + versions[i]
			}
		}
		fmt.Fprintf(&sb, "  %-12s %s\n", report.Repository, strings.Join(versions, " "))
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
