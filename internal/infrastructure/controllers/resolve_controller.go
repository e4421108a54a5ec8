package controllers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/malaclypse/internal/domain/commands"
	"github.com/rios0rios0/malaclypse/internal/domain/entities"
	"github.com/rios0rios0/malaclypse/internal/metrics"
)

const (
	outputText = "text"
	outputYAML = "yaml"
)

// ResolveController handles the "resolve" subcommand.
type ResolveController struct {
	command commands.Resolve
	metrics *metrics.Metrics
}

// NewResolveController creates a new ResolveController.
func NewResolveController(command commands.Resolve, m *metrics.Metrics) *ResolveController {
	return &ResolveController{command: command, metrics: m}
}

// GetBind returns the Cobra command metadata for the resolve controller.
func (it *ResolveController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "resolve [project]",
		Short: "Resolve the transitive dependencies of a project",
		Long: `Resolve every transitive dependency of a project file (artifact.yaml,
artifact.yml or artifact.hcl) through the configured repository chain,
settle version conflicts, and download the parts of the resolved artifacts
into the local repository.

The project defaults to the artifact file in the current directory.
Unresolved dependencies are reported with the path that led to them; the
command fails when a direct dependency is unresolved, or when any required
dependency is unresolved in strict mode.`,
	}
}

// Execute runs a resolution and prints the classpath and diagnostics.
func (it *ResolveController) Execute(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	settings, err := loadSettings(cmd)
	if err != nil {
		logger.Errorf("%v", err)
		return err
	}

	opts, err := resolveOptions(cmd, args)
	if err != nil {
		logger.Errorf("%v", err)
		return err
	}
	output, _ := cmd.Flags().GetString("output")
	if output != outputText && output != outputYAML {
		return fmt.Errorf("unknown output format %q, use %s or %s", output, outputText, outputYAML)
	}

	result, runErr := it.command.Execute(ctx, settings, opts)
	if result != nil {
		if renderErr := renderResolveResult(cmd.OutOrStdout(), output, result); renderErr != nil {
			logger.Errorf("Failed to render the result: %v", renderErr)
		}
	}

	if metricsFile, _ := cmd.Flags().GetString("metrics-file"); metricsFile != "" {
		if writeErr := it.metrics.WriteToTextfile(metricsFile); writeErr != nil {
			logger.Errorf("%v", writeErr)
		}
	}

	if runErr != nil {
		logger.Errorf("Resolution failed: %v", runErr)
		return runErr
	}
	return nil
}

// AddFlags adds the resolve-specific flags to the given Cobra command.
func (it *ResolveController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("offline", false, "Skip remote repositories")
	cmd.Flags().Bool("strict", false, "Fail when any required dependency is unresolved")
	cmd.Flags().String("policy", "",
		fmt.Sprintf("Conflict policy (%s, %s)", entities.PolicyNearestWins, entities.PolicyHighestVersionWins))
	cmd.Flags().StringSlice("scope", nil, "Only collect these scopes (compile, runtime, test, provided)")
	cmd.Flags().StringSlice("exclude", nil, "Exclude group:artifact patterns from the whole graph")
	cmd.Flags().StringSlice("parts", nil, "Also download these optional parts (sources, javadoc)")
	cmd.Flags().Bool("no-download", false, "Resolve versions without downloading parts")
	cmd.Flags().Int("workers", 0, "Number of concurrent probes and downloads (default: from config)")
	cmd.Flags().StringP("output", "o", outputText, "Output format (text, yaml)")
	cmd.Flags().String("metrics-file", "", "Write Prometheus metrics to this file")
}

func resolveOptions(cmd *cobra.Command, args []string) (commands.ResolveOptions, error) {
	opts := commands.ResolveOptions{ProjectPath: "."}
	if len(args) > 0 {
		opts.ProjectPath = args[0]
	}

	opts.Offline, _ = cmd.Flags().GetBool("offline")
	opts.Strict, _ = cmd.Flags().GetBool("strict")
	opts.SkipDownload, _ = cmd.Flags().GetBool("no-download")
	opts.Workers, _ = cmd.Flags().GetInt("workers")

	if raw, _ := cmd.Flags().GetString("policy"); raw != "" {
		policy, err := entities.ParseConflictPolicy(raw)
		if err != nil {
			return opts, err
		}
		opts.Policy = policy
	}

	var errs []error
	scopes, _ := cmd.Flags().GetStringSlice("scope")
	for _, raw := range scopes {
		scope, err := entities.ParseScope(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		opts.Scopes = append(opts.Scopes, scope)
	}
	exclusions, _ := cmd.Flags().GetStringSlice("exclude")
	for _, raw := range exclusions {
		exclusion, err := entities.ParseExclusion(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		opts.Exclusions = append(opts.Exclusions, exclusion)
	}
	parts, _ := cmd.Flags().GetStringSlice("parts")
	for _, raw := range parts {
		kind, err := entities.ParsePartKind(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		opts.Parts = append(opts.Parts, kind)
	}
	return opts, errors.Join(errs...)
}
