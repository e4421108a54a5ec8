package controllers

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rios0rios0/malaclypse/internal/domain/commands"
	"github.com/rios0rios0/malaclypse/internal/domain/entities"
)

// resolveReport is the YAML shape of a resolution.
type resolveReport struct {
	Session    string             `yaml:"session"`
	Project    string             `yaml:"project"`
	Classpath  []classpathReport  `yaml:"classpath"`
	Unresolved []diagnosticReport `yaml:"unresolved,omitempty"`
	Warnings   []diagnosticReport `yaml:"warnings,omitempty"`
}

type classpathReport struct {
	Coordinate string `yaml:"coordinate"`
	Scope      string `yaml:"scope"`
	Repository string `yaml:"repository"`
	Path       string `yaml:"path"`
}

type diagnosticReport struct {
	Identity     string   `yaml:"identity"`
	Range        string   `yaml:"range"`
	Reason       string   `yaml:"reason"`
	Message      string   `yaml:"message"`
	Repositories []string `yaml:"repositories,omitempty"`
	Path         []string `yaml:"path"`
}

func renderResolveResult(w io.Writer, format string, result *commands.ResolveResult) error {
	report := resolveReport{Session: result.SessionID, Project: result.Project.String()}
	for _, entry := range result.Classpath {
		report.Classpath = append(report.Classpath, classpathReport{
			Coordinate: entry.Coordinate.String(),
			Scope:      string(entry.Scope),
			Repository: entry.Repository,
			Path:       entry.Path,
		})
	}
	report.Unresolved = diagnosticReports(result.Diagnostics.Unresolved)
	report.Warnings = diagnosticReports(result.Diagnostics.Warnings)

	if format == outputYAML {
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2) //nolint:mnd // conventional YAML indentation
		if err := encoder.Encode(report); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return encoder.Close()
	}
	return renderText(w, report)
}

func renderText(w io.Writer, report resolveReport) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", report.Project)
	for _, entry := range report.Classpath {
		fmt.Fprintf(&sb, "  %-50s %-8s %-12s %s\n", entry.Coordinate, entry.Scope, entry.Repository, entry.Path)
	}
	writeDiagnostics(&sb, "Unresolved", report.Unresolved)
	writeDiagnostics(&sb, "Warnings", report.Warnings)

	_, err := io.WriteString(w, sb.String())
	return err
}

func writeDiagnostics(sb *strings.Builder, title string, items []diagnosticReport) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(sb, "  %s %s: %s\n", item.Identity, item.Range, item.Message)
		fmt.Fprintf(sb, "    via %s\n", strings.Join(item.Path, " -> "))
		if len(item.Repositories) > 0 {
			fmt.Fprintf(sb, "    tried %s\n", strings.Join(item.Repositories, ", "))
		}
	}
}

func diagnosticReports(items []entities.Diagnostic) []diagnosticReport {
	reports := make([]diagnosticReport, 0, len(items))
	for _, item := range items {
		report := diagnosticReport{
			Identity: item.Identity.String(),
			Range:    item.Range.String(),
			Path:     item.Path,
		}
		if item.Reason != nil {
			report.Reason = item.Reason.Kind.String()
			report.Message = item.Reason.Error()
			report.Repositories = item.Reason.Repositories
		}
		reports = append(reports, report)
	}
	return reports
}
