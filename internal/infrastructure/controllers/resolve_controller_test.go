//go:build unit

package controllers_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/rios0rios0/malaclypse/internal/domain/commands"
	"github.com/rios0rios0/malaclypse/internal/domain/entities"
	"github.com/rios0rios0/malaclypse/internal/infrastructure/controllers"
	"github.com/rios0rios0/malaclypse/internal/metrics"
	"github.com/rios0rios0/malaclypse/test/domain/commanddoubles"
)

func sampleResult(t *testing.T) *commands.ResolveResult {
	t.Helper()
	project, err := entities.ParseCoordinate("com.acme:app:1.0.0")
	require.NoError(t, err)
	core, err := entities.ParseCoordinate("com.acme:core:1.5")
	require.NoError(t, err)

	reason := entities.NewReason(entities.ReasonNoMatchingVersion, "no version of com.acme:gone in [2.0,3.0)")
	reason.Repositories = []string{"local", "central"}
	return &commands.ResolveResult{
		SessionID: "session-1",
		Project:   project,
		Classpath: []commands.ClasspathEntry{{
			Coordinate: core,
			Scope:      entities.ScopeCompile,
			Repository: "local",
			Path:       "/repo/com/acme/core/1.5/core-1.5.jar",
		}},
		Diagnostics: entities.Diagnostics{Unresolved: []entities.Diagnostic{{
			Identity: entities.ArtifactIdentity{GroupID: "com.acme", ArtifactID: "gone"},
			Range:    entities.MustParseRange("[2.0,3.0)"),
			Reason:   reason,
			Path:     []string{"com.acme:app:1.0.0", "com.acme:core:1.5", "com.acme:gone"},
		}}},
	}
}

func TestResolveController(t *testing.T) {
	t.Parallel()

	t.Run("should render the classpath and the unresolved paths as text", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubResolveCommand{Result: sampleResult(t)}
		controller := controllers.NewResolveController(stub, metrics.New())
		cmd, out := newCommand(t, controller)

		// when
		err := controller.Execute(cmd, []string{"services/app"})

		// then
		require.NoError(t, err)
		assert.Equal(t, 1, stub.ExecuteCallCount)
		assert.Equal(t, "services/app", stub.LastOpts.ProjectPath)
		text := out.String()
		assert.Contains(t, text, "com.acme:core:1.5")
		assert.Contains(t, text, "/repo/com/acme/core/1.5/core-1.5.jar")
		assert.Contains(t, text, "Unresolved:")
		assert.Contains(t, text, "via com.acme:app:1.0.0 -> com.acme:core:1.5 -> com.acme:gone")
		assert.Contains(t, text, "tried local, central")
	})

	t.Run("should render the result as YAML", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubResolveCommand{Result: sampleResult(t)}
		controller := controllers.NewResolveController(stub, metrics.New())
		cmd, out := newCommand(t, controller)
		require.NoError(t, cmd.Flags().Set("output", "yaml"))

		// when
		err := controller.Execute(cmd, nil)

		// then
		require.NoError(t, err)
		var report struct {
			Session   string `yaml:"session"`
			Classpath []struct {
				Coordinate string `yaml:"coordinate"`
				Repository string `yaml:"repository"`
			} `yaml:"classpath"`
			Unresolved []struct {
				Identity     string   `yaml:"identity"`
				Repositories []string `yaml:"repositories"`
			} `yaml:"unresolved"`
		}
		require.NoError(t, yaml.Unmarshal(out.Bytes(), &report))
		assert.Equal(t, "session-1", report.Session)
		require.Len(t, report.Classpath, 1)
		assert.Equal(t, "com.acme:core:1.5", report.Classpath[0].Coordinate)
		require.Len(t, report.Unresolved, 1)
		assert.Equal(t, "com.acme:gone", report.Unresolved[0].Identity)
		assert.Equal(t, []string{"local", "central"}, report.Unresolved[0].Repositories)
	})

	t.Run("should pass the flags on as resolve options", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubResolveCommand{Result: sampleResult(t)}
		controller := controllers.NewResolveController(stub, metrics.New())
		cmd, _ := newCommand(t, controller)
		for flag, value := range map[string]string{
			"offline":     "true",
			"strict":      "true",
			"no-download": "true",
			"workers":     "3",
			"policy":      "highest-version-wins",
			"scope":       "compile,runtime",
			"exclude":     "org.junit:*",
			"parts":       "sources",
		} {
			require.NoError(t, cmd.Flags().Set(flag, value))
		}

		// when
		err := controller.Execute(cmd, nil)

		// then
		require.NoError(t, err)
		opts := stub.LastOpts
		assert.Equal(t, ".", opts.ProjectPath)
		assert.True(t, opts.Offline)
		assert.True(t, opts.Strict)
		assert.True(t, opts.SkipDownload)
		assert.Equal(t, 3, opts.Workers)
		assert.Equal(t, entities.PolicyHighestVersionWins, opts.Policy)
		assert.Equal(t, []entities.Scope{entities.ScopeCompile, entities.ScopeRuntime}, opts.Scopes)
		require.Len(t, opts.Exclusions, 1)
		assert.Equal(t, []entities.PartKind{entities.PartSources}, opts.Parts)
		require.NotNil(t, stub.LastSettings)
		assert.Equal(t, "local", stub.LastSettings.Repositories[0].Name)
	})

	t.Run("should reject invalid options before resolving", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubResolveCommand{}
		controller := controllers.NewResolveController(stub, metrics.New())
		cmd, _ := newCommand(t, controller)
		require.NoError(t, cmd.Flags().Set("scope", "everything"))

		// when
		err := controller.Execute(cmd, nil)

		// then
		require.Error(t, err)
		assert.Equal(t, 0, stub.ExecuteCallCount)
	})

	t.Run("should reject an unknown output format", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubResolveCommand{}
		controller := controllers.NewResolveController(stub, metrics.New())
		cmd, _ := newCommand(t, controller)
		require.NoError(t, cmd.Flags().Set("output", "json"))

		// when
		err := controller.Execute(cmd, nil)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown output format "json"`)
		assert.Equal(t, 0, stub.ExecuteCallCount)
	})

	t.Run("should still report the diagnostics of a failed resolution", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubResolveCommand{
			Result:     sampleResult(t),
			ExecuteErr: entities.ErrRootUnresolved,
		}
		controller := controllers.NewResolveController(stub, metrics.New())
		cmd, out := newCommand(t, controller)

		// when
		err := controller.Execute(cmd, nil)

		// then
		require.ErrorIs(t, err, entities.ErrRootUnresolved)
		assert.Contains(t, out.String(), "Unresolved:")
	})

	t.Run("should write the metrics file when asked to", func(t *testing.T) {
		t.Parallel()

		// given
		m := metrics.New()
		m.UnresolvedNodes.Set(1)
		stub := &commanddoubles.StubResolveCommand{Result: sampleResult(t)}
		controller := controllers.NewResolveController(stub, m)
		cmd, _ := newCommand(t, controller)
		path := filepath.Join(t.TempDir(), "malaclypse.prom")
		require.NoError(t, cmd.Flags().Set("metrics-file", path))

		// when
		err := controller.Execute(cmd, nil)

		// then
		require.NoError(t, err)
		content, readErr := os.ReadFile(path)
		require.NoError(t, readErr)
		assert.Contains(t, string(content), "unresolved")
	})

	t.Run("should fail on a command error without a result", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubResolveCommand{ExecuteErr: errors.New("failed to load project")}
		controller := controllers.NewResolveController(stub, metrics.New())
		cmd, out := newCommand(t, controller)

		// when
		err := controller.Execute(cmd, nil)

		// then
		require.Error(t, err)
		assert.Empty(t, out.String())
	})
}
