//go:build unit

package controllers_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/malaclypse/internal/domain/entities"
)

type flagged interface {
	AddFlags(cmd *cobra.Command)
}

// newCommand binds the controller to a command reading a minimal config
// file, with its output captured.
func newCommand(t *testing.T, c entities.Controller) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	config := filepath.Join(dir, "malaclypse.yaml")
	content := "local_repository: " + filepath.Join(dir, "repository") + "\n" +
		"repositories:\n" +
		"  - name: local\n" +
		"    kind: local-cache\n" +
		"    location: " + filepath.Join(dir, "repository") + "\n"
	require.NoError(t, os.WriteFile(config, []byte(content), 0o600))

	bind := c.GetBind()
	cmd := &cobra.Command{Use: bind.Use, Short: bind.Short, Long: bind.Long}
	cmd.Flags().StringP("config", "c", "", "Path to the configuration file")
	cmd.Flags().BoolP("verbose", "v", false, "Enable verbose output")
	if f, ok := c.(flagged); ok {
		f.AddFlags(cmd)
	}
	require.NoError(t, cmd.Flags().Set("config", config))

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	return cmd, out
}
