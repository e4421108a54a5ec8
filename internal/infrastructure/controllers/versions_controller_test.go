//go:build unit

package controllers_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/malaclypse/internal/domain/commands"
	"github.com/rios0rios0/malaclypse/internal/domain/entities"
	"github.com/rios0rios0/malaclypse/internal/infrastructure/controllers"
	"github.com/rios0rios0/malaclypse/test/domain/commanddoubles"
)

func TestVersionsController(t *testing.T) {
	t.Parallel()

	t.Run("should mark the selected version of each repository", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubVersionsCommand{Reports: []commands.RepositoryVersions{
			{
				Repository: "central",
				Versions:   []entities.Version{entities.ParseVersion("1.5"), entities.ParseVersion("1.8")},
				Selected:   entities.ParseVersion("1.8"),
			},
			{Repository: "mirror", Err: errors.New("connection refused")},
		}}
		controller := controllers.NewVersionsController(stub)
		cmd, out := newCommand(t, controller)
		require.NoError(t, cmd.Flags().Set("offline", "true"))

		// when
		err := controller.Execute(cmd, []string{"com.acme:core", "[1.0,2.0)"})

		// then
		require.NoError(t, err)
		assert.Equal(t, "com.acme:core", stub.LastOpts.Identity.String())
		assert.True(t, stub.LastOpts.Offline)
		assert.Contains(t, out.String(), "1.5 *1.8")
		assert.Contains(t, out.String(), "connection refused")
	})

	t.Run("should require an identity", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubVersionsCommand{}
		controller := controllers.NewVersionsController(stub)
		cmd, _ := newCommand(t, controller)

		// when
		err := controller.Execute(cmd, nil)

		// then
		require.Error(t, err)
		assert.Equal(t, 0, stub.ExecuteCallCount)
	})

	t.Run("should reject an invalid range", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubVersionsCommand{}
		controller := controllers.NewVersionsController(stub)
		cmd, _ := newCommand(t, controller)

		// when
		err := controller.Execute(cmd, []string{"com.acme:core", "[2.0,1.0"})

		// then
		require.Error(t, err)
		assert.Equal(t, 0, stub.ExecuteCallCount)
	})
}
