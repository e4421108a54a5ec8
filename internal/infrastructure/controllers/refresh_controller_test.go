//go:build unit

package controllers_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/malaclypse/internal/infrastructure/controllers"
	"github.com/rios0rios0/malaclypse/test/domain/commanddoubles"
)

func TestRefreshController(t *testing.T) {
	t.Parallel()

	t.Run("should forget the named repository", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubRefreshCommand{}
		controller := controllers.NewRefreshController(stub)
		cmd, _ := newCommand(t, controller)

		// when
		err := controller.Execute(cmd, []string{"central"})

		// then
		require.NoError(t, err)
		assert.Equal(t, "central", stub.LastOpts.Repository)
	})

	t.Run("should return the command error", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubRefreshCommand{ExecuteErr: errors.New("unknown repository")}
		controller := controllers.NewRefreshController(stub)
		cmd, _ := newCommand(t, controller)

		// when
		err := controller.Execute(cmd, nil)

		// then
		require.Error(t, err)
		assert.Equal(t, 1, stub.ExecuteCallCount)
	})
}
