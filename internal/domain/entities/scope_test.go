//go:build unit

package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/malaclypse/internal/domain/entities"
)

func TestPropagateScope(t *testing.T) {
	t.Parallel()

	tests := []struct {
		parent, child entities.Scope
		expected      entities.Scope
		transitive    bool
	}{
		{entities.ScopeCompile, entities.ScopeCompile, entities.ScopeCompile, true},
		{entities.ScopeCompile, entities.ScopeRuntime, entities.ScopeRuntime, true},
		{entities.ScopeRuntime, entities.ScopeCompile, entities.ScopeRuntime, true},
		{entities.ScopeProvided, entities.ScopeCompile, entities.ScopeProvided, true},
		{entities.ScopeTest, entities.ScopeRuntime, entities.ScopeTest, true},
		{entities.ScopeCompile, entities.ScopeTest, "", false},
		{entities.ScopeCompile, entities.ScopeProvided, "", false},
	}

	for _, tt := range tests {
		t.Run("should propagate "+string(tt.child)+" under "+string(tt.parent), func(t *testing.T) {
			t.Parallel()

			// when
			scope, transitive := entities.PropagateScope(tt.parent, tt.child)

			// then
			assert.Equal(t, tt.transitive, transitive)
			assert.Equal(t, tt.expected, scope)
		})
	}
}

func TestParseScope(t *testing.T) {
	t.Parallel()

	t.Run("should default an empty scope to compile", func(t *testing.T) {
		t.Parallel()

		// when
		scope, err := entities.ParseScope("")

		// then
		require.NoError(t, err)
		assert.Equal(t, entities.ScopeCompile, scope)
	})

	t.Run("should reject an unknown scope", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := entities.ParseScope("system")

		// then
		require.Error(t, err)
	})
}

func TestWidestScope(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b     entities.Scope
		expected entities.Scope
	}{
		{entities.ScopeRuntime, entities.ScopeRuntime, entities.ScopeRuntime},
		{entities.ScopeRuntime, entities.ScopeCompile, entities.ScopeCompile},
		{entities.ScopeTest, entities.ScopeProvided, entities.ScopeProvided},
		{entities.ScopeRuntime, entities.ScopeTest, entities.ScopeRuntime},
		{entities.ScopeProvided, entities.ScopeRuntime, entities.ScopeCompile},
	}

	for _, tt := range tests {
		t.Run("should widen "+string(tt.a)+" and "+string(tt.b), func(t *testing.T) {
			t.Parallel()

			// when
			scope := entities.WidestScope(tt.a, tt.b)

			// then
			assert.Equal(t, tt.expected, scope)
		})
	}
}
