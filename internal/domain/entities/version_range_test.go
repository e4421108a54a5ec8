//go:build unit

package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/malaclypse/internal/domain/entities"
)

func TestParseRange(t *testing.T) {
	t.Parallel()

	t.Run("should parse bracket notation", func(t *testing.T) {
		t.Parallel()

		// given
		raw := "[1.0,2.0)"

		// when
		r, err := entities.ParseRange(raw)

		// then
		require.NoError(t, err)
		assert.True(t, r.Contains(entities.ParseVersion("1.0")))
		assert.True(t, r.Contains(entities.ParseVersion("1.9.9")))
		assert.False(t, r.Contains(entities.ParseVersion("2.0")))
		assert.False(t, r.Contains(entities.ParseVersion("0.9")))
		assert.Equal(t, "[1.0.0,2.0.0)", r.String())
	})

	t.Run("should pin a bare version", func(t *testing.T) {
		t.Parallel()

		// given
		raw := "1.5"

		// when
		r, err := entities.ParseRange(raw)

		// then
		require.NoError(t, err)
		v, pinned := r.Pinned()
		assert.True(t, pinned)
		assert.Equal(t, "1.5", v.String())
		assert.True(t, r.Contains(entities.ParseVersion("1.5.0")))
	})

	t.Run("should accept any version for an empty or star range", func(t *testing.T) {
		t.Parallel()

		for _, raw := range []string{"", "*"} {
			// when
			r, err := entities.ParseRange(raw)

			// then
			require.NoError(t, err)
			assert.True(t, r.IsAny())
			assert.Equal(t, "*", r.String())
		}
	})

	t.Run("should parse half-open ranges", func(t *testing.T) {
		t.Parallel()

		// given
		lower := entities.MustParseRange("[1.5,)")
		upper := entities.MustParseRange("(,1.0]")

		// then
		assert.True(t, lower.Contains(entities.ParseVersion("99")))
		assert.False(t, lower.Contains(entities.ParseVersion("1.4")))
		assert.True(t, upper.Contains(entities.ParseVersion("1.0")))
		assert.False(t, upper.Contains(entities.ParseVersion("1.0.1")))
	})

	t.Run("should reject multiple intervals and malformed ranges", func(t *testing.T) {
		t.Parallel()

		for _, raw := range []string{"[1.0,2.0),[3.0,4.0)", "[1.0,2.0", "[1,2,3]", "()", "1.0,2.0"} {
			// when
			_, err := entities.ParseRange(raw)

			// then
			require.ErrorIs(t, err, entities.ErrInvalidRange, raw)
		}
	})

	t.Run("should report an inverted range as empty", func(t *testing.T) {
		t.Parallel()

		// when
		r, err := entities.ParseRange("[2.0,1.0]")

		// then
		require.NoError(t, err)
		assert.True(t, r.IsEmpty())
		assert.False(t, r.Contains(entities.ParseVersion("1.5")))
	})
}

func TestVersionRangeIntersect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		a, b     string
		expected string
	}{
		{name: "should keep the overlap", a: "[1.0,2.0)", b: "[1.5,3.0)", expected: "[1.5.0,2.0.0)"},
		{name: "should produce an empty range without overlap", a: "[1.0,2.0)", b: "[2.0,3.0)", expected: "(empty)"},
		{name: "should prefer the exclusive bound on equal versions", a: "[1.0,2.0]", b: "(1.0,2.0)", expected: "(1.0.0,2.0.0)"},
		{name: "should leave a pinned version inside the other range", a: "1.5", b: "[1.0,2.0)", expected: "[1.5.0]"},
		{name: "should return the other range for any", a: "*", b: "[1.0,)", expected: "[1.0.0,)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// given
			a := entities.MustParseRange(tt.a)
			b := entities.MustParseRange(tt.b)

			// when
			ab := a.Intersect(b)
			ba := b.Intersect(a)

			// then
			assert.Equal(t, tt.expected, ab.String())
			assert.Equal(t, ab.String(), ba.String())
		})
	}

	t.Run("should satisfy both ranges for any version of the intersection", func(t *testing.T) {
		t.Parallel()

		// given
		a := entities.MustParseRange("[1.0,2.0)")
		b := entities.MustParseRange("(1.2,)")
		intersection := a.Intersect(b)

		for _, raw := range []string{"0.9", "1.0", "1.2", "1.3", "1.9.9", "2.0", "3.0"} {
			v := entities.ParseVersion(raw)

			// when
			inside := intersection.Contains(v)

			// then
			assert.Equal(t, a.Contains(v) && b.Contains(v), inside, raw)
		}
	})
}
