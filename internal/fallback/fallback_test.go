package fallback

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type params struct {
	a, b *int
}

func intPtr(v int) *int { return &v }

func newTestRegistry() *Registry[params, string] {
	reg := NewRegistry[params, string]()
	reg.Register("needs-a", func(p params) (string, error) {
		if p.a == nil {
			return "", Missing("needs-a", "a")
		}
		return "a", nil
	}, "needs-b")
	reg.Register("needs-b", func(p params) (string, error) {
		if p.b == nil {
			return "", Missing("needs-b", "b")
		}
		if *p.b < 0 {
			return "", errors.New("b must be positive")
		}
		return "b", nil
	}, "")
	return reg
}

func TestBuildUsesFirstAcceptingFactory(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry()
	tests := []struct {
		name   string
		params params
		want   string
	}{
		{name: "direct", params: params{a: intPtr(1)}, want: "a"},
		{name: "fallback", params: params{b: intPtr(1)}, want: "b"},
		{name: "both present", params: params{a: intPtr(1), b: intPtr(1)}, want: "a"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := reg.Build("needs-a", tc.params)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestBuildExhausted(t *testing.T) {
	t.Parallel()

	_, err := newTestRegistry().Build("needs-a", params{})
	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Equal(t, []string{"needs-a", "needs-b"}, exhausted.Chain)

	var missing *MissingParamError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "b", missing.Param)
	require.ErrorIs(t, err, ErrMissingParam)
}

func TestBuildStopsOnValidationError(t *testing.T) {
	t.Parallel()

	_, err := newTestRegistry().Build("needs-a", params{b: intPtr(-1)})
	require.EqualError(t, err, "b must be positive")
	require.NotErrorIs(t, err, ErrMissingParam)
}

func TestBuildUnknownKind(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry()
	_, err := reg.Build("missing", params{})
	require.ErrorIs(t, err, ErrUnknownKind)

	reg.Register("dangling", func(params) (string, error) {
		return "", Missing("dangling", "x")
	}, "nowhere")
	_, err = reg.Build("dangling", params{})
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestRegistryIntrospection(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry()
	require.True(t, reg.Has("needs-a"))
	require.False(t, reg.Has("other"))
	require.Equal(t, []string{"needs-a", "needs-b"}, reg.Kinds())

	next, ok := reg.Fallback("needs-a")
	require.True(t, ok)
	require.Equal(t, "needs-b", next)
}
