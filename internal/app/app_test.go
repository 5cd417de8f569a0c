// Package app_test contains unit tests for the app package.
package app_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/progress-monitor/internal/app"
	"github.com/JakeFAU/progress-monitor/internal/config"
	"github.com/JakeFAU/progress-monitor/internal/monitor"
	"github.com/JakeFAU/progress-monitor/internal/registry"
)

func TestNewApp_DefaultMonitors(t *testing.T) {
	var out bytes.Buffer
	a, err := app.NewApp(config.Config{Version: config.SupportedVersion}, zap.NewNop(), app.Options{Stdout: &out})
	require.NoError(t, err)

	assert.Equal(t, []string{"demo"}, a.GetRegistry().Names())
	assert.Empty(t, a.Addr())

	for range monitor.Slice(a.GetRegistry().Monitor("demo"), make([]int, 20)) {
	}
	require.NoError(t, a.Close(context.Background()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 11, "start, every second step, end")

	families, err := a.GetMetrics().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewApp_ConfigErrors(t *testing.T) {
	_, err := app.NewApp(config.Config{
		Version:  config.SupportedVersion,
		Monitors: map[string]map[string]any{"bad": {"rule_factory": "$by_span", "span": -1}},
	}, nil, app.Options{Stdout: io.Discard})
	require.ErrorIs(t, err, registry.ErrConfiguration)

	_, err = app.NewApp(config.Config{Version: 3}, nil, app.Options{Stdout: io.Discard})
	require.ErrorIs(t, err, config.ErrUnsupportedVersion)
}

func TestNewApp_ListenError(t *testing.T) {
	_, err := app.NewApp(config.Config{Version: config.SupportedVersion}, nil, app.Options{
		Stdout: io.Discard,
		Listen: "not-an-address",
	})
	require.Error(t, err)
}

func TestApp_ServesStatus(t *testing.T) {
	cfg := config.Config{
		Version: config.SupportedVersion,
		Monitors: map[string]map[string]any{
			"etl": {"callback_factory": "$board", "rule_factory": "$always_true", "format_str": "{$iteration}"},
		},
	}
	a, err := app.NewApp(cfg, zap.NewNop(), app.Options{Stdout: io.Discard, Listen: "127.0.0.1:0"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	require.NotEmpty(t, a.Addr())

	for range monitor.Slice(a.GetRegistry().Monitor("etl"), make([]int, 3)) {
	}

	resp, err := http.Get("http://" + a.Addr() + "/v1/monitors/etl")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"text":"2/2"`)
}

func TestApp_Close(t *testing.T) {
	a, err := app.NewApp(config.Config{Version: config.SupportedVersion}, nil, app.Options{
		Stdout: io.Discard,
		Listen: "127.0.0.1:0",
	})
	require.NoError(t, err)
	require.NoError(t, a.Close(context.Background()))

	_, err = http.Get("http://" + a.Addr() + "/healthz")
	assert.Error(t, err, "server is stopped")
}
