package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	saved := newLogger
	newLogger = func(bool, string) (*zap.Logger, error) { return zap.NewNop(), nil }
	t.Cleanup(func() { newLogger = saved })

	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "progress.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRunDemo(t *testing.T) {
	out, err := execute(t, "run", "--length", "5", "--delay", "0")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[0], "0/4")
	assert.Contains(t, lines[5], "4/4")
}

func TestRunWorkers(t *testing.T) {
	out, err := execute(t, "run", "--length", "5", "--delay", "0", "--workers", "3")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 18)
	for i := range 3 {
		assert.Contains(t, out, "demo #"+string(rune('0'+i)))
	}
}

func TestRunFailure(t *testing.T) {
	out, err := execute(t, "run", "--length", "5", "--delay", "0", "--fail-at", "2")
	require.ErrorIs(t, err, errSimulated)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Contains(t, lines[len(lines)-1], "simulated failure at element 2")
}

func TestRunWithConfig(t *testing.T) {
	path := writeConfig(t, `
monitors:
  etl:
    rule_factory: $by_span
    span: 2
    format_str: "{$iteration}"
  etl.load:
    task_name: load
`)
	out, err := execute(t, "--config", path, "run", "--monitor", "etl.load", "--length", "5", "--delay", "0")
	require.NoError(t, err)
	assert.Equal(t, "0/4\n2/4\n4/4\n4/4\n", out)
}

func TestRunRejectsBadFlags(t *testing.T) {
	_, err := execute(t, "run", "--workers", "0")
	require.Error(t, err)

	_, err = execute(t, "run", "--length", "-3")
	require.Error(t, err)
}

func TestRunUnknownMonitorPassesThrough(t *testing.T) {
	out, err := execute(t, "run", "--monitor", "nope", "--length", "3", "--delay", "0")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestConfigShow(t *testing.T) {
	path := writeConfig(t, `
monitors:
  etl:
    rule_factory: $by_span
    span: 5
    period: 30
  etl.load:
    format_str: "{$task}"
`)
	out, err := execute(t, "--config", path, "config", "show", "etl.load", "etl.load.customers")
	require.NoError(t, err)
	assert.Contains(t, out, "etl.load:")
	assert.Contains(t, out, "etl.load.customers:")
	assert.Contains(t, out, "span: 5")
	assert.Contains(t, out, "period: 30s")
	assert.Contains(t, out, "{$task}")
}

func TestConfigShowInvalid(t *testing.T) {
	path := writeConfig(t, `
monitors:
  broken:
    rule_factory: $by_rate
    rate: 4
`)
	_, err := execute(t, "--config", path, "config", "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}
