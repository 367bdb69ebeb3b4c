package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aird-ai/aird/internal/pipeline"
	"github.com/aird-ai/aird/internal/platform"
)

func TestExpandConnection(t *testing.T) {
	t.Setenv("AIRD_TEST_CONN", "sqlite:///from/env.db")
	t.Setenv("AIRD_TEST_PADDED", "  padded  ")

	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "plain value passes through", value: "sqlite:///data.db", want: "sqlite:///data.db"},
		{name: "env literal expands", value: "env:AIRD_TEST_CONN", want: "sqlite:///from/env.db"},
		{name: "prefix is case-insensitive", value: "ENV:AIRD_TEST_CONN", want: "sqlite:///from/env.db"},
		{name: "surrounding whitespace is ignored", value: "  env: AIRD_TEST_CONN ", want: "sqlite:///from/env.db"},
		{name: "expanded value is trimmed", value: "env:AIRD_TEST_PADDED", want: "padded"},
		{name: "unset variable expands empty", value: "env:AIRD_TEST_UNSET", want: ""},
		{name: "empty value stays empty", value: "", want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExpandConnection(tc.value))
		})
	}
}

func TestConnectionFromEnv(t *testing.T) {
	t.Setenv("AIRD_CONNECTION_STRING", " sqlite:///fallback.db ")
	assert.Equal(t, "sqlite:///flag.db", connectionFromEnv("sqlite:///flag.db"), "the flag wins")
	assert.Equal(t, "sqlite:///fallback.db", connectionFromEnv(""), "the environment value is trimmed")

	t.Setenv("AIRD_TEST_INDIRECT", "sqlite:///indirect.db")
	assert.Equal(t, "sqlite:///indirect.db", connectionFromEnv("env:AIRD_TEST_INDIRECT"))
}

func TestResolveOutput(t *testing.T) {
	t.Setenv("AIRD_OUTPUT", "")
	assert.Equal(t, formatMarkdown, resolveOutput("", formatMarkdown))
	assert.Equal(t, formatStdout, resolveOutput(formatStdout, formatMarkdown))

	t.Setenv("AIRD_OUTPUT", "json:report.json")
	assert.Equal(t, "json:report.json", resolveOutput("", formatMarkdown))
	assert.Equal(t, formatStdout, resolveOutput(formatStdout, formatMarkdown), "the flag beats the environment")
}

func TestEnvBool(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", "yes", " Yes "} {
		t.Setenv("AIRD_TEST_BOOL", v)
		assert.True(t, envBool("AIRD_TEST_BOOL"), "value %q", v)
	}
	for _, v := range []string{"", "0", "false", "no", "on"} {
		t.Setenv("AIRD_TEST_BOOL", v)
		assert.False(t, envBool("AIRD_TEST_BOOL"), "value %q", v)
	}
}

func TestResolveDBPath(t *testing.T) {
	t.Setenv("AIRD_DB_PATH", "")
	assert.Equal(t, "custom.db", resolveDBPath("custom.db"))
	assert.Equal(t, filepath.Join(airdHome(), "assessments.db"), resolveDBPath(""))

	t.Setenv("AIRD_DB_PATH", "/var/lib/aird/history.db")
	assert.Equal(t, "/var/lib/aird/history.db", resolveDBPath(""))
	assert.Equal(t, "custom.db", resolveDBPath("custom.db"), "the flag beats the environment")
}

func TestResolveConnectionManifestFallback(t *testing.T) {
	InitLogging("ERROR")
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("AIRD_CONNECTION_STRING", "")

	assert.Empty(t, resolveConnection(""), "no flag, no environment, no manifest")

	require.NoError(t, os.MkdirAll(filepath.Join(home, ".aird"), 0o755))
	manifestPath := filepath.Join(home, ".aird", "connections.yaml")
	require.NoError(t, os.WriteFile(manifestPath, []byte("- sqlite:///data/sales.db\n"), 0o644))

	assert.Equal(t, "sqlite:///data/sales.db", resolveConnection(""))
	assert.Equal(t, "sqlite:///flag.db", resolveConnection("sqlite:///flag.db"), "the flag always wins")

	t.Setenv("AIRD_CONNECTION_STRING", "sqlite:///env.db")
	assert.Equal(t, "sqlite:///env.db", resolveConnection(""), "the environment beats the manifest")
}

func TestNewPipeline(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	p, err := newPipeline(dbPath, false)
	require.NoError(t, err)
	defer func() { _ = p.Store.Close() }()

	assert.NotNil(t, p.Platforms)
	assert.NotNil(t, p.Suites)
	assert.NotNil(t, p.Audit)
	assert.FileExists(t, dbPath)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: 0},
		{name: "usage error", err: pipeline.Usagef("--connection required"), want: 2},
		{name: "wrapped usage error", err: fmt.Errorf("assess: %w", pipeline.ErrUsage), want: 2},
		{name: "unknown scheme", err: &platform.UnknownSchemeError{Scheme: "oracle"}, want: 2},
		{name: "wrapped unknown scheme", err: fmt.Errorf("open: %w", &platform.UnknownSchemeError{Scheme: "oracle"}), want: 2},
		{name: "missing input file", err: fmt.Errorf("read context: %w", os.ErrNotExist), want: 2},
		{name: "anything else", err: errors.New("connection refused"), want: 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExitCode(tc.err))
		})
	}
}
