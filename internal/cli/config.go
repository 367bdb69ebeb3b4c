package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/aird-ai/aird/internal/history"
	"github.com/aird-ai/aird/internal/pipeline"
	"github.com/aird-ai/aird/internal/platform"
	"github.com/aird-ai/aird/internal/suite"
)

func getEnvOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

// orEnv returns value when set, otherwise the named environment variable.
func orEnv(value, envKey string) string {
	if value != "" {
		return value
	}
	return strings.TrimSpace(os.Getenv(envKey))
}

// resolveOutput picks the output format: the flag value, then AIRD_OUTPUT,
// then the command's own default.
func resolveOutput(flagValue, fallback string) string {
	if v := orEnv(flagValue, "AIRD_OUTPUT"); v != "" {
		return v
	}
	return fallback
}

// ExpandConnection resolves an `env:VAR` literal to the named environment
// variable. Any other value passes through unchanged; an unset variable
// expands to the empty string.
func ExpandConnection(value string) string {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(strings.ToLower(trimmed), "env:") {
		return value
	}
	name := strings.TrimSpace(trimmed[len("env:"):])
	return strings.TrimSpace(os.Getenv(name))
}

// connectionFromEnv resolves the connection for most commands: the flag
// value (with env: expansion), then AIRD_CONNECTION_STRING.
func connectionFromEnv(flagValue string) string {
	if flagValue != "" {
		return ExpandConnection(flagValue)
	}
	return strings.TrimSpace(os.Getenv("AIRD_CONNECTION_STRING"))
}

// resolveConnection adds the manifest fallback assess uses: flag, then
// AIRD_CONNECTION_STRING, then the first entry of the default manifest. A
// manifest that fails to load is skipped quietly.
func resolveConnection(flagValue string) string {
	if conn := connectionFromEnv(flagValue); conn != "" {
		return conn
	}
	targets, err := LoadManifest(defaultManifestPath())
	if err != nil {
		Logger.Debug("failed to load connection manifest", "error", err)
		return ""
	}
	if len(targets) > 0 {
		return targets[0].Connection
	}
	return ""
}

// airdHome is the per-user state directory (~/.aird).
func airdHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".aird"
	}
	return filepath.Join(home, ".aird")
}

func defaultManifestPath() string {
	return filepath.Join(airdHome(), "connections.yaml")
}

// resolveDBPath picks the history database location: --db-path flag, then
// AIRD_DB_PATH, then ~/.aird/assessments.db.
func resolveDBPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return getEnvOrDefault("AIRD_DB_PATH", filepath.Join(airdHome(), "assessments.db"))
}

// newPipeline assembles the collaborators a command needs: the adapter
// registry, the embedded suites, the history store at dbPath, and an audit
// sink (active only when audit is set).
func newPipeline(dbPath string, audit bool) (*pipeline.Pipeline, error) {
	suites, err := suite.Default()
	if err != nil {
		return nil, err
	}
	store, err := history.Open(dbPath)
	if err != nil {
		return nil, err
	}
	return &pipeline.Pipeline{
		Platforms: platform.DefaultRegistry(),
		Suites:    suites,
		Store:     store,
		Audit:     history.NewAuditSink(store, audit),
	}, nil
}

// ExitCode maps an error from Execute to the process exit code: 0 on
// success, 2 for usage errors (bad invocation, unknown scheme, missing
// input file), 1 for everything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var unknownScheme *platform.UnknownSchemeError
	switch {
	case errors.Is(err, pipeline.ErrUsage),
		errors.As(err, &unknownScheme),
		errors.Is(err, os.ErrNotExist):
		return 2
	default:
		return 1
	}
}
