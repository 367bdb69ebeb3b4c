package cli

import (
	"log/slog"
	"os"
	"strings"
)

// Logger is the global logger instance
var Logger *slog.Logger

// InitLogging initializes the logger. The explicit level (from --log-level)
// wins over AIRD_LOG_LEVEL; an empty or unrecognised value falls back to
// INFO. The handler writes to stderr so machine output on stdout stays
// clean.
func InitLogging(logLevel string) {
	level := new(slog.LevelVar)

	if logLevel == "" {
		logLevel = os.Getenv("AIRD_LOG_LEVEL")
	}
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		level.Set(slog.LevelDebug)
	case "WARN", "WARNING":
		level.Set(slog.LevelWarn)
	case "ERROR":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}

	Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	// Replace the default logger so package-level slog calls follow suit
	slog.SetDefault(Logger)
}
