package logging

import (
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps LOG_LEVEL style names to a slog level. Unknown or empty
// values yield fallback.
func ParseLevel(name string, fallback slog.Level) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "dev", "development", "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "production", "prod":
		return slog.LevelError
	default:
		return fallback
	}
}

// Init installs a text logger on stderr as the slog default and returns it.
func Init(name string, fallback slog.Level) *slog.Logger {
	logger := slog.New(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: ParseLevel(name, fallback),
		}),
	)
	slog.SetDefault(logger)
	return logger
}
