// Package log configures the process-wide structured logger shared by the
// flowdeck binaries.
package log

import (
	"log/slog"
	"os"
	"strings"
)

const serviceName = "flowdeck"

// Setup installs the default text logger at the given level. Every record
// carries the service name so flowdeck lines are filterable in shared
// aggregators. Unknown levels fall back to info.
func Setup(logLevel string) {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(logLevel),
	})

	slog.SetDefault(slog.New(handler).With("service", serviceName))
}

func parseLevel(logLevel string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(logLevel)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithModule returns the default logger tagged with a flowdeck module name.
func WithModule(module string) *slog.Logger {
	return slog.With("module", module)
}
