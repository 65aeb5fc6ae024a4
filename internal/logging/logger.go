package logging

import (
	"log/slog"
	"os"
	"strings"
)

const serviceName = "access-rides"

// NewLogger builds the service-wide JSON logger. Every record carries the
// service name so server and consumer logs stay attributable once they
// land in the same collector.
func NewLogger(level string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     levelFromString(level),
		AddSource: true,
	}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler).With(slog.String("service", serviceName))
}

// NewComponentLogger tags records with the emitting binary on top of the
// service attribute.
func NewComponentLogger(level, component string) *slog.Logger {
	return NewLogger(level).With(slog.String("component", component))
}

func levelFromString(level string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
