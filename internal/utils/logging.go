package utils

import (
	"context"
	"log/slog"
	"time"
)

// CommandEvent describes one finished external command.
type CommandEvent struct {
	Name     string
	Args     []string
	Dir      *string
	ExitCode int
	Duration time.Duration
	Stderr   *string
}

// CommandToSlog logs ev at debug level on logger, or on the default logger when
// logger is nil.
func CommandToSlog(logger *slog.Logger, ev CommandEvent) {
	if logger == nil {
		logger = slog.Default()
	}
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}

	attrs := []any{
		"command", ev.Name,
		"args", ev.Args,
		"exitCode", ev.ExitCode,
		"duration", ev.Duration,
	}

	attrs = addIf(attrs, "dir", ev.Dir)
	attrs = addIf(attrs, "stderr", ev.Stderr)

	logger.Debug("Command finished", attrs...)
}

// StringPtr returns nil for an empty string and a pointer to s otherwise.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func addIf[T any](attrs []any, name string, v *T) []any {
	if v != nil {
		attrs = append(attrs, name)
		attrs = append(attrs, *v)
	}

	return attrs
}
