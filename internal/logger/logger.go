// Package logger provides the structured, leveled logger shared by
// every component of the AoE target daemon, built on log/slog.
package logger

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Config selects the logger's level and output format.
type Config struct {
	// Level is one of "debug", "info", "warn", "error" (case-insensitive).
	Level string

	// Format is "text" or "json". Anything else falls back to "text".
	Format string
}

// New builds a slog.Logger writing to stderr per cfg. Volume
// registration/removal, worker lifecycle, dropped frames, and config
// errors are the events every other component logs through it.
func New(cfg Config) (*slog.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler), nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("logger: unrecognized level %q", s)
	}
}
