// ABOUTME: slog logger construction from LogConfig
// ABOUTME: Text handler for terminals, JSON handler for automation
package config

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger creates a *slog.Logger from a LogConfig and sets it as the
// process default.
//
// Format "json" produces structured JSON output; anything else gets a
// human-readable text handler. Level is one of debug, info, warn,
// error (case-insensitive) and defaults to info. Output is os.Stderr
// so command output on stdout stays clean.
func NewLogger(cfg LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
