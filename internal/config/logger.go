package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger returns the process logger: JSON in production, text with
// source locations elsewhere. level may be empty.
func NewLogger(env, level string) *slog.Logger {
	return newLogger(env, level, os.Stdout)
}

func newLogger(env, level string, w io.Writer) *slog.Logger {
	production := env == "production"

	lvl := slog.LevelDebug
	if production {
		lvl = slog.LevelInfo
	}
	if parsed, err := parseLevel(level); err == nil && level != "" {
		lvl = parsed
	}

	opts := &slog.HandlerOptions{Level: lvl, AddSource: !production}

	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if production {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler).With(slog.String("service", "facegate"), slog.String("env", env))
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if s == "" {
		return lvl, nil
	}
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return lvl, fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error", s)
	}
	return lvl, nil
}
