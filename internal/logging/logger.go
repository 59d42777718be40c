// Package logging defines a minimal structured-logging interface used across
// FaceKeeper. Implementations wrap slog or zerolog.
//
// Loggers must never receive key material, plaintext secrets, TOTP secrets
// or backup codes as arguments.
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "gate finished", "principal", p, "result", r)
type Logger interface {
	// Debug logs diagnostic detail that is off by default.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

// Format selects the logging backend.
type Format string

const (
	FormatJSON    Format = "json"
	FormatText    Format = "text"
	FormatZerolog Format = "zerolog"
)

// New builds a Logger writing to w. Unknown formats fall back to JSON and
// unknown levels to info.
func New(format Format, level string, w io.Writer) Logger {
	switch format {
	case FormatZerolog:
		zl := zerolog.New(w).With().Timestamp().Logger().Level(zerologLevel(level))
		return NewZerologLogger(zl)
	case FormatText:
		return NewSlogLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slogLevel(level)})))
	default:
		return NewSlogLogger(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slogLevel(level)})))
	}
}

func slogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func zerologLevel(level string) zerolog.Level {
	l, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}
