// Package logging wraps log/slog with this module's structured-logging
// conventions: configurable level/format, a package-global default set once
// at main(), and With*-style derived loggers.
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps *slog.Logger with this module's conventions.
type Logger struct {
	*slog.Logger
}

// New builds a Logger writing to stdout. level is one of
// debug|info|warn|error (case-insensitive, defaults to info); format is one
// of text|json (defaults to text).
func New(level, format string) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// NewDefault builds a Logger at info level, text format.
func NewDefault() *Logger {
	return New("info", "text")
}

// WithFields derives a Logger carrying the given fields on every subsequent
// record.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{Logger: l.Logger.With(args...)}
}

// WithField derives a Logger carrying one additional field.
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{Logger: l.Logger.With(key, value)}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

var global = NewDefault()

// SetGlobal replaces the package-global default logger.
func SetGlobal(logger *Logger) {
	global = logger
	slog.SetDefault(logger.Logger)
}

// Global returns the package-global default logger.
func Global() *Logger {
	return global
}

// Debug logs at debug level through the global logger.
func Debug(msg string, args ...any) { global.Debug(msg, args...) }

// Info logs at info level through the global logger.
func Info(msg string, args ...any) { global.Info(msg, args...) }

// Warn logs at warn level through the global logger.
func Warn(msg string, args ...any) { global.Warn(msg, args...) }

// Error logs at error level through the global logger.
func Error(msg string, args ...any) { global.Error(msg, args...) }

// DebugContext logs at debug level with a context through the global logger.
func DebugContext(ctx context.Context, msg string, args ...any) { global.DebugContext(ctx, msg, args...) }

// InfoContext logs at info level with a context through the global logger.
func InfoContext(ctx context.Context, msg string, args ...any) { global.InfoContext(ctx, msg, args...) }

// WarnContext logs at warn level with a context through the global logger.
func WarnContext(ctx context.Context, msg string, args ...any) { global.WarnContext(ctx, msg, args...) }

// ErrorContext logs at error level with a context through the global logger.
func ErrorContext(ctx context.Context, msg string, args ...any) { global.ErrorContext(ctx, msg, args...) }
