package logger

import (
	"log/slog"
	"os"
)

var logger *slog.Logger

// Init initializes the logger with the specified verbose level
func Init(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewJSONHandler(os.Stderr, opts)
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// Close releases the logger. It is safe to call multiple times.
func Close() {
	logger = nil
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	if logger != nil {
		logger.Debug(msg, args...)
	}
}

// Info logs an info message
func Info(msg string, args ...any) {
	if logger != nil {
		logger.Info(msg, args...)
	}
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	if logger != nil {
		logger.Warn(msg, args...)
	}
}

// Error logs an error message
func Error(msg string, args ...any) {
	if logger != nil {
		logger.Error(msg, args...)
	}
}

// Event logs a structured event line tagged with event_type. Consumers key
// off the event_type field rather than the message text.
func Event(eventType string, args ...any) {
	if logger != nil {
		logger.Info(eventType, append([]any{"event_type", eventType}, args...)...)
	}
}

// WarnEvent logs a warning-level event tagged with event_type.
func WarnEvent(eventType string, args ...any) {
	if logger != nil {
		logger.Warn(eventType, append([]any{"event_type", eventType}, args...)...)
	}
}
