package logger

import (
	"log/slog"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// CaptureEvents swaps the package logger for one backed by an in-memory
// observer core. The returned ObservedLogs can be filtered by message
// (event_type doubles as the message for Event/WarnEvent lines); the
// restore function puts the previous logger back.
func CaptureEvents() (*observer.ObservedLogs, func()) {
	core, logs := observer.New(zap.DebugLevel)
	prev := logger
	logger = slog.New(newZapHandler(zap.New(core)))
	return logs, func() { logger = prev }
}
