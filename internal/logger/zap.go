package logger

import (
	"context"
	"log/slog"

	"go.uber.org/zap"
)

// zapHandler forwards slog records into a zap logger. It exists so tests
// can route the package logger through zap's observer core and assert on
// emitted events by event_type.
type zapHandler struct {
	zl    *zap.Logger
	attrs []zap.Field
}

func newZapHandler(zl *zap.Logger) slog.Handler {
	return &zapHandler{zl: zl}
}

func (h *zapHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

func (h *zapHandler) Handle(_ context.Context, rec slog.Record) error {
	fields := make([]zap.Field, 0, len(h.attrs)+rec.NumAttrs())
	fields = append(fields, h.attrs...)
	rec.Attrs(func(a slog.Attr) bool {
		fields = append(fields, zap.Any(a.Key, a.Value.Any()))
		return true
	})

	switch {
	case rec.Level >= slog.LevelError:
		h.zl.Error(rec.Message, fields...)
	case rec.Level >= slog.LevelWarn:
		h.zl.Warn(rec.Message, fields...)
	case rec.Level >= slog.LevelInfo:
		h.zl.Info(rec.Message, fields...)
	default:
		h.zl.Debug(rec.Message, fields...)
	}
	return nil
}

func (h *zapHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	fields := make([]zap.Field, 0, len(h.attrs)+len(attrs))
	fields = append(fields, h.attrs...)
	for _, a := range attrs {
		fields = append(fields, zap.Any(a.Key, a.Value.Any()))
	}
	return &zapHandler{zl: h.zl, attrs: fields}
}

func (h *zapHandler) WithGroup(name string) slog.Handler {
	return &zapHandler{zl: h.zl.With(zap.Namespace(name)), attrs: h.attrs}
}
