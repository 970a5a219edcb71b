package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestCaptureEventsObservesStructuredEvents(t *testing.T) {
	logs, restore := CaptureEvents()
	defer restore()

	Event("sample_event", "count", 3)
	WarnEvent("sample_warning", "reason", "timeout")
	Debug("noise")

	events := logs.FilterMessage("sample_event").All()
	require.Len(t, events, 1)
	assert.Equal(t, zapcore.InfoLevel, events[0].Level)
	fields := events[0].ContextMap()
	assert.Equal(t, "sample_event", fields["event_type"])
	assert.Equal(t, int64(3), fields["count"])

	warnings := logs.FilterMessage("sample_warning").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, zapcore.WarnLevel, warnings[0].Level)
	assert.Equal(t, "timeout", warnings[0].ContextMap()["reason"])

	assert.Equal(t, 1, logs.FilterMessage("noise").Len())
}

func TestCaptureEventsRestoresPreviousLogger(t *testing.T) {
	logs, restore := CaptureEvents()
	restore()

	Event("after_restore")
	assert.Equal(t, 0, logs.FilterMessage("after_restore").Len())
}
