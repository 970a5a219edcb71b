package backend

import (
	"context"
	"errors"
	"testing"

	assert "github.com/stretchr/testify/assert"
)

func newTestDetector(kvErr, docErr error) *Detector {
	d := NewDetector(KVConfig{Host: "localhost", Port: 6379}, DocConfig{Host: "localhost", Port: 5432})
	d.probeKV = func(ctx context.Context) error { return kvErr }
	d.probeDoc = func(ctx context.Context) error { return docErr }
	return d
}

func TestDetector_PrimarySelectionOrder(t *testing.T) {
	down := errors.New("unreachable")

	tests := []struct {
		name    string
		kvErr   error
		docErr  error
		primary string
		kv, doc bool
	}{
		{"kv wins when both up", nil, nil, BackendKV, true, true},
		{"doc when kv down", down, nil, BackendDoc, false, true},
		{"file when both down", down, down, BackendFile, false, false},
		{"kv when doc down", nil, down, BackendKV, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDetector(tt.kvErr, tt.docErr)
			status := d.Probe(context.Background())

			assert.Equal(t, tt.primary, status.PrimaryBackend)
			assert.Equal(t, tt.kv, status.KVAvailable)
			assert.Equal(t, tt.doc, status.DocStoreAvailable)
			assert.True(t, status.FallbackEnabled)
		})
	}
}

func TestDetector_GatingTogglesForceChannelOff(t *testing.T) {
	t.Setenv("ENABLED_KV", "false")

	d := newTestDetector(nil, nil)
	status := d.Probe(context.Background())

	assert.False(t, status.KVAvailable, "ENABLED_KV=false forces kv off even when reachable")
	assert.Equal(t, BackendDoc, status.PrimaryBackend)
}

func TestDetector_AllChannelsGatedFallsBackToFile(t *testing.T) {
	t.Setenv("ENABLED_KV", "0")
	t.Setenv("ENABLED_DOC", "off")

	d := newTestDetector(nil, nil)
	status := d.Probe(context.Background())

	assert.Equal(t, BackendFile, status.PrimaryBackend)
	assert.True(t, status.FallbackEnabled)
}

func TestDetector_StatusBeforeProbeIsFilePrimary(t *testing.T) {
	d := NewDetector(KVConfig{}, DocConfig{})
	status := d.Status()

	assert.Equal(t, BackendFile, status.PrimaryBackend)
	assert.True(t, status.FallbackEnabled)
}

func TestDetector_StatusReflectsLastProbe(t *testing.T) {
	d := newTestDetector(nil, errors.New("down"))
	_ = d.Probe(context.Background())

	status := d.Status()
	assert.Equal(t, BackendKV, status.PrimaryBackend)

	d.probeKV = func(ctx context.Context) error { return errors.New("now down") }
	_ = d.Probe(context.Background())
	assert.Equal(t, BackendFile, d.Status().PrimaryBackend)
}
