package cache

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Kind tags the payload variant carried by a cache entry.
type Kind string

const (
	KindFrame Kind = "frame"
	KindText  Kind = "text"
	KindBytes Kind = "bytes"
	KindJSON  Kind = "json"
)

// Frame is a records-oriented tabular payload (market data, fundamentals).
type Frame struct {
	Columns []string         `json:"columns"`
	Records []map[string]any `json:"records"`
}

// Payload is the closed set of cacheable artifact types. Exactly one field
// matching Kind is populated.
type Payload struct {
	Kind  Kind
	Frame *Frame
	Text  string
	Bytes []byte
	JSON  json.RawMessage
}

// TextPayload wraps a string artifact.
func TextPayload(s string) Payload {
	return Payload{Kind: KindText, Text: s}
}

// BytesPayload wraps a binary artifact.
func BytesPayload(b []byte) Payload {
	return Payload{Kind: KindBytes, Bytes: b}
}

// FramePayload wraps a tabular artifact.
func FramePayload(f Frame) Payload {
	return Payload{Kind: KindFrame, Frame: &f}
}

// JSONPayload marshals v into a JSON artifact.
func JSONPayload(v any) (Payload, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Payload{}, fmt.Errorf("failed to marshal json payload: %w", err)
	}
	return Payload{Kind: KindJSON, JSON: data}, nil
}

// envelope is the wire form shared by the kv and doc backends, and the
// sidecar metadata half of the file backend. Tabular payloads travel as
// JSON records; binary payloads are hex-encoded.
type envelope struct {
	Kind       Kind            `json:"kind"`
	Frame      json.RawMessage `json:"frame,omitempty"`
	Text       string          `json:"text,omitempty"`
	Hex        string          `json:"hex,omitempty"`
	JSON       json.RawMessage `json:"json,omitempty"`
	Meta       Meta            `json:"meta"`
	CreatedAt  time.Time       `json:"created_at"`
	TTLSeconds int             `json:"ttl_seconds"`
}

func newEnvelope(payload Payload, meta Meta, createdAt time.Time, ttl time.Duration) (envelope, error) {
	env := envelope{
		Kind:       payload.Kind,
		Meta:       meta,
		CreatedAt:  createdAt.UTC(),
		TTLSeconds: int(ttl / time.Second),
	}

	switch payload.Kind {
	case KindFrame:
		data, err := json.Marshal(payload.Frame)
		if err != nil {
			return envelope{}, fmt.Errorf("failed to marshal frame payload: %w", err)
		}
		env.Frame = data
	case KindText:
		env.Text = payload.Text
	case KindBytes:
		env.Hex = hex.EncodeToString(payload.Bytes)
	case KindJSON:
		env.JSON = payload.JSON
	default:
		return envelope{}, fmt.Errorf("unsupported payload kind: %s", payload.Kind)
	}
	return env, nil
}

func (e envelope) payload() (Payload, error) {
	switch e.Kind {
	case KindFrame:
		var f Frame
		if err := json.Unmarshal(e.Frame, &f); err != nil {
			return Payload{}, fmt.Errorf("failed to unmarshal frame payload: %w", err)
		}
		return Payload{Kind: KindFrame, Frame: &f}, nil
	case KindText:
		return Payload{Kind: KindText, Text: e.Text}, nil
	case KindBytes:
		b, err := hex.DecodeString(e.Hex)
		if err != nil {
			return Payload{}, fmt.Errorf("failed to decode bytes payload: %w", err)
		}
		return Payload{Kind: KindBytes, Bytes: b}, nil
	case KindJSON:
		return Payload{Kind: KindJSON, JSON: e.JSON}, nil
	default:
		return Payload{}, fmt.Errorf("unsupported payload kind: %s", e.Kind)
	}
}

// expired reports whether the entry is past created_at + ttl at the given
// instant. A non-positive TTL never expires.
func (e envelope) expired(now time.Time) bool {
	if e.TTLSeconds <= 0 {
		return false
	}
	return now.After(e.CreatedAt.Add(time.Duration(e.TTLSeconds) * time.Second))
}
