package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Meta identifies a cached artifact. Two calls with identical metadata
// always derive the same key.
type Meta struct {
	Symbol      string `json:"symbol"`
	WindowStart string `json:"window_start,omitempty"`
	WindowEnd   string `json:"window_end,omitempty"`
	Source      string `json:"source,omitempty"`
	DataType    string `json:"data_type,omitempty"`
}

// DeriveKey computes the stable digest for meta. Fields are serialized in
// canonical order with empty fields kept as empty strings, so keys are
// stable across callers regardless of which optional fields they set.
func DeriveKey(meta Meta) string {
	canonical := strings.Join([]string{
		meta.Symbol,
		meta.WindowStart,
		meta.WindowEnd,
		meta.Source,
		meta.DataType,
	}, "|")
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}
