// Package envparse provides typed, forgiving accessors over process
// environment variables. Parsing never fails the process: unrecognized
// values log a warning and fall back to the caller's default.
package envparse

import (
	"os"
	"strconv"
	"strings"

	"github.com/subosito/gotenv"
	"github.com/tradingagents/core/internal/logger"
)

var truthy = map[string]bool{
	"true": true, "1": true, "yes": true, "on": true,
	"enable": true, "enabled": true, "t": true, "y": true, "ok": true,
}

var falsy = map[string]bool{
	"false": true, "0": true, "no": true, "off": true,
	"disable": true, "disabled": true, "f": true, "n": true,
	"none": true, "null": true, "nil": true,
}

// LoadDotenv merges variables from a .env style file into the process
// environment without overriding already-set variables. A missing file is
// not an error.
func LoadDotenv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return gotenv.Load(path)
}

// ParseBool interprets raw as a boolean. Comparison is case-insensitive and
// whitespace-trimmed; values outside the accepted truthy/falsy sets log a
// warning and yield def.
func ParseBool(raw string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return def
	}
	if truthy[v] {
		return true
	}
	if falsy[v] {
		return false
	}
	logger.Warn("unrecognized boolean value, using default", "value", raw, "default", def)
	return def
}

// Bool reads key from the environment as a boolean.
func Bool(key string, def bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	return ParseBool(raw, def)
}

// Int reads key from the environment as an integer.
func Int(key string, def int) int {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		logger.Warn("unrecognized integer value, using default", "key", key, "value", raw, "default", def)
		return def
	}
	return v
}

// Float reads key from the environment as a float64.
func Float(key string, def float64) float64 {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		logger.Warn("unrecognized float value, using default", "key", key, "value", raw, "default", def)
		return def
	}
	return v
}

// String reads key from the environment, trimmed. Empty or unset yields def.
func String(key string, def string) string {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	v := strings.TrimSpace(raw)
	if v == "" {
		return def
	}
	return v
}

// List reads key as a comma-separated list. Elements are trimmed and empty
// elements dropped. Unset or empty yields def.
func List(key string, def []string) []string {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// Validation reports the state of a set of required environment keys.
type Validation struct {
	Missing []string `json:"missing"`
	Empty   []string `json:"empty"`
	Valid   []string `json:"valid"`
	AllSet  bool     `json:"all_set"`
}

// ValidateRequired checks each key and classifies it as missing, empty, or
// valid. AllSet is true only when every key has a non-empty value.
func ValidateRequired(keys []string) Validation {
	v := Validation{
		Missing: []string{},
		Empty:   []string{},
		Valid:   []string{},
	}
	for _, key := range keys {
		raw, ok := os.LookupEnv(key)
		switch {
		case !ok:
			v.Missing = append(v.Missing, key)
		case strings.TrimSpace(raw) == "":
			v.Empty = append(v.Empty, key)
		default:
			v.Valid = append(v.Valid, key)
		}
	}
	v.AllSet = len(v.Missing) == 0 && len(v.Empty) == 0
	return v
}
