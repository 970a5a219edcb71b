package envparse

import (
	"testing"

	assert "github.com/stretchr/testify/assert"
)

func TestParseBool(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		def      bool
		expected bool
	}{
		{"uppercase yes", "YES", false, true},
		{"numeric true", "1", false, true},
		{"numeric false", "0", true, false},
		{"enabled", "enabled", false, true},
		{"disabled", "disabled", true, false},
		{"single letter t", "t", false, true},
		{"single letter n", "n", true, false},
		{"ok", "ok", false, true},
		{"nil value", "nil", true, false},
		{"whitespace padded", "  on  ", false, true},
		{"unrecognized uses default true", "maybe", true, true},
		{"unrecognized uses default false", "maybe", false, false},
		{"empty uses default", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseBool(tt.raw, tt.def))
		})
	}
}

func TestBool(t *testing.T) {
	t.Setenv("ENVPARSE_TEST_BOOL", "on")
	assert.True(t, Bool("ENVPARSE_TEST_BOOL", false))
	assert.True(t, Bool("ENVPARSE_TEST_BOOL_UNSET", true))
	assert.False(t, Bool("ENVPARSE_TEST_BOOL_UNSET", false))
}

func TestInt(t *testing.T) {
	t.Setenv("ENVPARSE_TEST_INT", " 42 ")
	assert.Equal(t, 42, Int("ENVPARSE_TEST_INT", 7))

	t.Setenv("ENVPARSE_TEST_INT_BAD", "forty-two")
	assert.Equal(t, 7, Int("ENVPARSE_TEST_INT_BAD", 7))

	assert.Equal(t, 7, Int("ENVPARSE_TEST_INT_UNSET", 7))
}

func TestFloat(t *testing.T) {
	t.Setenv("ENVPARSE_TEST_FLOAT", "0.25")
	assert.Equal(t, 0.25, Float("ENVPARSE_TEST_FLOAT", 1.0))

	t.Setenv("ENVPARSE_TEST_FLOAT_BAD", "a quarter")
	assert.Equal(t, 1.0, Float("ENVPARSE_TEST_FLOAT_BAD", 1.0))
}

func TestString(t *testing.T) {
	t.Setenv("ENVPARSE_TEST_STRING", "  value  ")
	assert.Equal(t, "value", String("ENVPARSE_TEST_STRING", "def"))

	t.Setenv("ENVPARSE_TEST_STRING_EMPTY", "   ")
	assert.Equal(t, "def", String("ENVPARSE_TEST_STRING_EMPTY", "def"))
}

func TestList(t *testing.T) {
	t.Setenv("ENVPARSE_TEST_LIST", "a, b ,,c")
	assert.Equal(t, []string{"a", "b", "c"}, List("ENVPARSE_TEST_LIST", nil))

	t.Setenv("ENVPARSE_TEST_LIST_EMPTY", " , ,")
	assert.Equal(t, []string{"x"}, List("ENVPARSE_TEST_LIST_EMPTY", []string{"x"}))

	assert.Equal(t, []string{"x"}, List("ENVPARSE_TEST_LIST_UNSET", []string{"x"}))
}

func TestValidateRequired(t *testing.T) {
	t.Setenv("ENVPARSE_REQ_SET", "value")
	t.Setenv("ENVPARSE_REQ_EMPTY", "  ")

	v := ValidateRequired([]string{"ENVPARSE_REQ_SET", "ENVPARSE_REQ_EMPTY", "ENVPARSE_REQ_MISSING"})

	assert.Equal(t, []string{"ENVPARSE_REQ_SET"}, v.Valid)
	assert.Equal(t, []string{"ENVPARSE_REQ_EMPTY"}, v.Empty)
	assert.Equal(t, []string{"ENVPARSE_REQ_MISSING"}, v.Missing)
	assert.False(t, v.AllSet)

	v = ValidateRequired([]string{"ENVPARSE_REQ_SET"})
	assert.True(t, v.AllSet)
}
