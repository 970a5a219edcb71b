package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure for logging and recovery decisions.
// Kinds describe behavior, not Go types: the same kind may be produced by
// several backends.
type ErrorKind string

const (
	KindConfigMissing        ErrorKind = "config_missing"
	KindConfigMalformed      ErrorKind = "config_malformed"
	KindCredentialMissing    ErrorKind = "credential_missing"
	KindCredentialMalformed  ErrorKind = "credential_malformed"
	KindBackendUnavailable   ErrorKind = "backend_unavailable"
	KindBackendTransient     ErrorKind = "backend_transient"
	KindProviderTransport    ErrorKind = "provider_transport"
	KindProviderMalformed    ErrorKind = "provider_response_malformed"
	KindLengthLimit          ErrorKind = "length_limit"
	KindAccountingFailure    ErrorKind = "accounting_failure"
)

// Error carries an ErrorKind, a human-readable message with a remediation
// hint, and an optional wrapped cause.
type Error struct {
	Kind ErrorKind
	Msg  string
	Hint string
	Err  error
}

func (e *Error) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Msg, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a classified error wrapping cause (which may be nil).
func NewError(kind ErrorKind, msg, hint string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Hint: hint, Err: cause}
}

// KindOf extracts the ErrorKind from err, or an empty kind when err was not
// produced by this package.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsTransport reports whether err is a provider transport failure. The
// orchestrator uses this to decide retry eligibility; adapters never retry.
func IsTransport(err error) bool {
	return KindOf(err) == KindProviderTransport
}
