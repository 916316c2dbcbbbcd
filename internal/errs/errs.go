// Package errs models the error taxonomy from spec.md §7 as sentinel kinds
// wrapped by the standard error interface, rather than as exception types.
package errs

import "errors"

// Kind is one of the five error categories the orchestrator reasons about.
type Kind int

const (
	// TransientNetwork covers HTTP 5xx, timeouts, and connection resets.
	// Retried per the component's own policy; degrades to an empty result.
	TransientNetwork Kind = iota
	// ParseFailure covers malformed RSS, non-JSON LLM output, bad dates.
	// The unit is skipped; never fatal.
	ParseFailure
	// EmptyResult means a stage yielded zero items.
	EmptyResult
	// ConfigMissing means a required env var is absent for one publisher.
	ConfigMissing
	// Fatal is an unexpected orchestrator-level error.
	Fatal
)

func (k Kind) String() string {
	switch k {
	case TransientNetwork:
		return "transient_network"
	case ParseFailure:
		return "parse_failure"
	case EmptyResult:
		return "empty_result"
	case ConfigMissing:
		return "config_missing"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// kindError pairs a Kind with an underlying cause.
type kindError struct {
	kind Kind
	msg  string
	err  error
}

func (e *kindError) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *kindError) Unwrap() error { return e.err }

// Kind reports the taxonomy category of a kindError.
func (e *kindError) Kind() Kind { return e.kind }

// New wraps err (which may be nil) under kind with a message.
func New(kind Kind, msg string, err error) error {
	return &kindError{kind: kind, msg: msg, err: err}
}

// Is reports whether err (or anything it wraps) is a kindError of kind k.
func Is(err error, k Kind) bool {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind == k
	}
	return false
}

// KindOf extracts the Kind from err, defaulting to Fatal when err does not
// carry a recognized taxonomy kind.
func KindOf(err error) Kind {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	return Fatal
}
