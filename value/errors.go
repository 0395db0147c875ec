package value

import "errors"

// ErrorKind is a stable category for programmatic error handling.
//
// These categories are intended to remain stable across versions.
// Callers should branch on ErrorKind/RuleID rather than matching error
// strings.
//
// NOTE: Error() strings are intentionally kept human-readable and may evolve.
// Use errors.As to extract *Error for structured handling.
type ErrorKind string

const (
	// KindSerialization covers failures while converting typed data into a
	// Value tree or a Value tree into wire bytes.
	KindSerialization ErrorKind = "Serialization"
	// KindDeserialization covers failures while reconstructing a Value tree
	// or a typed record from wire bytes. Always recoverable by the caller.
	KindDeserialization ErrorKind = "Deserialization"
	// KindUnsupported marks shape categories excluded by design. Callers
	// should treat it as a permanent "cannot be represented" signal.
	KindUnsupported ErrorKind = "Unsupported"
	// KindInternal marks invariant violations that indicate a bug in the
	// library or a caller-side type mix-up, not malformed input.
	KindInternal ErrorKind = "Internal"
)

// Error is the library's structured error type.
//
// RuleID is a stable identifier (e.g., CV-SER-001, CV-DES-004) that names the
// violated invariant or rule.
//
// Message is intended for humans; do not match on it.
type Error struct {
	Kind    ErrorKind
	RuleID  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewError constructs a structured error.
func NewError(kind ErrorKind, ruleID, msg string) error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg}
}

// WrapError constructs a structured error with an underlying cause.
func WrapError(kind ErrorKind, ruleID, msg string, cause error) error {
	if cause == nil {
		return NewError(kind, ruleID, msg)
	}
	return &Error{Kind: kind, RuleID: ruleID, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}
