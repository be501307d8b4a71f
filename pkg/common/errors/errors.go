package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an EngineError the way spec §7 enumerates them.
type Kind string

const (
	// KindIO covers file read, stat, or directory walk failures.
	KindIO Kind = "io"
	// KindParse covers source that could not be parsed.
	KindParse Kind = "parse"
	// KindStore covers DB open, query, or transaction failures.
	KindStore Kind = "store"
	// KindInvariant covers internal consistency failures such as a
	// checksums blob whose length isn't a multiple of 4, or a baseline
	// required but missing on a non-skip code path.
	KindInvariant Kind = "invariant"
)

// EngineError is the engine's single error type, tagged with a Kind so
// callers can branch on errors.As without string matching.
type EngineError struct {
	Kind     Kind
	Message  string
	Resource string
	cause    error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.Resource != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Resource)
	}
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Unwrap returns the wrapped cause, enabling errors.Is/errors.As.
func (e *EngineError) Unwrap() error {
	return e.cause
}

func newErr(kind Kind, resource string, cause error, format string, args ...interface{}) *EngineError {
	return &EngineError{
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Resource: resource,
		cause:    cause,
	}
}

// IO creates a KindIO error.
func IO(resource string, cause error, format string, args ...interface{}) *EngineError {
	return newErr(KindIO, resource, cause, format, args...)
}

// Parse creates a KindParse error.
func Parse(resource string, cause error, format string, args ...interface{}) *EngineError {
	return newErr(KindParse, resource, cause, format, args...)
}

// Store creates a KindStore error.
func Store(cause error, format string, args ...interface{}) *EngineError {
	return newErr(KindStore, "", cause, format, args...)
}

// Invariant creates a KindInvariant error.
func Invariant(format string, args ...interface{}) *EngineError {
	return newErr(KindInvariant, "", nil, format, args...)
}

// Is reports whether err is an EngineError of the given kind.
func Is(err error, kind Kind) bool {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Kind == kind
	}
	return false
}
