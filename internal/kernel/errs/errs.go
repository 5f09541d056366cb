// Package errs defines the engine's error taxonomy. It mirrors the shape
// of the teacher framework's HTTPError/ValidationErrors (a code, a
// message, and optional context) but keys errors to the domain kinds
// from the design's error handling section instead of HTTP status codes.
package errs

import "fmt"

// Kind enumerates the error taxonomy.
type Kind int

const (
	InvalidName Kind = iota
	InvalidState
	NotFound
	AlreadyExists
	TypeMismatch
	ConstraintViolation
	ParseError
	TxAlreadyActive
	TxNotActive
	TxMisuse
	IOError
)

func (k Kind) String() string {
	switch k {
	case InvalidName:
		return "invalid-name"
	case InvalidState:
		return "invalid-state"
	case NotFound:
		return "not-found"
	case AlreadyExists:
		return "already-exists"
	case TypeMismatch:
		return "type-mismatch"
	case ConstraintViolation:
		return "constraint-violation"
	case ParseError:
		return "parse-error"
	case TxAlreadyActive:
		return "tx-already-active"
	case TxNotActive:
		return "tx-not-active"
	case TxMisuse:
		return "tx-misuse"
	case IOError:
		return "io-error"
	default:
		return "unknown"
	}
}

// EngineError is the single error type surfaced by the kernel. It
// carries a Kind, a human-readable Message, optional structured Context
// for logging, and an optional wrapped cause.
type EngineError struct {
	Kind    Kind
	Message string
	Context map[string]interface{}
	Cause   error
}

func (e *EngineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause so callers can use errors.Is/As.
func (e *EngineError) Unwrap() error { return e.Cause }

// New builds an EngineError with no context and no cause.
func New(kind Kind, format string, args ...interface{}) *EngineError {
	return &EngineError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an EngineError that wraps an underlying cause, typically
// from a snapshot read/write failure.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *EngineError {
	return &EngineError{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// WithContext attaches structured context (e.g. table/column/constraint
// name) for the logger to emit alongside the message.
func (e *EngineError) WithContext(ctx map[string]interface{}) *EngineError {
	e.Context = ctx
	return e
}

// Is reports whether err is an EngineError of the given kind.
func Is(err error, kind Kind) bool {
	ee, ok := err.(*EngineError)
	return ok && ee.Kind == kind
}
