package dispatch

import (
	"errors"
	"fmt"
)

// ErrorType classifies a failed dispatch.
type ErrorType string

const (
	ErrorTypeAdapterMiss ErrorType = "adapter_miss"
	ErrorTypeInvocation  ErrorType = "invocation"
	ErrorTypeRender      ErrorType = "render"
)

// Error is returned by Dispatch when a request reaches the FAILED state.
// Cause is the original error; errors.Unwrap returns it unchanged.
type Error struct {
	Type   ErrorType `json:"type"`
	State  State     `json:"state"`
	Method string    `json:"method"`
	Path   string    `json:"path"`
	Cause  error     `json:"-"`

	// Fatal marks a failure to render the not-found fallback.
	Fatal bool `json:"fatal"`
}

func (e *Error) Error() string {
	if e == nil {
		return "unknown dispatch error"
	}
	msg := fmt.Sprintf("[%s] %s %s failed in %s", e.Type, e.Method, e.Path, e.State)
	if e.Fatal {
		msg += " (fatal)"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// PanicError is the cause recorded when a handler panics.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// IsType reports whether err is a dispatch Error of type t.
func IsType(err error, t ErrorType) bool {
	var de *Error
	return errors.As(err, &de) && de.Type == t
}

// IsFatal reports whether err is a fatal dispatch Error.
func IsFatal(err error) bool {
	var de *Error
	return errors.As(err, &de) && de.Fatal
}
