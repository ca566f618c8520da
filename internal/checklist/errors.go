package checklist

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat marks a value that is not in the accepted format.
	ErrFormat = errors.New("invalid format")
	// ErrDuplicate marks a repeated experiment ID.
	ErrDuplicate = errors.New("duplicate experiment id")
	// ErrPrecondition blocks submission; the store is never invoked.
	ErrPrecondition = errors.New("submission precondition not met")
	// ErrPersistence wraps a store failure. The store's own error stays in the chain.
	ErrPersistence = errors.New("persistence failed")
	// ErrSubmitted is returned when a session is submitted a second time.
	ErrSubmitted = errors.New("session already submitted")
	// ErrUnknownQuestion marks an identifier that is not in the catalog.
	ErrUnknownQuestion = errors.New("unknown question")
	// ErrUnknownField marks an unrecognized metadata field.
	ErrUnknownField = errors.New("unknown metadata field")
)

// FieldError is an advisory problem with one metadata value. Err is
// ErrFormat or ErrDuplicate.
type FieldError struct {
	Field  Field
	Value  string
	Reason string
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func formatError(field Field, value, reason string) *FieldError {
	return &FieldError{Field: field, Value: value, Reason: reason, Err: ErrFormat}
}
