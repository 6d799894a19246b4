package telemetry

import (
	"errors"
	"fmt"
)

// ErrNotFound signals that no status or history exists for the requested
// device or window. It is an expected outcome, not a system fault, so
// callers can branch on it cheaply with errors.Is.
var ErrNotFound = errors.New("not found")

// PersistenceError wraps a store-level failure. Whenever it is returned the
// enclosing transaction has been rolled back and no partial write survives.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError wraps err with the failing operation name.
func NewPersistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}
