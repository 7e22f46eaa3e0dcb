package bootstrap

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrPrecondition matches every *PreconditionError.
	ErrPrecondition = errors.New("bootstrap: precondition violated")

	// ErrNoBridge is wrapped by the PreconditionError returned when no
	// server bridge is available at navigation time.
	ErrNoBridge = errors.New("bootstrap: no server bridge available")

	// ErrImports wraps the error returned by Config.Imports.
	ErrImports = errors.New("bootstrap: imports hook failed")
)

// PreconditionError reports an operation that cannot proceed because the
// shell is missing something it requires.
type PreconditionError struct {
	Op  string
	Err error
}

// Error returns the error message with the failing operation.
func (e *PreconditionError) Error() string {
	return fmt.Sprintf("bootstrap: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *PreconditionError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrPrecondition.
func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}
