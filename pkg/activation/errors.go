package activation

import (
	"errors"
	"fmt"
)

// ErrActivationTimeout is returned when clients are still initializing
// after the configured timeout.
var ErrActivationTimeout = errors.New("activation: runtime did not finish initializing")

// ModuleError wraps a failure reported by the runtime module.
type ModuleError struct {
	Op  string // load, bootstrap or init
	Err error
}

// Error returns the error message with the failing step.
func (e *ModuleError) Error() string {
	return fmt.Sprintf("activation: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *ModuleError) Unwrap() error {
	return e.Err
}
