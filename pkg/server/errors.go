package server

import (
	"errors"
	"fmt"
)

// Sentinel errors for common server error conditions.
var (
	// ErrAppNotFound is returned when an app id does not exist.
	ErrAppNotFound = errors.New("server: app not found")

	// ErrMaxAppsReached is returned when the maximum number of apps is reached.
	ErrMaxAppsReached = errors.New("server: max apps reached")

	// ErrViewNotFound is returned by a ViewBinder that has no view for a path.
	ErrViewNotFound = errors.New("server: no view for route")

	// ErrInvalidHandshake is returned when the WebSocket handshake fails.
	ErrInvalidHandshake = errors.New("server: invalid handshake")
)

// BindError wraps a ViewBinder failure with the request it concerned.
type BindError struct {
	AppID     string
	ElementID string
	Path      string
	Err       error
}

// Error returns the error message with app and element context.
func (e *BindError) Error() string {
	return fmt.Sprintf("server: app %s: bind %s to %s: %v", e.AppID, e.Path, e.ElementID, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *BindError) Unwrap() error {
	return e.Err
}
