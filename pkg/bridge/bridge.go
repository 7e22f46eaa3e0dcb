// Package bridge defines how the shell asks the server to bind a view to
// a placeholder element.
package bridge

import (
	"context"
	"errors"
)

// ErrClosed is returned by a Bridge whose connection is gone.
var ErrClosed = errors.New("bridge: connection closed")

// Bridge asks the server to bind server-side view logic to an element.
//
// ConnectClient returns once the request is sent. The server signals
// readiness later, by having the runtime call ServerConnected on the
// element's document.
type Bridge interface {
	ConnectClient(ctx context.Context, tag, elementID, path string) error
}

// Provider is implemented by runtime modules that own a Bridge.
type Provider interface {
	// Bridge returns the module's bridge, or nil if it has none yet.
	Bridge() Bridge
}

// Func adapts a function to the Bridge interface.
type Func func(ctx context.Context, tag, elementID, path string) error

// ConnectClient calls f.
func (f Func) ConnectClient(ctx context.Context, tag, elementID, path string) error {
	return f(ctx, tag, elementID, path)
}
