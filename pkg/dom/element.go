package dom

import (
	"errors"
	"sync"
)

// Element errors.
var (
	// ErrElementNotFound is returned when no element is registered under an id.
	ErrElementNotFound = errors.New("dom: element not found")

	// ErrNotAwaiting is returned when an element has no readiness callback
	// installed, or its callback already fired.
	ErrNotAwaiting = errors.New("dom: element is not awaiting the server")
)

// Element is a placeholder for one navigated view.
type Element struct {
	// Tag is the element name derived from Path by TagFor.
	Tag string

	// ID is unique within the owning Document.
	ID string

	// Path is the route the element was created for.
	Path string

	mu        sync.Mutex
	onConnect func(err error)
	fired     bool
	err       error
}

// SetServerConnected installs the callback run when the server reports
// the view bound to this element. A nil err means the view is ready.
// Installing a callback after one has fired has no effect.
func (e *Element) SetServerConnected(fn func(err error)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fired {
		return
	}
	e.onConnect = fn
}

// ServerConnected runs the readiness callback. It reports false if no
// callback is installed or the callback already ran.
func (e *Element) ServerConnected() bool {
	return e.fire(nil)
}

// Fail runs the readiness callback with cause instead of signalling
// readiness. It reports false under the same conditions as ServerConnected.
func (e *Element) Fail(cause error) bool {
	if cause == nil {
		cause = errors.New("dom: view binding failed")
	}
	return e.fire(cause)
}

// Connected reports whether the server signalled readiness.
func (e *Element) Connected() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fired && e.err == nil
}

// Err returns the failure passed to Fail, if any.
func (e *Element) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

func (e *Element) fire(err error) bool {
	e.mu.Lock()
	if e.fired || e.onConnect == nil {
		e.mu.Unlock()
		return false
	}
	fn := e.onConnect
	e.onConnect = nil
	e.fired = true
	e.err = err
	e.mu.Unlock()

	fn(err)
	return true
}
