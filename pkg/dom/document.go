package dom

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync"
)

// Document owns the placeholder elements of one shell instance.
// It is safe for concurrent use.
type Document struct {
	mu       sync.Mutex
	elements map[string]*Element
	counter  uint64
	logger   *slog.Logger
}

// Option configures a Document.
type Option func(*Document)

// WithLogger sets the logger used for element traces.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Document) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDocument creates an empty document.
func NewDocument(opts ...Option) *Document {
	d := &Document{
		logger: slog.Default().With("component", "dom"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// CreateElement allocates a fresh element for tag, registers it and
// returns it. The id is "{tag}-{n}" where n is the document-wide counter;
// the counter is shared by all tags, so every call yields a new id.
func (d *Document) CreateElement(tag, path string) *Element {
	d.mu.Lock()
	if d.elements == nil {
		d.elements = make(map[string]*Element)
	}
	id := tag + "-" + strconv.FormatUint(d.counter, 10)
	d.counter++
	el := &Element{Tag: tag, ID: id, Path: path}
	d.elements[id] = el
	d.mu.Unlock()

	d.logger.Debug("created new element for a view", "id", id, "path", path)
	return el
}

// Lookup returns the element registered under id.
func (d *Document) Lookup(id string) (*Element, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, ok := d.elements[id]
	return el, ok
}

// Len returns the number of registered elements.
func (d *Document) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.elements)
}

// Counter returns the next id sequence number.
func (d *Document) Counter() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.counter
}

// ServerConnected signals readiness of the element registered under id.
func (d *Document) ServerConnected(id string) error {
	el, ok := d.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrElementNotFound, id)
	}
	if !el.ServerConnected() {
		return fmt.Errorf("%w: %q", ErrNotAwaiting, id)
	}
	return nil
}

// Fail rejects the element registered under id with cause.
func (d *Document) Fail(id string, cause error) error {
	el, ok := d.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrElementNotFound, id)
	}
	if !el.Fail(cause) {
		return fmt.Errorf("%w: %q", ErrNotAwaiting, id)
	}
	return nil
}
