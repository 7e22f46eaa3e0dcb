package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Binding is a request to attach the view for Path to a client element.
type Binding struct {
	AppID     string
	Tag       string
	ElementID string
	Path      string
}

// ViewBinder attaches server-side views to client placeholder elements.
// Bind returns nil once the view owns the element; the server then tells
// the client the element is ready.
type ViewBinder interface {
	Bind(ctx context.Context, b *Binding) error
}

// BinderFunc adapts a function to ViewBinder.
type BinderFunc func(ctx context.Context, b *Binding) error

// Bind calls f(ctx, b).
func (f BinderFunc) Bind(ctx context.Context, b *Binding) error {
	return f(ctx, b)
}

// RouteBinder binds every path that matches one of its route patterns.
// Patterns use chi syntax ("users/{id}", "docs/*"). Paths are matched in
// their CanonicalRoute form, so "main/users", "/main/users/" and
// "main/./users" are the same route.
type RouteBinder struct {
	mux      *chi.Mux
	patterns []string
}

// NewRouteBinder creates a RouteBinder for the given patterns.
func NewRouteBinder(patterns ...string) *RouteBinder {
	rb := &RouteBinder{mux: chi.NewRouter()}
	for _, p := range patterns {
		rb.Add(p)
	}
	return rb
}

// Add registers another route pattern.
func (rb *RouteBinder) Add(pattern string) {
	pattern = routePath(pattern)
	rb.mux.Get(pattern, http.NotFound)
	rb.patterns = append(rb.patterns, pattern)
}

// Patterns returns the registered patterns in registration order.
func (rb *RouteBinder) Patterns() []string {
	out := make([]string, len(rb.patterns))
	copy(out, rb.patterns)
	return out
}

// Match reports whether path matches a registered pattern. Invalid paths
// match nothing.
func (rb *RouteBinder) Match(path string) bool {
	route, err := CanonicalRoute(path)
	if err != nil {
		return false
	}
	return rb.mux.Match(chi.NewRouteContext(), http.MethodGet, route)
}

// Bind implements ViewBinder.
func (rb *RouteBinder) Bind(_ context.Context, b *Binding) error {
	route, err := CanonicalRoute(b.Path)
	if err != nil {
		return err
	}
	if !rb.mux.Match(chi.NewRouteContext(), http.MethodGet, route) {
		return ErrViewNotFound
	}
	return nil
}

func routePath(p string) string {
	return "/" + strings.TrimPrefix(p, "/")
}
