package activation

import (
	"context"

	"github.com/vango-dev/shell/pkg/dom"
	"github.com/vango-dev/shell/pkg/session"
)

// Client is one client instance created by a runtime module.
type Client interface {
	// Initializing reports true while the instance is still activating.
	Initializing() bool
}

// Module is a client runtime.
type Module interface {
	// ApplyBootstrap hands the module the session parameters and the
	// document it will serve.
	ApplyBootstrap(ctx context.Context, sess *session.Session, doc *dom.Document) error

	// Init starts activation. It must not block until activation is done;
	// progress is observed through Clients.
	Init() error

	// Clients returns the module's current client instances.
	Clients() []Client
}

// Loader obtains a runtime module.
type Loader func(ctx context.Context) (Module, error)

// Static returns a Loader that always yields m.
func Static(m Module) Loader {
	return func(context.Context) (Module, error) {
		return m, nil
	}
}
