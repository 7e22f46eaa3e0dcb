package activation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vango-dev/shell/pkg/dom"
	"github.com/vango-dev/shell/pkg/session"
)

// DefaultInterval is the default polling interval.
const DefaultInterval = 5 * time.Millisecond

// Activator loads and activates a runtime module.
type Activator struct {
	loader   Loader
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

// Option configures an Activator.
type Option func(*Activator)

// WithInterval sets the polling interval. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(a *Activator) {
		if d > 0 {
			a.interval = d
		}
	}
}

// WithTimeout bounds how long Wait polls. Zero means wait forever.
func WithTimeout(d time.Duration) Option {
	return func(a *Activator) {
		if d >= 0 {
			a.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Activator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates an Activator that obtains its module from loader.
func New(loader Loader, opts ...Option) *Activator {
	a := &Activator{
		loader:   loader,
		interval: DefaultInterval,
		logger:   slog.Default().With("component", "activation"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Interval returns the polling interval.
func (a *Activator) Interval() time.Duration { return a.interval }

// Timeout returns the polling timeout, zero if unbounded.
func (a *Activator) Timeout() time.Duration { return a.timeout }

// Activate loads the module, applies the session to it, starts its
// activation and waits until no client is initializing. The steps run in
// that order and stop at the first failure.
func (a *Activator) Activate(ctx context.Context, sess *session.Session, doc *dom.Document) (Module, error) {
	if a.loader == nil {
		return nil, &ModuleError{Op: "load", Err: errors.New("no loader configured")}
	}
	m, err := a.loader(ctx)
	if err != nil {
		return nil, &ModuleError{Op: "load", Err: err}
	}
	if m == nil {
		return nil, &ModuleError{Op: "load", Err: errors.New("loader returned no module")}
	}

	if err := m.ApplyBootstrap(ctx, sess, doc); err != nil {
		return nil, &ModuleError{Op: "bootstrap", Err: err}
	}
	if err := m.Init(); err != nil {
		return nil, &ModuleError{Op: "init", Err: err}
	}

	if err := a.Wait(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Wait polls m until none of its clients is initializing. The first check
// happens on the first tick, not immediately.
func (a *Activator) Wait(ctx context.Context, m Module) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	var deadline <-chan time.Time
	if a.timeout > 0 {
		timer := time.NewTimer(a.timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	start := time.Now()
	ticks := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return fmt.Errorf("%w after %s (%d polls)", ErrActivationTimeout, a.timeout, ticks)
		case <-ticker.C:
			ticks++
			if !anyInitializing(m.Clients()) {
				a.logger.Debug("runtime activated",
					"polls", ticks,
					"elapsed", time.Since(start))
				return nil
			}
		}
	}
}

func anyInitializing(clients []Client) bool {
	for _, c := range clients {
		if c != nil && c.Initializing() {
			return true
		}
	}
	return false
}
