package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/vango-dev/shell/pkg/activation"
	"github.com/vango-dev/shell/pkg/bridge"
	"github.com/vango-dev/shell/pkg/dom"
	"github.com/vango-dev/shell/pkg/session"
)

// TracerName is the default tracer name.
const TracerName = "github.com/vango-dev/shell/pkg/bootstrap"

const startKey = "start"

// SessionInitializer creates the server-side UI session.
// *session.Initializer implements it.
type SessionInitializer interface {
	Initialize(ctx context.Context) (*session.Session, error)
}

// RuntimeActivator loads and activates the client runtime.
// *activation.Activator implements it.
type RuntimeActivator interface {
	Activate(ctx context.Context, sess *session.Session, doc *dom.Document) (activation.Module, error)
}

// Config holds optional Bootstrapper settings. The zero value is usable.
type Config struct {
	// Imports is run once, after runtime activation, so the embedding
	// application can register its own modules. Nil means no-op.
	Imports func(ctx context.Context) error

	// Bridge is the server bridge used by Navigate. When nil, the runtime
	// module's bridge is used if it implements bridge.Provider.
	Bridge bridge.Bridge

	// Document receives the placeholder elements. Default: a new Document.
	Document *dom.Document

	// Logger is used as given, also for the default Document.
	// Default: slog.Default() with component=bootstrap.
	Logger *slog.Logger

	// Metrics records Prometheus metrics. Nil records nothing.
	Metrics *Metrics

	// Tracer creates spans for Start and Navigate.
	// Default: otel.Tracer(TracerName).
	Tracer trace.Tracer
}

// Bootstrapper initializes the shell once and navigates to server views.
// It is safe for concurrent use.
type Bootstrapper struct {
	initializer SessionInitializer
	activator   RuntimeActivator
	imports     func(ctx context.Context) error
	bridge      bridge.Bridge
	doc         *dom.Document
	logger      *slog.Logger
	metrics     *Metrics
	tracer      trace.Tracer

	group singleflight.Group

	mu      sync.Mutex
	state   State
	session *session.Session
	module  activation.Module
}

// New creates a Bootstrapper. cfg may be nil.
func New(initializer SessionInitializer, activator RuntimeActivator, cfg *Config) *Bootstrapper {
	if cfg == nil {
		cfg = &Config{}
	}
	b := &Bootstrapper{
		initializer: initializer,
		activator:   activator,
		imports:     cfg.Imports,
		bridge:      cfg.Bridge,
		doc:         cfg.Document,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
		tracer:      cfg.Tracer,
	}
	if b.logger == nil {
		b.logger = slog.Default().With("component", "bootstrap")
	}
	if b.doc == nil {
		b.doc = dom.NewDocument(dom.WithLogger(b.logger))
	}
	if b.tracer == nil {
		b.tracer = otel.Tracer(TracerName)
	}
	return b
}

// State returns the current lifecycle state.
func (b *Bootstrapper) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Session returns the session, or nil before the Bootstrapper has started.
func (b *Bootstrapper) Session() *session.Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session
}

// Module returns the activated runtime module, or nil before start.
func (b *Bootstrapper) Module() activation.Module {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.module
}

// Document returns the document holding the placeholder elements.
func (b *Bootstrapper) Document() *dom.Document {
	return b.doc
}

// Start initializes the session, activates the runtime and runs the
// Imports hook, once. Calls made while a run is in flight wait for that
// run; calls made after it succeeded return its Session immediately.
//
// ctx bounds only how long this caller waits. The shared run itself is
// not cancelled when a caller gives up.
func (b *Bootstrapper) Start(ctx context.Context) (*session.Session, error) {
	if sess := b.Session(); sess != nil {
		b.metrics.recordStart("cached", 0)
		return sess, nil
	}

	ch := b.group.DoChan(startKey, func() (any, error) {
		return b.start(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*session.Session), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *Bootstrapper) start(ctx context.Context) (*session.Session, error) {
	b.mu.Lock()
	if b.state == StateStarted {
		sess := b.session
		b.mu.Unlock()
		b.metrics.recordStart("cached", 0)
		return sess, nil
	}
	b.state = StateStarting
	b.mu.Unlock()

	ctx, span := b.tracer.Start(ctx, "shell.start")
	defer span.End()

	began := time.Now()
	b.logger.Debug("starting")

	sess, module, err := b.run(ctx)
	elapsed := time.Since(began)

	b.mu.Lock()
	if err != nil {
		b.state = StateNotStarted
		b.mu.Unlock()

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		b.metrics.recordStart("error", elapsed)
		b.logger.Warn("start failed", "error", err, "elapsed", elapsed)
		return nil, err
	}
	b.session = sess
	b.module = module
	b.state = StateStarted
	b.mu.Unlock()

	span.SetAttributes(
		attribute.String("shell.app_id", sess.AppID),
		attribute.Bool("shell.production", sess.ProductionMode),
	)
	b.metrics.recordStart("ok", elapsed)
	b.logger.Info("started",
		"app_id", sess.AppID,
		"production", sess.ProductionMode,
		"elapsed", elapsed)
	return sess, nil
}

// run performs the three start steps in order.
func (b *Bootstrapper) run(ctx context.Context) (*session.Session, activation.Module, error) {
	sess, err := b.initializer.Initialize(ctx)
	if err != nil {
		return nil, nil, err
	}

	module, err := b.activator.Activate(ctx, sess, b.doc)
	if err != nil {
		return nil, nil, err
	}

	if b.imports != nil {
		if err := b.imports(ctx); err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrImports, err)
		}
	}
	return sess, module, nil
}

// serverBridge returns the bridge Navigate should use, or nil.
func (b *Bootstrapper) serverBridge() bridge.Bridge {
	if b.bridge != nil {
		return b.bridge
	}
	if p, ok := b.Module().(bridge.Provider); ok {
		return p.Bridge()
	}
	return nil
}

// Navigate starts the Bootstrapper if needed, creates a placeholder
// element for path and returns it once the server has bound its view.
//
// It fails with a *PreconditionError when no bridge is available, and
// with the server's error when the server rejects the element. ctx bounds
// the wait; an abandoned element stays registered.
func (b *Bootstrapper) Navigate(ctx context.Context, path string) (*dom.Element, error) {
	if _, err := b.Start(ctx); err != nil {
		return nil, err
	}

	ctx, span := b.tracer.Start(ctx, "shell.navigate",
		trace.WithAttributes(attribute.String("shell.path", path)))
	defer span.End()

	br := b.serverBridge()
	if br == nil {
		err := &PreconditionError{Op: "navigate", Err: ErrNoBridge}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		b.metrics.navigationRejected("precondition")
		return nil, err
	}

	tag := dom.TagFor(path)
	el := b.doc.CreateElement(tag, path)
	span.SetAttributes(attribute.String("shell.element_id", el.ID))

	ready := make(chan error, 1)
	el.SetServerConnected(func(err error) {
		ready <- err
	})

	began := time.Now()
	b.metrics.navigationStarted()

	fail := func(err error) (*dom.Element, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		b.metrics.navigationDone("error", time.Since(began))
		return nil, err
	}

	if err := br.ConnectClient(ctx, tag, el.ID, path); err != nil {
		return fail(fmt.Errorf("bootstrap: connect %s: %w", el.ID, err))
	}

	select {
	case err := <-ready:
		if err != nil {
			return fail(fmt.Errorf("bootstrap: navigate %s: %w", el.ID, err))
		}
	case <-ctx.Done():
		return fail(ctx.Err())
	}

	b.metrics.navigationDone("ok", time.Since(began))
	b.logger.Debug("view ready", "id", el.ID, "path", path)
	return el, nil
}
