package client

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/shell/pkg/activation"
	"github.com/vango-dev/shell/pkg/bridge"
	"github.com/vango-dev/shell/pkg/dom"
	"github.com/vango-dev/shell/pkg/protocol"
	"github.com/vango-dev/shell/pkg/session"
)

// Runtime errors.
var (
	// ErrNotBootstrapped is returned by Init before ApplyBootstrap.
	ErrNotBootstrapped = errors.New("client: runtime not bootstrapped")

	// ErrInvalidSession is returned by ApplyBootstrap for a session
	// without an app id.
	ErrInvalidSession = errors.New("client: session has no app id")
)

// Default timeouts.
const (
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultWriteTimeout     = 10 * time.Second
)

// Runtime is a WebSocket client runtime. It is safe for concurrent use.
type Runtime struct {
	dialer       *websocket.Dialer
	header       http.Header
	writeTimeout time.Duration
	logger       *slog.Logger

	mu    sync.Mutex
	sess  *session.Session
	doc   *dom.Document
	conns []*Conn
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithDialer sets the WebSocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(r *Runtime) {
		if d != nil {
			r.dialer = d
		}
	}
}

// WithHeader sets extra headers sent with the WebSocket upgrade request.
func WithHeader(h http.Header) Option {
	return func(r *Runtime) {
		r.header = h.Clone()
	}
}

// WithWriteTimeout bounds writes that carry no context deadline.
func WithWriteTimeout(d time.Duration) Option {
	return func(r *Runtime) {
		if d > 0 {
			r.writeTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a Runtime.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: DefaultHandshakeTimeout,
		},
		writeTimeout: DefaultWriteTimeout,
		logger:       slog.Default().With("component", "client"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Loader returns an activation.Loader yielding r.
func (r *Runtime) Loader() activation.Loader {
	return activation.Static(r)
}

// ApplyBootstrap records the session and the document served by the
// connections Init opens.
func (r *Runtime) ApplyBootstrap(ctx context.Context, sess *session.Session, doc *dom.Document) error {
	if sess == nil || sess.AppID == "" {
		return ErrInvalidSession
	}
	if doc == nil {
		return errors.New("client: nil document")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sess = sess
	r.doc = doc
	return nil
}

// Init opens a push connection in the background and returns at once.
// The connection reports Initializing until its handshake finishes.
func (r *Runtime) Init() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sess == nil {
		return ErrNotBootstrapped
	}

	pushURL, err := PushURL(r.sess)
	if err != nil {
		return err
	}

	c := newConn(r.sess.AppID, pushURL, r.doc, r.writeTimeout, r.logger)
	r.conns = append(r.conns, c)
	go c.open(r.dialer, r.header)
	return nil
}

// Clients returns the runtime's connections.
func (r *Runtime) Clients() []activation.Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	clients := make([]activation.Client, len(r.conns))
	for i, c := range r.conns {
		clients[i] = c
	}
	return clients
}

// Bridge returns the first open connection, or nil if none is open.
func (r *Runtime) Bridge() bridge.Bridge {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.conns {
		if c.Open() {
			return c
		}
	}
	return nil
}

// Close closes every connection.
func (r *Runtime) Close() error {
	r.mu.Lock()
	conns := r.conns
	r.conns = nil
	r.mu.Unlock()

	var errs []error
	for _, c := range conns {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PushURL returns the WebSocket URL of the push endpoint for sess.
func PushURL(sess *session.Session) (string, error) {
	u, err := sess.ResolveReference(protocol.PushPath)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http", "":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	q := url.Values{}
	q.Set(protocol.AppIDParam, sess.AppID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
