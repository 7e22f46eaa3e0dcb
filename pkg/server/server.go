package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/shell/pkg/middleware"
	"github.com/vango-dev/shell/pkg/protocol"
)

// TracerName is the default tracer name.
const TracerName = "github.com/vango-dev/shell/pkg/server"

// emptyUIDL is the initial UIDL of a new app. Views are bound later over
// the push connection, so there is nothing to render up front.
var emptyUIDL = json.RawMessage(`{}`)

// Server serves the init and push endpoints.
type Server struct {
	config    *ServerConfig
	binder    ViewBinder
	apps      *Apps
	upgrader  websocket.Upgrader
	router    chi.Router
	logger    *slog.Logger
	tracer    trace.Tracer
	registry  *prometheus.Registry
	namespace string
	metrics   *Metrics

	mu         sync.Mutex
	conns      map[*pushConn]struct{}
	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithTracer sets the tracer used for bind spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Server) {
		s.tracer = tracer
	}
}

// WithMetricsNamespace sets the namespace of the server metrics.
// Default: "shell".
func WithMetricsNamespace(namespace string) Option {
	return func(s *Server) {
		s.namespace = namespace
	}
}

// New creates a server. A nil config uses DefaultServerConfig; unset
// fields are filled with defaults.
func New(config *ServerConfig, binder ViewBinder, opts ...Option) *Server {
	config = config.withDefaults()
	if binder == nil {
		binder = NewRouteBinder()
	}

	s := &Server{
		config:    config,
		binder:    binder,
		apps:      NewApps(config.MaxApps),
		logger:    slog.Default().With("component", "server"),
		tracer:    otel.Tracer(TracerName),
		registry:  prometheus.NewRegistry(),
		namespace: "shell",
		conns:     make(map[*pushConn]struct{}),
	}
	s.upgrader = websocket.Upgrader{
		HandshakeTimeout: config.HandshakeTimeout,
		CheckOrigin:      config.CheckOrigin,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.metrics = NewMetrics(s.namespace, s.registry)
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.OpenTelemetry(middleware.WithTracerName(TracerName)))
	r.Use(middleware.Prometheus(
		middleware.WithNamespace(s.namespace),
		middleware.WithRegistry(s.registry)))

	r.Get("/"+protocol.InitPath, s.handleInit)
	r.Get("/"+protocol.PushPath, s.handlePush)
	if s.config.EnableMetrics {
		r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	return r
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Config returns the effective configuration.
func (s *Server) Config() *ServerConfig {
	return s.config
}

// Apps returns the app registry.
func (s *Server) Apps() *Apps {
	return s.apps
}

// Registry returns the Prometheus registry holding the server metrics.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// ConnectionCount returns the number of open push connections.
func (s *Server) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Expire ends the session of an app: the app is removed and each of its
// push connections gets a fatal SessionExpired error before it is closed.
// It reports whether the app existed.
func (s *Server) Expire(appID string) bool {
	if _, err := s.apps.Get(appID); err != nil {
		return false
	}
	s.apps.Remove(appID)

	s.mu.Lock()
	var conns []*pushConn
	for pc := range s.conns {
		if pc.app.ID == appID {
			conns = append(conns, pc)
		}
	}
	s.mu.Unlock()

	expired := protocol.NewFrame(protocol.FrameError, protocol.EncodeErrorMessage(
		protocol.NewFatalError(protocol.ErrSessionExpired, "session expired")))
	for _, pc := range conns {
		pc.send(expired)
		pc.close(websocket.CloseNormalClosure, "session expired")
	}
	s.logger.Info("app expired", "app_id", appID, "connections", len(conns))
	return true
}

func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get(protocol.RequestTypeParam) != protocol.RequestTypeInit {
		http.Error(w, "unsupported request type", http.StatusBadRequest)
		return
	}

	app, err := s.apps.Create(s.config.ProductionMode)
	if err != nil {
		s.metrics.appCreated("limit")
		s.logger.Warn("init rejected", "error", err)
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	s.metrics.appCreated("ok")
	s.logger.Info("app created", "app_id", app.ID)

	w.Header().Set("Content-Type", protocol.ContentTypeJSON+"; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(&protocol.AppConfig{
		ProductionMode: app.ProductionMode,
		AppID:          app.ID,
		UIDL:           emptyUIDL,
	})
}

// Run listens on the configured address and serves until ctx is done,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: s.config.HandshakeTimeout,
	}
	s.mu.Lock()
	s.httpServer = httpServer
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String())
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown closes every push connection and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")

	s.mu.Lock()
	conns := make([]*pushConn, 0, len(s.conns))
	for pc := range s.conns {
		conns = append(conns, pc)
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	for _, pc := range conns {
		pc.close(websocket.CloseGoingAway, "server shutdown")
	}

	if httpServer == nil {
		return nil
	}
	if err := httpServer.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) track(pc *pushConn) {
	s.mu.Lock()
	s.conns[pc] = struct{}{}
	s.mu.Unlock()
	s.metrics.connOpened()
}

func (s *Server) untrack(pc *pushConn) {
	s.mu.Lock()
	_, ok := s.conns[pc]
	delete(s.conns, pc)
	s.mu.Unlock()
	if ok {
		s.metrics.connClosed()
	}
}

func writeDeadline(d time.Duration) time.Time {
	if d <= 0 {
		return time.Time{}
	}
	return time.Now().Add(d)
}
