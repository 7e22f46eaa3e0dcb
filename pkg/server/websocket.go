package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/shell/pkg/protocol"
)

// handlePush upgrades a push request and runs the connection until the
// client goes away.
func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("upgrade failed", "error", err)
		return
	}

	app, err := s.handshake(ws, r.URL.Query().Get(protocol.AppIDParam))
	if err != nil {
		s.logger.Warn("handshake failed", "error", err)
		ws.Close()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	pc := &pushConn{
		server: s,
		app:    app,
		ws:     ws,
		ctx:    ctx,
		cancel: cancel,
		logger: s.logger.With("app_id", app.ID),
	}
	s.track(pc)
	defer s.untrack(pc)

	if err := s.sendServerHello(ws, protocol.HandshakeOK, app.ID); err != nil {
		pc.logger.Warn("handshake write failed", "error", err)
		pc.close(websocket.CloseInternalServerErr, "handshake failed")
		return
	}
	ws.SetReadLimit(s.config.MaxMessageSize)

	pc.logger.Debug("push connection open")
	pc.run()
}

// handshake reads the ClientHello and returns the app it names. The app
// id must match the query parameter of the upgrade request. Rejections are
// answered here; the OK answer is left to the caller.
func (s *Server) handshake(ws *websocket.Conn, queryAppID string) (*App, error) {
	_ = ws.SetReadDeadline(time.Now().Add(s.config.HandshakeTimeout))

	_, msg, err := ws.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("%w: read: %v", ErrInvalidHandshake, err)
	}
	frame, err := protocol.DecodeFrame(msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHandshake, err)
	}
	if frame.Type != protocol.FrameHandshake {
		return nil, fmt.Errorf("%w: expected %v, got %v", ErrInvalidHandshake, protocol.FrameHandshake, frame.Type)
	}
	hello, err := protocol.DecodeClientHello(frame.Payload)
	if err != nil {
		s.sendServerHello(ws, protocol.HandshakeServerError, "")
		return nil, fmt.Errorf("%w: %v", ErrInvalidHandshake, err)
	}

	if hello.AppID != queryAppID {
		s.sendServerHello(ws, protocol.HandshakeUnknownApp, hello.AppID)
		return nil, fmt.Errorf("%w: app id mismatch", ErrInvalidHandshake)
	}
	app, err := s.apps.Get(hello.AppID)
	if err != nil {
		s.sendServerHello(ws, protocol.HandshakeUnknownApp, hello.AppID)
		return nil, err
	}

	_ = ws.SetReadDeadline(time.Time{})
	return app, nil
}

func (s *Server) sendServerHello(ws *websocket.Conn, status protocol.HandshakeStatus, appID string) error {
	frame := protocol.NewFrame(protocol.FrameHandshake,
		protocol.EncodeServerHello(&protocol.ServerHello{Status: status, AppID: appID}))
	data, err := frame.Encode()
	if err != nil {
		return err
	}
	_ = ws.SetWriteDeadline(writeDeadline(s.config.WriteTimeout))
	return ws.WriteMessage(websocket.BinaryMessage, data)
}

// pushConn is one open push connection. Connect requests are bound
// concurrently; writes are serialized.
type pushConn struct {
	server *Server
	app    *App
	ws     *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
	binds     sync.WaitGroup
}

func (pc *pushConn) run() {
	defer func() {
		pc.cancel()
		pc.binds.Wait()
		pc.ws.Close()
		pc.logger.Debug("push connection closed")
	}()

	if interval := pc.server.config.PingInterval; interval > 0 {
		go pc.pingLoop(interval)
	}

	for {
		_, msg, err := pc.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				pc.logger.Warn("push read failed", "error", err)
			}
			return
		}
		frame, err := protocol.DecodeFrame(msg)
		if err != nil {
			pc.send(protocol.NewFrame(protocol.FrameError, protocol.EncodeErrorMessage(
				protocol.NewError(protocol.ErrInvalidFrame, err.Error()))))
			continue
		}
		pc.handleFrame(frame)
	}
}

func (pc *pushConn) handleFrame(frame *protocol.Frame) {
	switch frame.Type {
	case protocol.FrameConnect:
		req, err := protocol.DecodeConnect(frame.Payload)
		if err != nil {
			pc.send(protocol.NewFrame(protocol.FrameError, protocol.EncodeErrorMessage(
				protocol.NewError(protocol.ErrInvalidConnect, err.Error()))))
			return
		}
		pc.binds.Add(1)
		go func() {
			defer pc.binds.Done()
			pc.bind(req)
		}()

	case protocol.FrameControl:
		ct, err := protocol.DecodeControl(frame.Payload)
		if err != nil {
			return
		}
		if ct == protocol.ControlPing {
			pc.send(protocol.NewFrame(protocol.FrameControl, protocol.EncodeControl(protocol.ControlPong)))
		}

	default:
		pc.logger.Debug("ignoring frame", "type", frame.Type)
	}
}

// bind hands a Connect request to the ViewBinder and reports the outcome
// to the client.
func (pc *pushConn) bind(req *protocol.Connect) {
	s := pc.server
	ctx, span := s.tracer.Start(pc.ctx, "server.bind", trace.WithAttributes(
		attribute.String("shell.app_id", pc.app.ID),
		attribute.String("shell.element_id", req.ElementID),
		attribute.String("shell.path", req.Path),
	))
	defer span.End()

	began := time.Now()
	err := s.binder.Bind(ctx, &Binding{
		AppID:     pc.app.ID,
		Tag:       req.Tag,
		ElementID: req.ElementID,
		Path:      req.Path,
	})
	elapsed := time.Since(began)

	if err != nil {
		bindErr := &BindError{AppID: pc.app.ID, ElementID: req.ElementID, Path: req.Path, Err: err}
		span.RecordError(bindErr)
		span.SetStatus(codes.Error, bindErr.Error())

		code, result := protocol.ErrServerError, "error"
		switch {
		case errors.Is(err, ErrViewNotFound):
			code, result = protocol.ErrNotFound, "not_found"
		case errors.Is(err, ErrInvalidRoute):
			code, result = protocol.ErrInvalidConnect, "invalid"
		}
		s.metrics.bound(result, elapsed)
		pc.logger.Info("bind failed", "element_id", req.ElementID, "path", req.Path, "error", err)
		pc.send(protocol.NewFrame(protocol.FrameError, protocol.EncodeErrorMessage(
			protocol.NewElementError(code, req.ElementID, clipMessage(err.Error())))))
		return
	}

	s.metrics.bound("ok", elapsed)
	pc.logger.Debug("view bound", "element_id", req.ElementID, "path", req.Path, "elapsed", elapsed)
	pc.send(protocol.NewFrame(protocol.FrameReady,
		protocol.EncodeReady(&protocol.Ready{ElementID: req.ElementID})))
}

func (pc *pushConn) pingLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-pc.ctx.Done():
			return
		case <-ticker.C:
			pc.send(protocol.NewFrame(protocol.FrameControl, protocol.EncodeControl(protocol.ControlPing)))
		}
	}
}

func (pc *pushConn) send(frame *protocol.Frame) {
	data, err := frame.Encode()
	if err != nil {
		pc.logger.Warn("push frame not sent", "type", frame.Type, "error", err)
		return
	}

	pc.writeMu.Lock()
	defer pc.writeMu.Unlock()

	_ = pc.ws.SetWriteDeadline(writeDeadline(pc.server.config.WriteTimeout))
	if err := pc.ws.WriteMessage(websocket.BinaryMessage, data); err != nil {
		pc.logger.Debug("push write failed", "type", frame.Type, "error", err)
	}
}

// close sends a close message and closes the socket, which ends run.
func (pc *pushConn) close(code int, reason string) {
	pc.closeOnce.Do(func() {
		pc.writeMu.Lock()
		_ = pc.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason), writeDeadline(pc.server.config.WriteTimeout))
		pc.writeMu.Unlock()
		pc.cancel()
		pc.ws.Close()
	})
}

// maxErrorMessage bounds the message of an element Error frame so the
// frame stays encodable whatever path the client sent.
const maxErrorMessage = 1024

func clipMessage(msg string) string {
	if len(msg) <= maxErrorMessage {
		return msg
	}
	cut := maxErrorMessage
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut] + "..."
}
