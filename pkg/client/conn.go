package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/shell/pkg/bridge"
	"github.com/vango-dev/shell/pkg/dom"
	"github.com/vango-dev/shell/pkg/protocol"
)

// ErrHandshakeRejected is returned when the server refuses the push
// handshake.
var ErrHandshakeRejected = errors.New("client: handshake rejected")

// Conn is one push connection. It implements activation.Client and
// bridge.Bridge.
type Conn struct {
	appID        string
	url          string
	doc          *dom.Document
	writeTimeout time.Duration
	logger       *slog.Logger

	initializing atomic.Bool
	done         chan struct{}
	closeOnce    sync.Once

	writeMu sync.Mutex
	ws      *websocket.Conn

	mu      sync.Mutex
	err     error
	pending map[string]struct{}
}

func newConn(appID, url string, doc *dom.Document, writeTimeout time.Duration, logger *slog.Logger) *Conn {
	c := &Conn{
		appID:        appID,
		url:          url,
		doc:          doc,
		writeTimeout: writeTimeout,
		logger:       logger.With("app_id", appID),
		done:         make(chan struct{}),
		pending:      make(map[string]struct{}),
	}
	c.initializing.Store(true)
	return c
}

// Initializing reports true until the handshake succeeded or failed.
func (c *Conn) Initializing() bool {
	return c.initializing.Load()
}

// Open reports whether the handshake succeeded and the connection is
// still up.
func (c *Conn) Open() bool {
	if c.Initializing() {
		return false
	}
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// Err returns why the connection failed or closed, if it did.
func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Done is closed when the connection is closed.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// open dials and performs the handshake, then runs the read loop.
func (c *Conn) open(dialer *websocket.Dialer, header http.Header) {
	ws, err := c.handshake(dialer, header)
	if err != nil {
		c.logger.Error("push connection failed", "url", c.url, "error", err)
		c.shutdown(err)
		c.initializing.Store(false)
		return
	}

	c.writeMu.Lock()
	select {
	case <-c.done:
		// Closed while dialing.
		c.writeMu.Unlock()
		_ = ws.Close()
		c.initializing.Store(false)
		c.logger.Debug("push connection closed before use", "url", c.url)
		return
	default:
	}
	c.ws = ws
	c.writeMu.Unlock()
	c.initializing.Store(false)
	c.logger.Debug("push connection open", "url", c.url)

	c.readLoop(ws)
}

func (c *Conn) handshake(dialer *websocket.Dialer, header http.Header) (*websocket.Conn, error) {
	ws, _, err := dialer.Dial(c.url, header)
	if err != nil {
		return nil, fmt.Errorf("client: dial: %w", err)
	}

	deadline := time.Now().Add(dialer.HandshakeTimeout)
	if dialer.HandshakeTimeout <= 0 {
		deadline = time.Now().Add(DefaultHandshakeTimeout)
	}
	_ = ws.SetWriteDeadline(deadline)
	_ = ws.SetReadDeadline(deadline)

	hello, err := protocol.NewFrame(protocol.FrameHandshake,
		protocol.EncodeClientHello(&protocol.ClientHello{AppID: c.appID})).Encode()
	if err != nil {
		ws.Close()
		return nil, fmt.Errorf("client: handshake: %w", err)
	}
	if err := ws.WriteMessage(websocket.BinaryMessage, hello); err != nil {
		ws.Close()
		return nil, fmt.Errorf("client: handshake write: %w", err)
	}

	_, msg, err := ws.ReadMessage()
	if err != nil {
		ws.Close()
		return nil, fmt.Errorf("client: handshake read: %w", err)
	}
	frame, err := protocol.DecodeFrame(msg)
	if err != nil {
		ws.Close()
		return nil, fmt.Errorf("client: handshake frame decode: %w", err)
	}
	if frame.Type != protocol.FrameHandshake {
		ws.Close()
		return nil, fmt.Errorf("client: handshake: expected %v, got %v", protocol.FrameHandshake, frame.Type)
	}
	sh, err := protocol.DecodeServerHello(frame.Payload)
	if err != nil {
		ws.Close()
		return nil, fmt.Errorf("client: handshake server hello decode: %w", err)
	}
	if sh.Status != protocol.HandshakeOK {
		ws.Close()
		return nil, fmt.Errorf("%w: %s", ErrHandshakeRejected, sh.Status)
	}

	_ = ws.SetWriteDeadline(time.Time{})
	_ = ws.SetReadDeadline(time.Time{})
	return ws, nil
}

// ConnectClient asks the server to bind path to the element elementID.
// A request too large for one frame fails with protocol.ErrFrameTooLarge
// and leaves the connection usable.
func (c *Conn) ConnectClient(ctx context.Context, tag, elementID, path string) error {
	if !c.Open() {
		return closedError(c.Err())
	}

	frame := protocol.NewFrame(protocol.FrameConnect,
		protocol.EncodeConnect(&protocol.Connect{Tag: tag, ElementID: elementID, Path: path}))
	data, err := frame.Encode()
	if err != nil {
		return fmt.Errorf("client: connect %s: %w", elementID, err)
	}

	c.mu.Lock()
	c.pending[elementID] = struct{}{}
	c.mu.Unlock()

	if err := c.write(ctx, frame.Type, data); err != nil {
		c.mu.Lock()
		delete(c.pending, elementID)
		c.mu.Unlock()
		return err
	}
	return nil
}

// write sends one encoded frame of type ft.
func (c *Conn) write(ctx context.Context, ft protocol.FrameType, data []byte) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.writeTimeout)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.ws == nil {
		return bridge.ErrClosed
	}
	_ = c.ws.SetWriteDeadline(deadline)
	if err := c.ws.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("client: write %v: %w", ft, err)
	}
	return nil
}

func (c *Conn) readLoop(ws *websocket.Conn) {
	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				err = bridge.ErrClosed
			}
			c.shutdown(err)
			return
		}

		frame, err := protocol.DecodeFrame(msg)
		if err != nil {
			c.logger.Warn("invalid frame", "error", err)
			continue
		}
		c.handleFrame(frame)
	}
}

func (c *Conn) handleFrame(frame *protocol.Frame) {
	switch frame.Type {
	case protocol.FrameReady:
		ready, err := protocol.DecodeReady(frame.Payload)
		if err != nil {
			c.logger.Warn("invalid ready frame", "error", err)
			return
		}
		c.settle(ready.ElementID)
		if err := c.doc.ServerConnected(ready.ElementID); err != nil {
			c.logger.Warn("ready for unknown element", "id", ready.ElementID, "error", err)
		}

	case protocol.FrameError:
		em, err := protocol.DecodeErrorMessage(frame.Payload)
		if err != nil {
			c.logger.Warn("invalid error frame", "error", err)
			return
		}
		if em.ElementID != "" {
			c.settle(em.ElementID)
			if err := c.doc.Fail(em.ElementID, em); err != nil {
				c.logger.Warn("error for unknown element", "id", em.ElementID, "error", err)
			}
		}
		if em.Fatal {
			c.logger.Error("fatal server error", "error", em)
			c.shutdown(em)
		}

	case protocol.FrameControl:
		ct, err := protocol.DecodeControl(frame.Payload)
		if err != nil {
			return
		}
		if ct == protocol.ControlPing {
			pong, _ := protocol.NewFrame(protocol.FrameControl, protocol.EncodeControl(protocol.ControlPong)).Encode()
			if err := c.write(context.Background(), protocol.FrameControl, pong); err != nil {
				c.logger.Warn("pong failed", "error", err)
			}
		}

	default:
		c.logger.Debug("ignoring frame", "type", frame.Type)
	}
}

func (c *Conn) settle(elementID string) {
	c.mu.Lock()
	delete(c.pending, elementID)
	c.mu.Unlock()
}

// shutdown records cause, closes the socket and fails every element still
// waiting on this connection.
func (c *Conn) shutdown(cause error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.err = cause
		pending := c.pending
		c.pending = make(map[string]struct{})
		c.mu.Unlock()

		// done is closed under writeMu so open sees either the socket
		// stored or the connection closed, never neither.
		c.writeMu.Lock()
		if c.ws != nil {
			_ = c.ws.Close()
		}
		close(c.done)
		c.writeMu.Unlock()

		failure := closedError(cause)
		for id := range pending {
			_ = c.doc.Fail(id, failure)
		}
	})
}

// Close sends a close frame and closes the connection.
func (c *Conn) Close() error {
	c.writeMu.Lock()
	if c.ws != nil {
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
	}
	c.writeMu.Unlock()
	c.shutdown(bridge.ErrClosed)
	return nil
}

func closedError(cause error) error {
	if cause == nil || errors.Is(cause, bridge.ErrClosed) {
		return bridge.ErrClosed
	}
	return fmt.Errorf("%w: %v", bridge.ErrClosed, cause)
}
