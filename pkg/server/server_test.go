package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"
	dto "github.com/prometheus/client_model/go"

	"github.com/vango-dev/shell/pkg/protocol"
)

func newTestServer(t *testing.T, config *ServerConfig, binder ViewBinder) (*Server, *httptest.Server) {
	t.Helper()
	s := New(config, binder)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func initApp(t *testing.T, baseURL string) *protocol.AppConfig {
	t.Helper()
	resp, err := http.Get(baseURL + "/VAADIN/?v-r=init")
	if err != nil {
		t.Fatalf("init request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("init status = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	cfg, err := protocol.DecodeInitResponse(body)
	if err != nil {
		t.Fatalf("DecodeInitResponse: %v", err)
	}
	return cfg
}

// dialPush opens a push connection and completes the handshake.
func dialPush(t *testing.T, baseURL, appID string) (*websocket.Conn, *protocol.ServerHello) {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(baseURL, "http") + "/VAADIN/push?v-a=" + appID
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { ws.Close() })

	hello := protocol.NewFrame(protocol.FrameHandshake,
		protocol.EncodeClientHello(&protocol.ClientHello{AppID: appID}))
	writeFrame(t, ws, hello)
	frame := readFrame(t, ws)
	if frame.Type != protocol.FrameHandshake {
		t.Fatalf("frame type = %v, want Handshake", frame.Type)
	}
	sh, err := protocol.DecodeServerHello(frame.Payload)
	if err != nil {
		t.Fatalf("DecodeServerHello: %v", err)
	}
	return ws, sh
}

func readFrame(t *testing.T, ws *websocket.Conn) *protocol.Frame {
	t.Helper()
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	frame, err := protocol.DecodeFrame(msg)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	return frame
}

func sendConnect(t *testing.T, ws *websocket.Conn, tag, id, path string) {
	t.Helper()
	writeFrame(t, ws, protocol.NewFrame(protocol.FrameConnect,
		protocol.EncodeConnect(&protocol.Connect{Tag: tag, ElementID: id, Path: path})))
}

func writeFrame(t *testing.T, ws *websocket.Conn, frame *protocol.Frame) {
	t.Helper()
	data, err := frame.Encode()
	if err != nil {
		t.Fatalf("encode %v: %v", frame.Type, err)
	}
	if err := ws.WriteMessage(websocket.BinaryMessage, data); err != nil {
		t.Fatalf("write %v: %v", frame.Type, err)
	}
}

func TestInitCreatesApp(t *testing.T) {
	s, ts := newTestServer(t, &ServerConfig{ProductionMode: true}, nil)

	resp, err := http.Get(ts.URL + "/VAADIN/?v-r=init")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", resp.Header.Get("Content-Type"))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	for _, key := range []string{"appId", "productionMode", "uidl"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("body %s has no %q", body, key)
		}
	}
	var uidl map[string]any
	if err := json.Unmarshal(fields["uidl"], &uidl); err != nil || uidl == nil {
		t.Errorf("uidl = %s, want a JSON object", fields["uidl"])
	}

	var cfg protocol.AppConfig
	if err := json.Unmarshal(body, &cfg); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if cfg.AppID == "" {
		t.Fatal("appId should be set")
	}
	if !cfg.ProductionMode {
		t.Error("productionMode should be true")
	}
	if _, err := s.Apps().Get(cfg.AppID); err != nil {
		t.Errorf("app %s not registered: %v", cfg.AppID, err)
	}
}

func TestInitRejectsOtherRequestTypes(t *testing.T) {
	_, ts := newTestServer(t, nil, nil)

	for _, u := range []string{"/VAADIN/", "/VAADIN/?v-r=uidl"} {
		resp, err := http.Get(ts.URL + u)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("GET %s status = %d, want 400", u, resp.StatusCode)
		}
	}
}

func TestInitLimitReached(t *testing.T) {
	_, ts := newTestServer(t, &ServerConfig{MaxApps: 1}, nil)

	initApp(t, ts.URL)
	resp, err := http.Get(ts.URL + "/VAADIN/?v-r=init")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestPushHandshakeUnknownApp(t *testing.T) {
	_, ts := newTestServer(t, nil, nil)

	_, sh := dialPush(t, ts.URL, "no-such-app")
	if sh.Status != protocol.HandshakeUnknownApp {
		t.Errorf("Status = %v, want UnknownApp", sh.Status)
	}
}

func TestPushConnectReady(t *testing.T) {
	s, ts := newTestServer(t, nil, NewRouteBinder("main/users"))
	cfg := initApp(t, ts.URL)

	ws, sh := dialPush(t, ts.URL, cfg.AppID)
	if sh.Status != protocol.HandshakeOK || sh.AppID != cfg.AppID {
		t.Fatalf("ServerHello = %+v", sh)
	}

	sendConnect(t, ws, "flow-main-users", "flow-main-users-0", "main/users")
	frame := readFrame(t, ws)
	if frame.Type != protocol.FrameReady {
		t.Fatalf("frame type = %v, want Ready", frame.Type)
	}
	ready, _ := protocol.DecodeReady(frame.Payload)
	if ready.ElementID != "flow-main-users-0" {
		t.Errorf("ElementID = %q", ready.ElementID)
	}
	if s.ConnectionCount() != 1 {
		t.Errorf("ConnectionCount() = %d, want 1", s.ConnectionCount())
	}
}

func TestPushConnectNotFound(t *testing.T) {
	_, ts := newTestServer(t, nil, NewRouteBinder("main"))
	cfg := initApp(t, ts.URL)
	ws, _ := dialPush(t, ts.URL, cfg.AppID)

	sendConnect(t, ws, "flow-other", "flow-other-0", "other")
	frame := readFrame(t, ws)
	if frame.Type != protocol.FrameError {
		t.Fatalf("frame type = %v, want Error", frame.Type)
	}
	em, err := protocol.DecodeErrorMessage(frame.Payload)
	if err != nil {
		t.Fatal(err)
	}
	if em.Code != protocol.ErrNotFound || em.ElementID != "flow-other-0" || em.Fatal {
		t.Errorf("ErrorMessage = %+v", em)
	}
}

func TestPushConnectInvalidRoute(t *testing.T) {
	_, ts := newTestServer(t, nil, NewRouteBinder("main"))
	cfg := initApp(t, ts.URL)
	ws, _ := dialPush(t, ts.URL, cfg.AppID)

	sendConnect(t, ws, "flow-secret", "flow-secret-0", "../secret")
	frame := readFrame(t, ws)
	em, err := protocol.DecodeErrorMessage(frame.Payload)
	if err != nil {
		t.Fatal(err)
	}
	if em.Code != protocol.ErrInvalidConnect || em.ElementID != "flow-secret-0" {
		t.Errorf("ErrorMessage = %+v", em)
	}
}

func TestPushConnectLargestFrame(t *testing.T) {
	_, ts := newTestServer(t, nil, NewRouteBinder("main"))
	cfg := initApp(t, ts.URL)
	ws, _ := dialPush(t, ts.URL, cfg.AppID)

	// Fill the payload up to the frame limit with a route that is rejected
	// and quoted back in the error.
	path := strings.Repeat(`\`, protocol.MaxPayloadSize-19)
	payload := protocol.EncodeConnect(&protocol.Connect{Tag: "flow-x", ElementID: "flow-x-0", Path: path})
	if len(payload) != protocol.MaxPayloadSize {
		t.Fatalf("payload = %d bytes, want %d", len(payload), protocol.MaxPayloadSize)
	}
	writeFrame(t, ws, protocol.NewFrame(protocol.FrameConnect, payload))

	frame := readFrame(t, ws)
	em, err := protocol.DecodeErrorMessage(frame.Payload)
	if err != nil {
		t.Fatal(err)
	}
	if em.Code != protocol.ErrInvalidConnect || em.ElementID != "flow-x-0" {
		t.Errorf("ErrorMessage = %+v", em)
	}
	if len(em.Message) > maxErrorMessage+len("...") {
		t.Errorf("error message is %d bytes, want at most %d", len(em.Message), maxErrorMessage+3)
	}

	sendConnect(t, ws, "flow-main", "flow-main-1", "main")
	if frame := readFrame(t, ws); frame.Type != protocol.FrameReady {
		t.Errorf("frame type = %v, want Ready", frame.Type)
	}
}

func TestClipMessage(t *testing.T) {
	if got := clipMessage("short"); got != "short" {
		t.Errorf("clipMessage(short) = %q", got)
	}
	long := strings.Repeat("a", maxErrorMessage-1) + "é" + "tail"
	got := clipMessage(long)
	if !utf8.ValidString(got) {
		t.Errorf("clipMessage split a rune: %q", got[len(got)-8:])
	}
	if want := strings.Repeat("a", maxErrorMessage-1) + "..."; got != want {
		t.Errorf("clipMessage(long) ends with %q", got[len(got)-8:])
	}
}

func TestPushBinderError(t *testing.T) {
	boom := errors.New("boom")
	binder := BinderFunc(func(ctx context.Context, b *Binding) error {
		if b.AppID == "" || b.Tag != "flow-x" {
			t.Errorf("unexpected binding %+v", b)
		}
		return boom
	})
	_, ts := newTestServer(t, nil, binder)
	cfg := initApp(t, ts.URL)
	ws, _ := dialPush(t, ts.URL, cfg.AppID)

	sendConnect(t, ws, "flow-x", "flow-x-0", "x")
	frame := readFrame(t, ws)
	em, _ := protocol.DecodeErrorMessage(frame.Payload)
	if em.Code != protocol.ErrServerError {
		t.Errorf("Code = %v, want ServerError", em.Code)
	}
	if !strings.Contains(em.Message, "boom") {
		t.Errorf("Message = %q", em.Message)
	}
}

func TestExpire(t *testing.T) {
	s, ts := newTestServer(t, nil, NewRouteBinder("main"))
	cfg := initApp(t, ts.URL)
	ws, _ := dialPush(t, ts.URL, cfg.AppID)

	if !s.Expire(cfg.AppID) {
		t.Fatal("Expire() = false for a live app")
	}

	frame := readFrame(t, ws)
	em, err := protocol.DecodeErrorMessage(frame.Payload)
	if frame.Type != protocol.FrameError || err != nil {
		t.Fatalf("got %v (%v), want an Error frame", frame.Type, err)
	}
	if em.Code != protocol.ErrSessionExpired || !em.Fatal {
		t.Errorf("ErrorMessage = %+v, want fatal SessionExpired", em)
	}
	if _, _, err := ws.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("read after expiry err = %v, want normal close", err)
	}

	if _, err := s.Apps().Get(cfg.AppID); !errors.Is(err, ErrAppNotFound) {
		t.Errorf("Get() err = %v, want ErrAppNotFound", err)
	}
	if s.Expire(cfg.AppID) {
		t.Error("Expire() = true for an expired app")
	}

	// A new handshake for the expired app is refused.
	_, sh := dialPush(t, ts.URL, cfg.AppID)
	if sh.Status != protocol.HandshakeUnknownApp {
		t.Errorf("Status = %v, want UnknownApp", sh.Status)
	}
}

func TestPushPingPong(t *testing.T) {
	_, ts := newTestServer(t, nil, nil)
	cfg := initApp(t, ts.URL)
	ws, _ := dialPush(t, ts.URL, cfg.AppID)

	writeFrame(t, ws, protocol.NewFrame(protocol.FrameControl, protocol.EncodeControl(protocol.ControlPing)))
	frame := readFrame(t, ws)
	ct, err := protocol.DecodeControl(frame.Payload)
	if frame.Type != protocol.FrameControl || err != nil || ct != protocol.ControlPong {
		t.Errorf("got %v %v %v, want Control Pong", frame.Type, ct, err)
	}
}

func TestMetrics(t *testing.T) {
	s, ts := newTestServer(t, &ServerConfig{EnableMetrics: true}, NewRouteBinder("a"))
	cfg := initApp(t, ts.URL)
	ws, _ := dialPush(t, ts.URL, cfg.AppID)

	sendConnect(t, ws, "flow-a", "flow-a-0", "a")
	readFrame(t, ws)
	sendConnect(t, ws, "flow-b", "flow-b-0", "b")
	readFrame(t, ws)

	if got := counterValue(t, s.metrics.appsCreated.WithLabelValues("ok")); got != 1 {
		t.Errorf("apps_created_total{ok} = %v, want 1", got)
	}
	if got := counterValue(t, s.metrics.bindsTotal.WithLabelValues("ok")); got != 1 {
		t.Errorf("binds_total{ok} = %v, want 1", got)
	}
	if got := counterValue(t, s.metrics.bindsTotal.WithLabelValues("not_found")); got != 1 {
		t.Errorf("binds_total{not_found} = %v, want 1", got)
	}

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{"shell_server_push_connections 1", "shell_http_requests_total"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q:\n%s", want, body)
		}
	}
}

func TestMetricsEndpointDisabled(t *testing.T) {
	_, ts := newTestServer(t, nil, nil)
	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestServeAndShutdown(t *testing.T) {
	s := New(nil, NewRouteBinder("a"))
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	baseURL := "http://" + ln.Addr().String()
	cfg := initApp(t, baseURL)
	ws, _ := dialPush(t, baseURL, cfg.AppID)

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = ws.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("read after shutdown error = %v, want close 1001", err)
	}
}

func counterValue(t *testing.T, c interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("Write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}
