package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/vango-dev/shell/pkg/protocol"
)

func initServer(t *testing.T, contentType string, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/VAADIN/") {
			t.Errorf("path = %q, want suffix /VAADIN/", r.URL.Path)
		}
		if got := r.URL.Query().Get(protocol.RequestTypeParam); got != protocol.RequestTypeInit {
			t.Errorf("%s = %q, want %q", protocol.RequestTypeParam, got, protocol.RequestTypeInit)
		}
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestInitialize(t *testing.T) {
	srv, hits := initServer(t, "application/json", http.StatusOK,
		`{"appId":"app-1","productionMode":true,"uidl":{"syncId":0}}`)

	ini, err := NewInitializer(srv.URL)
	if err != nil {
		t.Fatalf("NewInitializer: %v", err)
	}
	sess, err := ini.Initialize(context.Background())
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if sess.AppID != "app-1" {
		t.Errorf("AppID = %q, want %q", sess.AppID, "app-1")
	}
	if !sess.ProductionMode {
		t.Error("ProductionMode = false, want true")
	}
	if string(sess.UIDL) != `{"syncId":0}` {
		t.Errorf("UIDL = %s", sess.UIDL)
	}
	if sess.BaseURL == nil || sess.BaseURL.String() != srv.URL+"/" {
		t.Errorf("BaseURL = %v, want %s/", sess.BaseURL, srv.URL)
	}
	if hits.Load() != 1 {
		t.Errorf("requests = %d, want 1", hits.Load())
	}
}

func TestInitializeAcceptsCharset(t *testing.T) {
	srv, _ := initServer(t, "application/json; charset=utf-8", http.StatusOK, `{"appConfig":{"appId":"a"}}`)
	ini, _ := NewInitializer(srv.URL)
	sess, err := ini.Initialize(context.Background())
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if sess.AppID != "a" {
		t.Errorf("AppID = %q", sess.AppID)
	}
}

func TestInitializeErrors(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		status      int
		body        string
		wantErr     error
	}{
		{"html", "text/html", http.StatusOK, "<html>login</html>", ErrUnexpectedContentType},
		{"no_content_type", "", http.StatusOK, `{"appId":"a"}`, ErrUnexpectedContentType},
		{"server_error", "application/json", http.StatusInternalServerError, `{"appId":"a"}`, nil},
		{"malformed_json", "application/json", http.StatusOK, `{"appId":`, nil},
		{"missing_app_id", "application/json", http.StatusOK, `{"uidl":{}}`, protocol.ErrMissingAppID},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv, hits := initServer(t, tc.contentType, tc.status, tc.body)
			ini, _ := NewInitializer(srv.URL)

			_, err := ini.Initialize(context.Background())
			var initErr *InitializationError
			if !errors.As(err, &initErr) {
				t.Fatalf("err = %v (%T), want *InitializationError", err, err)
			}
			if initErr.Status != tc.status {
				t.Errorf("Status = %d, want %d", initErr.Status, tc.status)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Errorf("err = %v, want wrapping %v", err, tc.wantErr)
			}
			if hits.Load() != 1 {
				t.Errorf("requests = %d, want exactly 1 (no retries)", hits.Load())
			}
		})
	}
}

func TestInitializeNoResponse(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	ini, _ := NewInitializer(url)
	_, err := ini.Initialize(context.Background())
	var initErr *InitializationError
	if !errors.As(err, &initErr) {
		t.Fatalf("err = %v, want *InitializationError", err)
	}
	if initErr.Status != 0 || initErr.Err == nil {
		t.Errorf("initErr = %+v, want transport error without status", initErr)
	}
}

func TestEndpoint(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"http://example.com", "http://example.com/VAADIN/?v-r=init"},
		{"http://example.com/", "http://example.com/VAADIN/?v-r=init"},
		{"http://example.com/app", "http://example.com/app/VAADIN/?v-r=init"},
	}
	for _, tc := range tests {
		ini, err := NewInitializer(tc.base)
		if err != nil {
			t.Fatalf("NewInitializer(%q): %v", tc.base, err)
		}
		if got := ini.Endpoint(); got != tc.want {
			t.Errorf("Endpoint() for %q = %q, want %q", tc.base, got, tc.want)
		}
	}
}

func TestInitializationErrorMessage(t *testing.T) {
	err := &InitializationError{Status: 502, ContentType: "text/plain", Body: "bad gateway"}
	want := `session: invalid server response when initializing UI: status 502: content type "text/plain": bad gateway`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestTruncateBody(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"short", "  not json  ", "not json"},
		{"exact", strings.Repeat("x", maxErrorBody), strings.Repeat("x", maxErrorBody)},
		{"ascii", strings.Repeat("x", maxErrorBody+10), strings.Repeat("x", maxErrorBody) + "…"},
		// "é" is two bytes and straddles the limit.
		{"rune boundary", strings.Repeat("x", maxErrorBody-1) + "é" + "tail", strings.Repeat("x", maxErrorBody-1) + "…"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := truncateBody([]byte(tc.body))
			if !utf8.ValidString(got) {
				t.Fatalf("truncateBody produced invalid UTF-8: %q", got)
			}
			if got != tc.want {
				t.Errorf("truncateBody() = %q (%d bytes), want %d bytes", got[max(0, len(got)-8):], len(got), len(tc.want))
			}
		})
	}
}
