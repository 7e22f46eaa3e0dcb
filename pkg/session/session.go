package session

import (
	"encoding/json"
	"net/url"
)

// Session is a server-side UI session. It is immutable once returned by
// Initialize.
type Session struct {
	// ProductionMode reports whether the server runs in production mode.
	ProductionMode bool

	// AppID identifies the session on the server.
	AppID string

	// UIDL is the initial UI description. It is not interpreted here.
	UIDL json.RawMessage

	// BaseURL is the application URL the session was initialized against.
	BaseURL *url.URL
}

// ResolveReference resolves ref against the session's base URL.
func (s *Session) ResolveReference(ref string) (*url.URL, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, err
	}
	if s.BaseURL == nil {
		return u, nil
	}
	return s.BaseURL.ResolveReference(u), nil
}
