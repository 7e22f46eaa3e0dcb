package protocol

import (
	"encoding/json"
	"errors"
)

// Init endpoint constants.
const (
	// InitPath is the init endpoint, relative to the application base URL.
	InitPath = "VAADIN/"

	// PushPath is the push WebSocket endpoint, relative to the base URL.
	PushPath = "VAADIN/push"

	// RequestTypeParam selects the request type on InitPath.
	RequestTypeParam = "v-r"

	// RequestTypeInit is the RequestTypeParam value of an init request.
	RequestTypeInit = "init"

	// AppIDParam carries the app id on PushPath.
	AppIDParam = "v-a"

	// ContentTypeJSON is the only media type accepted from InitPath.
	ContentTypeJSON = "application/json"
)

// ErrMissingAppID is returned when an init response carries no app id.
var ErrMissingAppID = errors.New("protocol: init response has no appId")

// AppConfig describes a server-side UI session.
type AppConfig struct {
	ProductionMode bool            `json:"productionMode"`
	AppID          string          `json:"appId"`
	UIDL           json.RawMessage `json:"uidl,omitempty"`
}

// InitResponse is the body of an init response as sent by servers that
// nest the session description under "appConfig".
type InitResponse struct {
	AppConfig *AppConfig `json:"appConfig,omitempty"`
}

// DecodeInitResponse parses an init response body. Both the flat form
// {"appId": ...} and the nested form {"appConfig": {"appId": ...}} are
// accepted.
func DecodeInitResponse(data []byte) (*AppConfig, error) {
	var wrapped InitResponse
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, err
	}
	cfg := wrapped.AppConfig
	if cfg == nil {
		cfg = &AppConfig{}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}
	if cfg.AppID == "" {
		return nil, ErrMissingAppID
	}
	return cfg, nil
}
