package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/vango-dev/shell/pkg/protocol"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Address is the address to listen on.
	// Default: ":3000".
	Address string

	// ProductionMode is reported to clients in the AppConfig.
	ProductionMode bool

	// MaxApps limits the number of live app sessions. Zero means unlimited.
	MaxApps int

	// HandshakeTimeout is the maximum time for the push handshake.
	// Default: 10 seconds.
	HandshakeTimeout time.Duration

	// WriteTimeout is the maximum time to wait when sending a frame.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// PingInterval is the time between pings on idle push connections.
	// Zero disables pings. Default: 30 seconds.
	PingInterval time.Duration

	// MaxMessageSize is the maximum size of an incoming WebSocket message.
	// Default: protocol.MaxFrameSize, the largest frame a client can encode.
	MaxMessageSize int64

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 10 seconds.
	ShutdownTimeout time.Duration

	// EnableMetrics serves Prometheus metrics on /metrics.
	EnableMetrics bool

	// CheckOrigin validates the Origin header of push upgrades.
	// Default: same-origin check done by gorilla/websocket.
	CheckOrigin func(r *http.Request) bool
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Address:          ":3000",
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		PingInterval:     30 * time.Second,
		MaxMessageSize:   protocol.MaxFrameSize,
		ShutdownTimeout:  10 * time.Second,
	}
}

// Clone returns a copy of the ServerConfig.
func (c *ServerConfig) Clone() *ServerConfig {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// withDefaults fills unset fields from DefaultServerConfig.
func (c *ServerConfig) withDefaults() *ServerConfig {
	defaults := DefaultServerConfig()
	if c == nil {
		return defaults
	}
	out := c.Clone()
	if out.Address == "" {
		out.Address = defaults.Address
	}
	if out.HandshakeTimeout == 0 {
		out.HandshakeTimeout = defaults.HandshakeTimeout
	}
	if out.WriteTimeout == 0 {
		out.WriteTimeout = defaults.WriteTimeout
	}
	if out.MaxMessageSize == 0 {
		out.MaxMessageSize = defaults.MaxMessageSize
	}
	if out.ShutdownTimeout == 0 {
		out.ShutdownTimeout = defaults.ShutdownTimeout
	}
	return out
}

// ValidateConfig checks the configuration for invalid values.
func (c *ServerConfig) ValidateConfig() error {
	if c.MaxApps < 0 {
		return errors.New("server: MaxApps must not be negative")
	}
	if c.PingInterval < 0 {
		return errors.New("server: PingInterval must not be negative")
	}
	if c.MaxMessageSize < 0 {
		return errors.New("server: MaxMessageSize must not be negative")
	}
	return nil
}
