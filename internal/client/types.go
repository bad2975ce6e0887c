package client

import (
	"context"
	"errors"
	"time"

	"github.com/stratalake/eventstream/internal/dispatch"
	"github.com/stratalake/eventstream/internal/transport"
)

// Errors
var (
	ErrConnectTimeout     = errors.New("connect timed out")
	ErrQueueFull          = errors.New("outbound queue full")
	ErrMaxRetriesExceeded = errors.New("max reconnect attempts exceeded")
)

// State is the connection manager's lifecycle state. Exactly one state is
// live at a time and every transition is observable through Hooks.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateError
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Hooks are optional observer callbacks. They are invoked from the client's
// internal goroutines and must not block; nil fields are skipped.
type Hooks struct {
	OnStateChange        func(old, new State)
	OnConnected          func()
	OnConnectionLost     func(code int, reason string)
	OnReconnectAttempt   func(attempt int)
	OnMaxAttemptsReached func()
}

// AuthConfig describes the optional post-connect authentication exchange.
// RefreshToken, when set, is consulted before every handshake so reconnects
// carry a fresh token.
type AuthConfig struct {
	Token        string
	RefreshToken func(ctx context.Context) (string, error)
}

// Config configures a Client. The zero value is unusable; start from
// DefaultConfig.
type Config struct {
	URL                  string        // Stream endpoint
	Protocols            []string      // Optional subprotocols for the handshake
	ConnectTimeout       time.Duration // Bound on a single open attempt
	ReconnectInterval    time.Duration // Backoff base; attempt n waits interval × 2^(n-1)
	MaxReconnectAttempts int           // Attempts before the Error state
	HeartbeatInterval    time.Duration // Liveness probe period
	MessageQueueSize     int           // Outbound queue capacity while disconnected
	ReplayLimit          int           // Per-kind replay history bound
	WriteTimeout         time.Duration // Per-frame write deadline
	TransportBufferSize  int           // Inbound transport channel buffer
	Compression          bool          // Per-message compression
	Binary               bool          // Binary frames instead of text
	Authentication       *AuthConfig   // Optional handshake descriptor
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout:       10 * time.Second,
		ReconnectInterval:    5 * time.Second,
		MaxReconnectAttempts: 10,
		HeartbeatInterval:    30 * time.Second,
		MessageQueueSize:     1000,
		ReplayLimit:          dispatch.DefaultReplayLimit,
		WriteTimeout:         5 * time.Second,
		TransportBufferSize:  1000,
	}
}

func (c Config) applyDefaults() Config {
	def := DefaultConfig()
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.ReconnectInterval <= 0 {
		c.ReconnectInterval = def.ReconnectInterval
	}
	if c.MaxReconnectAttempts <= 0 {
		c.MaxReconnectAttempts = def.MaxReconnectAttempts
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = def.HeartbeatInterval
	}
	if c.MessageQueueSize <= 0 {
		c.MessageQueueSize = def.MessageQueueSize
	}
	if c.ReplayLimit <= 0 {
		c.ReplayLimit = def.ReplayLimit
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.TransportBufferSize <= 0 {
		c.TransportBufferSize = def.TransportBufferSize
	}
	return c
}

func (c Config) transportConfig() transport.Config {
	return transport.Config{
		URL:              c.URL,
		Protocols:        c.Protocols,
		HandshakeTimeout: c.ConnectTimeout,
		WriteTimeout:     c.WriteTimeout,
		BufferSize:       c.TransportBufferSize,
		Compression:      c.Compression,
		Binary:           c.Binary,
	}
}
