package transport

import (
	"context"
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected  = errors.New("transport not connected")
	ErrAlreadyClosed = errors.New("transport already closed")
)

// Message wraps raw frame data with its receive timestamp.
type Message struct {
	Data       []byte    // Raw frame bytes
	ReceivedAt time.Time // Local timestamp when the read returned
}

// CloseInfo describes how the peer closed the connection. Normal reports
// whether the close used a normal-closure code; anything else triggers the
// client's reconnection path.
type CloseInfo struct {
	Code   int
	Reason string
	Normal bool
}

// Transport is a single bidirectional framed connection.
//
// Open establishes the connection and must respect ctx cancellation and
// deadline. Messages and Errors are owned by the transport and stop
// producing after Close. Close is idempotent.
type Transport interface {
	// Open establishes the connection.
	Open(ctx context.Context) error

	// Send writes one frame. Returns ErrNotConnected when the connection
	// is down.
	Send(data []byte) error

	// Close shuts the connection down with a normal-closure frame.
	Close() error

	// Messages returns the channel of inbound frames.
	Messages() <-chan Message

	// Errors returns the channel of fatal connection errors. An error here
	// means the transport is dead and must be replaced.
	Errors() <-chan error

	// IsConnected reports the current connection state.
	IsConnected() bool
}

// Config configures a transport instance.
type Config struct {
	URL              string        // Endpoint (e.g., wss://events.example.com/stream)
	Protocols        []string      // Optional subprotocol list for the handshake
	HandshakeTimeout time.Duration // Dial deadline
	WriteTimeout     time.Duration // Per-frame write deadline
	BufferSize       int           // Inbound message channel buffer
	Compression      bool          // Enable per-message compression
	Binary           bool          // Send binary frames instead of text
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		BufferSize:       1000,
	}
}

// Factory creates a fresh transport for each connection attempt. The client
// never reuses a transport across attempts.
type Factory func(cfg Config) Transport
