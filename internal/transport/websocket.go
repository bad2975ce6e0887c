package transport

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// wsTransport implements Transport over a gorilla/websocket connection.
type wsTransport struct {
	cfg    Config
	logger *slog.Logger

	conn *websocket.Conn

	// Output channels
	messages chan Message
	errors   chan error
	done     chan struct{}

	// Write serialization
	writeMu sync.Mutex

	// State
	mu        sync.RWMutex
	connected bool
	closed    bool
}

// NewWebSocket creates a WebSocket transport. It satisfies Factory when
// partially applied with a logger:
//
//	factory := transport.WebSocketFactory(logger)
func NewWebSocket(cfg Config, logger *slog.Logger) Transport {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BufferSize < 1 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}

	return &wsTransport{
		cfg:      cfg,
		logger:   logger,
		messages: make(chan Message, cfg.BufferSize),
		errors:   make(chan error, 1),
		done:     make(chan struct{}),
	}
}

// WebSocketFactory returns a Factory producing WebSocket transports that
// share the given logger.
func WebSocketFactory(logger *slog.Logger) Factory {
	return func(cfg Config) Transport {
		return NewWebSocket(cfg, logger)
	}
}

// Open dials the endpoint and starts the read loop.
func (t *wsTransport) Open(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrAlreadyClosed
	}
	t.mu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout:  t.cfg.HandshakeTimeout,
		Subprotocols:      t.cfg.Protocols,
		EnableCompression: t.cfg.Compression,
	}

	conn, _, err := dialer.DialContext(ctx, t.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", t.cfg.URL, err)
	}

	t.mu.Lock()
	t.conn = conn
	t.connected = true
	t.mu.Unlock()

	// Server pings are answered in-band; liveness probing above this layer
	// uses application-level heartbeat envelopes.
	conn.SetPingHandler(func(data string) error {
		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(data),
			time.Now().Add(time.Second),
		)
	})

	go t.readLoop()

	t.logger.Debug("websocket connected", "url", t.cfg.URL)

	return nil
}

// Close gracefully closes the connection.
func (t *wsTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.connected = false
	t.mu.Unlock()

	close(t.done)

	if t.conn != nil {
		t.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		return t.conn.Close()
	}

	return nil
}

// Send writes one frame to the connection.
func (t *wsTransport) Send(data []byte) error {
	t.mu.RLock()
	if !t.connected {
		t.mu.RUnlock()
		return ErrNotConnected
	}
	t.mu.RUnlock()

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	msgType := websocket.TextMessage
	if t.cfg.Binary {
		msgType = websocket.BinaryMessage
	}

	t.conn.SetWriteDeadline(time.Now().Add(t.cfg.WriteTimeout))
	return t.conn.WriteMessage(msgType, data)
}

// Messages returns the inbound frame channel.
func (t *wsTransport) Messages() <-chan Message {
	return t.messages
}

// Errors returns the fatal error channel.
func (t *wsTransport) Errors() <-chan error {
	return t.errors
}

// IsConnected returns the current connection state.
func (t *wsTransport) IsConnected() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.connected
}

// readLoop reads frames from the socket and forwards them to the messages
// channel until the connection dies or Close is called.
func (t *wsTransport) readLoop() {
	defer func() {
		t.mu.Lock()
		t.connected = false
		t.mu.Unlock()
	}()

	for {
		select {
		case <-t.done:
			return
		default:
		}

		_, data, err := t.conn.ReadMessage()
		receivedAt := time.Now()

		if err != nil {
			// Ignore errors after Close() is called
			select {
			case <-t.done:
				return
			default:
				select {
				case t.errors <- err:
				default:
				}
				return
			}
		}

		msg := Message{
			Data:       data,
			ReceivedAt: receivedAt,
		}

		select {
		case t.messages <- msg:
		case <-t.done:
			return
		default:
			t.logger.Warn("message buffer full, dropping message")
		}
	}
}

// CloseDetails extracts the close code and reason from a websocket close
// error. Non-close errors report code -1. Only a normal closure (1000) is
// Normal; going-away (1001) still reconnects, since a restarting server
// sends it and the stream should resume once the server is back.
func CloseDetails(err error) CloseInfo {
	if ce, ok := err.(*websocket.CloseError); ok {
		return CloseInfo{
			Code:   ce.Code,
			Reason: ce.Text,
			Normal: ce.Code == websocket.CloseNormalClosure,
		}
	}
	return CloseInfo{Code: -1, Reason: err.Error()}
}
