package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// mockWSServer creates a test WebSocket server.
func mockWSServer(t *testing.T, handler func(*websocket.Conn)) *httptest.Server {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))

	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func testConfig(url string) Config {
	cfg := DefaultConfig()
	cfg.URL = url
	cfg.BufferSize = 100
	return cfg
}

func TestWebSocket_Open(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		// Just keep the connection open
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				return
			}
		}
	})
	defer server.Close()

	tr := NewWebSocket(testConfig(wsURL(server)), nil)

	if err := tr.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if !tr.IsConnected() {
		t.Error("expected IsConnected to return true")
	}

	if err := tr.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}

	if tr.IsConnected() {
		t.Error("expected IsConnected to return false after Close")
	}
}

func TestWebSocket_OpenAfterClose(t *testing.T) {
	tr := NewWebSocket(testConfig("ws://127.0.0.1:1"), nil)

	if err := tr.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := tr.Open(context.Background()); err != ErrAlreadyClosed {
		t.Errorf("Open after Close = %v, want ErrAlreadyClosed", err)
	}
}

func TestWebSocket_Send(t *testing.T) {
	var received []byte
	var mu sync.Mutex

	server := mockWSServer(t, func(conn *websocket.Conn) {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			mu.Lock()
			received = msg
			mu.Unlock()
		}
	})
	defer server.Close()

	tr := NewWebSocket(testConfig(wsURL(server)), nil)

	if err := tr.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer tr.Close()

	testMsg := []byte(`{"test": "message"}`)
	if err := tr.Send(testMsg); err != nil {
		t.Errorf("Send failed: %v", err)
	}

	// Wait for message to be received
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if string(received) != string(testMsg) {
		t.Errorf("received %q, want %q", received, testMsg)
	}
}

func TestWebSocket_SendNotConnected(t *testing.T) {
	tr := NewWebSocket(testConfig("ws://127.0.0.1:1"), nil)

	if err := tr.Send([]byte("data")); err != ErrNotConnected {
		t.Errorf("Send = %v, want ErrNotConnected", err)
	}
}

func TestWebSocket_Messages(t *testing.T) {
	testMessages := []string{
		`{"type": "system_health", "data": 1}`,
		`{"type": "system_health", "data": 2}`,
		`{"type": "system_health", "data": 3}`,
	}

	server := mockWSServer(t, func(conn *websocket.Conn) {
		for _, msg := range testMessages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
		// Keep connection open until the client closes
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	tr := NewWebSocket(testConfig(wsURL(server)), nil)

	if err := tr.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer tr.Close()

	for i, want := range testMessages {
		select {
		case msg := <-tr.Messages():
			if string(msg.Data) != want {
				t.Errorf("message %d = %q, want %q", i, msg.Data, want)
			}
			if msg.ReceivedAt.IsZero() {
				t.Errorf("message %d has zero ReceivedAt", i)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for message %d", i)
		}
	}
}

func TestWebSocket_ErrorOnServerClose(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		// Drop the connection without a close handshake
		conn.Close()
	})
	defer server.Close()

	tr := NewWebSocket(testConfig(wsURL(server)), nil)

	if err := tr.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer tr.Close()

	select {
	case err := <-tr.Errors():
		if err == nil {
			t.Error("expected non-nil connection error")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for connection error")
	}
}

func TestCloseDetails(t *testing.T) {
	ce := &websocket.CloseError{Code: websocket.CloseAbnormalClosure, Text: "gone"}
	info := CloseDetails(ce)
	if info.Code != websocket.CloseAbnormalClosure || info.Normal {
		t.Errorf("CloseDetails(%v) = %+v, want abnormal close", ce, info)
	}

	normal := &websocket.CloseError{Code: websocket.CloseNormalClosure}
	if info := CloseDetails(normal); !info.Normal {
		t.Errorf("CloseDetails(normal) = %+v, want Normal=true", info)
	}

	// Going-away means the server is restarting, not that the stream is over.
	goingAway := &websocket.CloseError{Code: websocket.CloseGoingAway, Text: "restarting"}
	if info := CloseDetails(goingAway); info.Normal {
		t.Errorf("CloseDetails(going away) = %+v, want Normal=false", info)
	}

	if info := CloseDetails(context.DeadlineExceeded); info.Code != -1 {
		t.Errorf("CloseDetails(non-close) code = %d, want -1", info.Code)
	}
}
