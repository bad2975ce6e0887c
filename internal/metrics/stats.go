package metrics

import (
	"sync"
	"time"
)

// Stats is a point-in-time copy of the client's counters. All counters are
// monotonic; only the two last-* timestamps move backward-free but
// non-monotonically.
type Stats struct {
	ConnectionCount    int64
	MessagesSent       int64
	MessagesReceived   int64
	BytesSent          int64
	BytesReceived      int64
	ReconnectAttempts  int64
	ErrorCount         int64
	LastConnectedAt    time.Time
	LastDisconnectedAt time.Time
}

// Recorder accumulates counters. Safe for concurrent use.
type Recorder struct {
	mu    sync.RWMutex
	stats Stats
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// ConnectionEstablished records a successful connect.
func (r *Recorder) ConnectionEstablished(at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.ConnectionCount++
	r.stats.LastConnectedAt = at
}

// ConnectionLost records a disconnect, deliberate or not.
func (r *Recorder) ConnectionLost(at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.LastDisconnectedAt = at
}

// MessageSent records one transmitted envelope of the given wire size.
func (r *Recorder) MessageSent(bytes int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.MessagesSent++
	r.stats.BytesSent += int64(bytes)
}

// MessageReceived records one inbound envelope of the given wire size.
func (r *Recorder) MessageReceived(bytes int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.MessagesReceived++
	r.stats.BytesReceived += int64(bytes)
}

// ReconnectAttempt records one scheduled reconnection attempt.
func (r *Recorder) ReconnectAttempt() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.ReconnectAttempts++
}

// Error records one error of any class.
func (r *Recorder) Error() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.ErrorCount++
}

// Snapshot returns a copy of the current counters.
func (r *Recorder) Snapshot() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats
}
