package client

import (
	"sync"

	"github.com/stratalake/eventstream/internal/event"
)

// outboundQueue is the bounded FIFO holding envelopes submitted while
// disconnected. Entries flush in submission order on reconnect.
type outboundQueue struct {
	mu       sync.Mutex
	entries  []event.Envelope
	capacity int
}

func newOutboundQueue(capacity int) *outboundQueue {
	return &outboundQueue{capacity: capacity}
}

// push appends an envelope. Returns false at capacity; earlier entries are
// never displaced.
func (q *outboundQueue) push(env event.Envelope) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) >= q.capacity {
		return false
	}
	q.entries = append(q.entries, env)
	return true
}

// popFront removes and returns the oldest entry.
func (q *outboundQueue) popFront() (event.Envelope, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 {
		return event.Envelope{}, false
	}
	env := q.entries[0]
	q.entries = q.entries[1:]
	return env, true
}

func (q *outboundQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
