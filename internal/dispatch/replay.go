package dispatch

import (
	"sync"

	"github.com/stratalake/eventstream/internal/event"
)

// DefaultReplayLimit bounds the per-kind replay history.
const DefaultReplayLimit = 50

// ReplayBuffer retains the most recent envelopes per event kind. Insertion
// order is preserved; at capacity the oldest envelope is evicted.
type ReplayBuffer struct {
	mu     sync.Mutex
	limit  int
	byKind map[event.Kind][]event.Envelope
}

// NewReplayBuffer creates a buffer retaining at most limit envelopes per kind.
func NewReplayBuffer(limit int) *ReplayBuffer {
	if limit < 1 {
		limit = DefaultReplayLimit
	}
	return &ReplayBuffer{
		limit:  limit,
		byKind: make(map[event.Kind][]event.Envelope),
	}
}

// Push appends an envelope to its kind's history, evicting the oldest entry
// beyond the bound.
func (b *ReplayBuffer) Push(env event.Envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := append(b.byKind[env.Type], env)
	if len(entries) > b.limit {
		entries = entries[len(entries)-b.limit:]
	}
	b.byKind[env.Type] = entries
}

// Get returns an ordered snapshot of the buffered envelopes for a kind.
func (b *ReplayBuffer) Get(kind event.Kind) []event.Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := b.byKind[kind]
	out := make([]event.Envelope, len(entries))
	copy(out, entries)
	return out
}

// Len returns the number of buffered envelopes for a kind.
func (b *ReplayBuffer) Len(kind event.Kind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.byKind[kind])
}
