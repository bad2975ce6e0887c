package metrics

import (
	"sync"
	"time"
)

// DefaultLatencySamples bounds the heartbeat latency ring.
const DefaultLatencySamples = 100

// LatencyRing is a bounded ring of round-trip latency samples. When full,
// the oldest sample is evicted.
type LatencyRing struct {
	mu      sync.Mutex
	samples []time.Duration
	head    int
	count   int
}

// NewLatencyRing creates a ring holding at most size samples.
func NewLatencyRing(size int) *LatencyRing {
	if size < 1 {
		size = DefaultLatencySamples
	}
	return &LatencyRing{samples: make([]time.Duration, size)}
}

// Add appends a sample, evicting the oldest at capacity.
func (l *LatencyRing) Add(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.samples[(l.head+l.count)%len(l.samples)] = d
	if l.count < len(l.samples) {
		l.count++
	} else {
		l.head = (l.head + 1) % len(l.samples)
	}
}

// Mean returns the average of the buffered samples, 0 when empty.
func (l *LatencyRing) Mean() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.count == 0 {
		return 0
	}

	var sum time.Duration
	for i := 0; i < l.count; i++ {
		sum += l.samples[(l.head+i)%len(l.samples)]
	}
	return sum / time.Duration(l.count)
}

// Len returns the number of buffered samples.
func (l *LatencyRing) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}
