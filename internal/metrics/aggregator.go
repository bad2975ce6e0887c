package metrics

import "time"

// PerformanceMetrics is the derived read-side view over the counters.
// Ratios are clamped to [0,1]; counters can briefly invert under resets and
// the clamp keeps the view total.
type PerformanceMetrics struct {
	Latency             time.Duration // Mean heartbeat round-trip
	ThroughputPerSecond float64       // (sent+received) / seconds since last connect
	ErrorRate           float64       // errors / (sent+received)
	DeliveryRate        float64       // sent / (sent+received)
	ConnectionStability float64       // 1 - reconnects/connections
}

// Aggregator derives PerformanceMetrics on demand. It holds no state of its
// own beyond references to the counter sources.
type Aggregator struct {
	rec     *Recorder
	latency *LatencyRing
	now     func() time.Time
}

// NewAggregator creates an aggregator over the given counter sources.
func NewAggregator(rec *Recorder, latency *LatencyRing) *Aggregator {
	return &Aggregator{rec: rec, latency: latency, now: time.Now}
}

// Snapshot recomputes all derived metrics from the current counters.
func (a *Aggregator) Snapshot() PerformanceMetrics {
	stats := a.rec.Snapshot()
	traffic := stats.MessagesSent + stats.MessagesReceived

	m := PerformanceMetrics{
		Latency:             a.latency.Mean(),
		ConnectionStability: 1,
	}

	if traffic > 0 {
		m.ErrorRate = clamp01(float64(stats.ErrorCount) / float64(traffic))
		m.DeliveryRate = clamp01(float64(stats.MessagesSent) / float64(traffic))
	}

	if stats.ConnectionCount > 0 {
		m.ConnectionStability = clamp01(1 - float64(stats.ReconnectAttempts)/float64(stats.ConnectionCount))
	}

	if !stats.LastConnectedAt.IsZero() {
		if secs := a.now().Sub(stats.LastConnectedAt).Seconds(); secs > 0 {
			m.ThroughputPerSecond = float64(traffic) / secs
		}
	}

	return m
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
