package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatencyRing_Bound(t *testing.T) {
	ring := NewLatencyRing(3)

	ring.Add(10 * time.Millisecond)
	ring.Add(20 * time.Millisecond)
	ring.Add(30 * time.Millisecond)
	assert.Equal(t, 3, ring.Len())
	assert.Equal(t, 20*time.Millisecond, ring.Mean())

	// Fourth sample evicts the oldest (10ms)
	ring.Add(40 * time.Millisecond)
	assert.Equal(t, 3, ring.Len())
	assert.Equal(t, 30*time.Millisecond, ring.Mean())
}

func TestLatencyRing_EmptyMean(t *testing.T) {
	ring := NewLatencyRing(10)
	assert.Equal(t, time.Duration(0), ring.Mean())
}

func TestRecorder_Counters(t *testing.T) {
	rec := NewRecorder()

	now := time.Now()
	rec.ConnectionEstablished(now)
	rec.MessageSent(100)
	rec.MessageSent(50)
	rec.MessageReceived(200)
	rec.ReconnectAttempt()
	rec.Error()

	stats := rec.Snapshot()
	assert.Equal(t, int64(1), stats.ConnectionCount)
	assert.Equal(t, int64(2), stats.MessagesSent)
	assert.Equal(t, int64(150), stats.BytesSent)
	assert.Equal(t, int64(1), stats.MessagesReceived)
	assert.Equal(t, int64(200), stats.BytesReceived)
	assert.Equal(t, int64(1), stats.ReconnectAttempts)
	assert.Equal(t, int64(1), stats.ErrorCount)
	assert.Equal(t, now, stats.LastConnectedAt)
}

func TestAggregator_Snapshot(t *testing.T) {
	rec := NewRecorder()
	ring := NewLatencyRing(10)
	agg := NewAggregator(rec, ring)

	connectedAt := time.Now().Add(-10 * time.Second)
	agg.now = func() time.Time { return connectedAt.Add(10 * time.Second) }

	rec.ConnectionEstablished(connectedAt)
	for i := 0; i < 30; i++ {
		rec.MessageSent(10)
	}
	for i := 0; i < 70; i++ {
		rec.MessageReceived(10)
	}
	rec.Error()
	rec.Error()
	ring.Add(40 * time.Millisecond)
	ring.Add(60 * time.Millisecond)

	m := agg.Snapshot()
	assert.Equal(t, 50*time.Millisecond, m.Latency)
	assert.InDelta(t, 0.02, m.ErrorRate, 1e-9)
	assert.InDelta(t, 0.3, m.DeliveryRate, 1e-9)
	assert.InDelta(t, 1.0, m.ConnectionStability, 1e-9)
	assert.InDelta(t, 10.0, m.ThroughputPerSecond, 1e-9)
}

func TestAggregator_NoTraffic(t *testing.T) {
	rec := NewRecorder()
	agg := NewAggregator(rec, NewLatencyRing(10))

	m := agg.Snapshot()
	assert.Zero(t, m.ErrorRate)
	assert.Zero(t, m.DeliveryRate)
	assert.Zero(t, m.ThroughputPerSecond)
	assert.Equal(t, 1.0, m.ConnectionStability, "never connected counts as stable")
}

func TestAggregator_StabilityClamped(t *testing.T) {
	rec := NewRecorder()
	agg := NewAggregator(rec, NewLatencyRing(10))

	// More reconnect attempts than connections: raw formula goes negative,
	// the view clamps to zero.
	rec.ConnectionEstablished(time.Now())
	rec.ReconnectAttempt()
	rec.ReconnectAttempt()
	rec.ReconnectAttempt()

	m := agg.Snapshot()
	assert.Equal(t, 0.0, m.ConnectionStability)
}

func TestCollector_Registers(t *testing.T) {
	rec := NewRecorder()
	ring := NewLatencyRing(10)

	rec.ConnectionEstablished(time.Now())
	rec.MessageSent(42)

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(NewCollector(rec, ring)))

	families, err := reg.Gather()
	require.NoError(t, err)

	byName := make(map[string]float64)
	for _, mf := range families {
		byName[mf.GetName()] = mf.GetMetric()[0].GetCounter().GetValue() + mf.GetMetric()[0].GetGauge().GetValue()
	}

	assert.Equal(t, 1.0, byName["eventstream_connections_total"])
	assert.Equal(t, 1.0, byName["eventstream_messages_sent_total"])
	assert.Equal(t, 42.0, byName["eventstream_bytes_sent_total"])
}
