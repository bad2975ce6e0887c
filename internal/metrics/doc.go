// Package metrics maintains the stream client's counters and derives
// performance statistics from them.
//
// The Recorder holds monotonic counters updated by the connection manager,
// queue, and dispatcher. The Aggregator is a pure read-side view: every
// Snapshot recomputes latency, throughput, error rate, delivery rate, and
// connection stability from the current counters and the heartbeat latency
// ring; nothing derived is ever stored.
//
// A prometheus.Collector over the same Recorder exports the raw counters.
package metrics
