package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exports the Recorder's counters in Prometheus form. Register it
// once per client; descriptors carry no variable labels so duplicate
// registration fails loudly.
type Collector struct {
	rec     *Recorder
	latency *LatencyRing

	connections *prometheus.Desc
	sent        *prometheus.Desc
	received    *prometheus.Desc
	bytesSent   *prometheus.Desc
	bytesRecv   *prometheus.Desc
	reconnects  *prometheus.Desc
	errs        *prometheus.Desc
	latencyDesc *prometheus.Desc
}

// NewCollector creates a Collector over the given counter sources.
func NewCollector(rec *Recorder, latency *LatencyRing) *Collector {
	return &Collector{
		rec:     rec,
		latency: latency,
		connections: prometheus.NewDesc(
			"eventstream_connections_total",
			"Total number of successful connections",
			nil, nil,
		),
		sent: prometheus.NewDesc(
			"eventstream_messages_sent_total",
			"Total number of envelopes transmitted",
			nil, nil,
		),
		received: prometheus.NewDesc(
			"eventstream_messages_received_total",
			"Total number of envelopes received",
			nil, nil,
		),
		bytesSent: prometheus.NewDesc(
			"eventstream_bytes_sent_total",
			"Total bytes transmitted",
			nil, nil,
		),
		bytesRecv: prometheus.NewDesc(
			"eventstream_bytes_received_total",
			"Total bytes received",
			nil, nil,
		),
		reconnects: prometheus.NewDesc(
			"eventstream_reconnect_attempts_total",
			"Total number of reconnection attempts",
			nil, nil,
		),
		errs: prometheus.NewDesc(
			"eventstream_errors_total",
			"Total number of errors",
			nil, nil,
		),
		latencyDesc: prometheus.NewDesc(
			"eventstream_heartbeat_latency_seconds",
			"Mean heartbeat round-trip latency",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.connections
	ch <- c.sent
	ch <- c.received
	ch <- c.bytesSent
	ch <- c.bytesRecv
	ch <- c.reconnects
	ch <- c.errs
	ch <- c.latencyDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	stats := c.rec.Snapshot()

	ch <- prometheus.MustNewConstMetric(c.connections, prometheus.CounterValue, float64(stats.ConnectionCount))
	ch <- prometheus.MustNewConstMetric(c.sent, prometheus.CounterValue, float64(stats.MessagesSent))
	ch <- prometheus.MustNewConstMetric(c.received, prometheus.CounterValue, float64(stats.MessagesReceived))
	ch <- prometheus.MustNewConstMetric(c.bytesSent, prometheus.CounterValue, float64(stats.BytesSent))
	ch <- prometheus.MustNewConstMetric(c.bytesRecv, prometheus.CounterValue, float64(stats.BytesReceived))
	ch <- prometheus.MustNewConstMetric(c.reconnects, prometheus.CounterValue, float64(stats.ReconnectAttempts))
	ch <- prometheus.MustNewConstMetric(c.errs, prometheus.CounterValue, float64(stats.ErrorCount))
	ch <- prometheus.MustNewConstMetric(c.latencyDesc, prometheus.GaugeValue, c.latency.Mean().Seconds())
}
