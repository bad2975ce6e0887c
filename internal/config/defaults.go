package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultConnectTimeout       = 10 * time.Second
	DefaultReconnectInterval    = 5 * time.Second
	DefaultMaxReconnectAttempts = 10
	DefaultHeartbeatInterval    = 30 * time.Second
	DefaultMessageQueueSize     = 1000
	DefaultReplayLimit          = 50
	DefaultMetricsPort          = 9090
	DefaultMetricsPath          = "/metrics"
)

func (c *Config) applyDefaults() {
	if c.Stream.ConnectTimeout == 0 {
		c.Stream.ConnectTimeout = DefaultConnectTimeout
	}
	if c.Stream.ReconnectInterval == 0 {
		c.Stream.ReconnectInterval = DefaultReconnectInterval
	}
	if c.Stream.MaxReconnectAttempts == 0 {
		c.Stream.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.Stream.HeartbeatInterval == 0 {
		c.Stream.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.Stream.MessageQueueSize == 0 {
		c.Stream.MessageQueueSize = DefaultMessageQueueSize
	}
	if c.Stream.ReplayLimit == 0 {
		c.Stream.ReplayLimit = DefaultReplayLimit
	}
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}
