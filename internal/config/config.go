// Package config loads and validates the stream client's YAML configuration.
//
// Loading expands ${VAR} environment references before parsing, so secrets
// like auth tokens stay out of config files.
package config

import (
	"time"

	"github.com/stratalake/eventstream/internal/client"
	"github.com/stratalake/eventstream/internal/event"
)

// Config is the root configuration for a stream client instance.
type Config struct {
	Instance  InstanceConfig  `yaml:"instance"`
	Stream    StreamConfig    `yaml:"stream"`
	Auth      AuthConfig      `yaml:"auth"`
	Subscribe SubscribeConfig `yaml:"subscribe"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// InstanceConfig identifies this client instance.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// StreamConfig holds the connection manager settings.
type StreamConfig struct {
	URL                  string        `yaml:"url"`
	Protocols            []string      `yaml:"protocols"`
	ConnectTimeout       time.Duration `yaml:"connect_timeout"`
	ReconnectInterval    time.Duration `yaml:"reconnect_interval"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"`
	HeartbeatInterval    time.Duration `yaml:"heartbeat_interval"`
	MessageQueueSize     int           `yaml:"message_queue_size"`
	ReplayLimit          int           `yaml:"replay_limit"`
	Compression          bool          `yaml:"compression"`
	Binary               bool          `yaml:"binary"`
}

// AuthConfig holds the optional handshake token. An empty token disables the
// handshake entirely.
type AuthConfig struct {
	Token string `yaml:"token"`
}

// SubscribeConfig lists the event kinds the instance tails.
type SubscribeConfig struct {
	Kinds []string `yaml:"kinds"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}

// ClientConfig maps the file configuration onto a client.Config.
func (c *Config) ClientConfig() client.Config {
	cc := client.DefaultConfig()
	cc.URL = c.Stream.URL
	cc.Protocols = c.Stream.Protocols
	if c.Stream.ConnectTimeout > 0 {
		cc.ConnectTimeout = c.Stream.ConnectTimeout
	}
	if c.Stream.ReconnectInterval > 0 {
		cc.ReconnectInterval = c.Stream.ReconnectInterval
	}
	if c.Stream.MaxReconnectAttempts > 0 {
		cc.MaxReconnectAttempts = c.Stream.MaxReconnectAttempts
	}
	if c.Stream.HeartbeatInterval > 0 {
		cc.HeartbeatInterval = c.Stream.HeartbeatInterval
	}
	if c.Stream.MessageQueueSize > 0 {
		cc.MessageQueueSize = c.Stream.MessageQueueSize
	}
	if c.Stream.ReplayLimit > 0 {
		cc.ReplayLimit = c.Stream.ReplayLimit
	}
	cc.Compression = c.Stream.Compression
	cc.Binary = c.Stream.Binary
	if c.Auth.Token != "" {
		cc.Authentication = &client.AuthConfig{Token: c.Auth.Token}
	}
	return cc
}

// Kinds converts the subscribed kind names to event kinds.
func (c *Config) Kinds() []event.Kind {
	kinds := make([]event.Kind, 0, len(c.Subscribe.Kinds))
	for _, k := range c.Subscribe.Kinds {
		kinds = append(kinds, event.Kind(k))
	}
	return kinds
}
