package relay

import (
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/ssecast/resilience"
)

const (
	DefaultChannel        = "ssecast:messages"
	DefaultBufferSize     = 256
	DefaultPublishTimeout = 3 * time.Second
)

// Config holds relay settings. Enabling the relay requires redis.enabled.
type Config struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Channel is the Redis pub/sub channel shared by all instances.
	Channel string `yaml:"channel" mapstructure:"channel"`

	// BufferSize is the receive queue between Redis and the local hub.
	BufferSize int `yaml:"buffer_size" mapstructure:"buffer_size"`

	// PublishTimeout bounds a single PUBLISH.
	PublishTimeout time.Duration `yaml:"publish_timeout" mapstructure:"publish_timeout"`

	// Breaker stops publish attempts after consecutive Redis failures.
	Breaker resilience.BreakerConfig `yaml:"breaker" mapstructure:"breaker"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Channel == "" {
		c.Channel = DefaultChannel
	}
	if c.BufferSize <= 0 {
		c.BufferSize = DefaultBufferSize
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = DefaultPublishTimeout
	}
	c.Breaker.ApplyDefaults()
}

// Validate checks the relay configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Channel) == "" {
		return fmt.Errorf("relay: channel is required")
	}
	if strings.ContainsAny(c.Channel, "*?[") {
		return fmt.Errorf("relay: channel must not be a pattern: %q", c.Channel)
	}
	return nil
}
