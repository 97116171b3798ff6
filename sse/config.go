package sse

import (
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/ssecast/util"
)

const (
	DefaultPath              = "/api/sse"
	DefaultKeepAliveInterval = 30 * time.Second
	DefaultClientBufferSize  = 64
	DefaultMaxMessageSize    = "64KB"

	defaultMaxMessageBytes = 64 * 1024
)

// Config holds SSE stream settings.
type Config struct {
	// Path is the subscription endpoint, mounted by the message handlers.
	Path string `yaml:"path" mapstructure:"path"`

	// KeepAliveInterval is how often a comment frame is written on idle streams.
	// Keep it below proxy idle timeouts (usually 60s).
	KeepAliveInterval time.Duration `yaml:"keep_alive_interval" mapstructure:"keep_alive_interval"`

	// ClientBufferSize is the per-client outbound queue length. A client whose
	// queue is full when a message is published gets evicted.
	ClientBufferSize int `yaml:"client_buffer_size" mapstructure:"client_buffer_size" validate:"gte=0"`

	// MaxMessageSize limits a published message body (e.g. "64KB").
	MaxMessageSize string `yaml:"max_message_size" mapstructure:"max_message_size"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Path == "" {
		c.Path = DefaultPath
	}
	if c.KeepAliveInterval == 0 {
		c.KeepAliveInterval = DefaultKeepAliveInterval
	}
	if c.ClientBufferSize == 0 {
		c.ClientBufferSize = DefaultClientBufferSize
	}
	if c.MaxMessageSize == "" {
		c.MaxMessageSize = DefaultMaxMessageSize
	}
}

// Validate checks the SSE configuration.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("sse: path must start with '/': %q", c.Path)
	}
	if c.KeepAliveInterval < time.Second {
		return fmt.Errorf("sse: keep_alive_interval must be at least 1s, got %s", c.KeepAliveInterval)
	}
	if c.ClientBufferSize < 1 {
		return fmt.Errorf("sse: client_buffer_size must be positive, got %d", c.ClientBufferSize)
	}
	if util.ParseSize(c.MaxMessageSize, -1) <= 0 {
		return fmt.Errorf("sse: invalid max_message_size %q", c.MaxMessageSize)
	}
	return nil
}

// MaxMessageBytes returns MaxMessageSize in bytes.
func (c *Config) MaxMessageBytes() int64 {
	return util.ParseSize(c.MaxMessageSize, defaultMaxMessageBytes)
}
