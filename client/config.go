package client

import (
	"fmt"
	"net/url"
	"time"

	"github.com/kbukum/ssecast/resilience"
	"github.com/kbukum/ssecast/security"
)

const (
	DefaultBaseURL       = "http://localhost:8080"
	DefaultTimeout       = 10 * time.Second
	DefaultMessagePath   = "/api/message"
	DefaultSubscribePath = "/api/sse"
)

// Config configures the client.
type Config struct {
	// BaseURL is the server root, e.g. http://localhost:8080.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout bounds Send requests. Subscribe streams are not bounded.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	MessagePath   string `yaml:"message_path" mapstructure:"message_path"`
	SubscribePath string `yaml:"subscribe_path" mapstructure:"subscribe_path"`

	// Headers are added to every request.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// TLS customizes verification for https base URLs.
	TLS security.TLSConfig `yaml:"tls" mapstructure:"tls"`

	// Retry governs Send. MaxAttempts 1 disables retries.
	Retry resilience.RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MessagePath == "" {
		c.MessagePath = DefaultMessagePath
	}
	if c.SubscribePath == "" {
		c.SubscribePath = DefaultSubscribePath
	}
	if c.Retry.RetryIf == nil {
		c.Retry.RetryIf = retryable
	}
	c.Retry.ApplyDefaults()
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("client: invalid base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("client: base_url must be http or https, got %q", c.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("client: base_url has no host: %q", c.BaseURL)
	}
	return c.TLS.Validate()
}
