package main

import (
	"fmt"

	"github.com/kbukum/ssecast/config"
	"github.com/kbukum/ssecast/observability"
	"github.com/kbukum/ssecast/redis"
	"github.com/kbukum/ssecast/relay"
	"github.com/kbukum/ssecast/server"
	"github.com/kbukum/ssecast/sse"
	"github.com/kbukum/ssecast/validation"
)

// AppConfig is the full service configuration.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	SSE           sse.Config           `yaml:"sse" mapstructure:"sse"`
	Redis         redis.Config         `yaml:"redis" mapstructure:"redis"`
	Relay         relay.Config         `yaml:"relay" mapstructure:"relay"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults fills every section.
func (c *AppConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.SSE.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.Relay.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate checks struct tags first, then each section's own rules.
func (c *AppConfig) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.SSE.Validate(); err != nil {
		return err
	}
	if err := c.Redis.Validate(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if err := c.Relay.Validate(); err != nil {
		return err
	}
	if c.Relay.Enabled && !c.Redis.Enabled {
		return fmt.Errorf("relay.enabled requires redis.enabled")
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	return nil
}
