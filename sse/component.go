package sse

import (
	"context"
	"fmt"

	"github.com/kbukum/ssecast/component"
)

// Component wraps a Hub as a lifecycle-managed component.
type Component struct {
	hub *Hub
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates a component owning a fresh Hub.
func NewComponent(cfg Config, opts ...HubOption) *Component {
	return &Component{hub: NewHub(cfg, opts...)}
}

// Hub returns the underlying Hub.
func (c *Component) Hub() *Hub { return c.hub }

// Name returns the component name.
func (c *Component) Name() string { return "sse" }

// Start is a no-op; the hub accepts clients as soon as it is created.
func (c *Component) Start(_ context.Context) error { return nil }

// Stop closes every open stream.
func (c *Component) Stop(_ context.Context) error {
	c.hub.Stop()
	return nil
}

// Health reports the number of open streams.
func (c *Component) Health(_ context.Context) component.Health {
	if c.hub.Stopped() {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "hub stopped"}
	}
	return component.Health{
		Name:    c.Name(),
		Status:  component.StatusHealthy,
		Message: fmt.Sprintf("%d clients connected", c.hub.ClientCount()),
	}
}

// Describe returns infrastructure summary info for the bootstrap display.
func (c *Component) Describe() component.Description {
	cfg := c.hub.Config()
	return component.Description{
		Name:    "SSE Hub",
		Type:    "sse",
		Details: fmt.Sprintf("Path: %s, buffer: %d, keep-alive: %s", cfg.Path, cfg.ClientBufferSize, cfg.KeepAliveInterval),
	}
}
