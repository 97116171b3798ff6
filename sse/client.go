package sse

import (
	"sync"
)

const (
	MetaRemoteAddr = "remote_addr"
	MetaUserAgent  = "user_agent"
)

// Client represents one open event stream.
type Client struct {
	id         string
	metadata   map[string]string
	bufferSize int
	events     chan []byte
	done       chan struct{}
	closeOnce  sync.Once
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithMetadata adds a metadata key-value pair to the client.
func WithMetadata(key, value string) ClientOption {
	return func(c *Client) {
		if value != "" {
			c.metadata[key] = value
		}
	}
}

// WithRemoteAddr records the peer address.
func WithRemoteAddr(addr string) ClientOption {
	return WithMetadata(MetaRemoteAddr, addr)
}

// WithUserAgent records the client's User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return WithMetadata(MetaUserAgent, ua)
}

// WithBufferSize sets the outbound queue length.
func WithBufferSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.bufferSize = n
		}
	}
}

// NewClient creates an open client.
func NewClient(id string, opts ...ClientOption) *Client {
	c := &Client{
		id:         id,
		metadata:   make(map[string]string),
		bufferSize: DefaultClientBufferSize,
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.events = make(chan []byte, c.bufferSize)
	return c
}

// ID returns the client's unique identifier.
func (c *Client) ID() string { return c.id }

// Metadata returns a copy of the client metadata.
func (c *Client) Metadata() map[string]string {
	out := make(map[string]string, len(c.metadata))
	for k, v := range c.metadata {
		out[k] = v
	}
	return out
}

// Events returns the outbound queue drained by the connection goroutine.
// The channel is never closed; watch Done to learn when to stop.
func (c *Client) Events() <-chan []byte { return c.events }

// Done is closed when the client is closed.
func (c *Client) Done() <-chan struct{} { return c.done }

// Closed reports whether Close has been called.
func (c *Client) Closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Send queues data without blocking. It returns false when the client is
// closed or its queue is full.
func (c *Client) Send(data []byte) bool {
	if c.Closed() {
		return false
	}
	select {
	case c.events <- data:
		return true
	default:
		return false
	}
}

// Close marks the client closed. Safe to call multiple times.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
