package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kbukum/ssecast/httpclient/sse"
	"github.com/kbukum/ssecast/resilience"
	"github.com/kbukum/ssecast/version"
)

const maxErrorBody = 4096

// Client publishes to and subscribes from an ssecast server.
type Client struct {
	config     Config
	httpClient *http.Client
	userAgent  string
}

// New creates a client.
func New(cfg Config) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	tlsCfg, err := cfg.TLS.Build()
	if err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if tlsCfg != nil {
		transport.TLSClientConfig = tlsCfg
	}

	return &Client{
		config: cfg,
		// No client-level timeout: it would cut Subscribe streams.
		httpClient: &http.Client{Transport: transport},
		userAgent:  version.UserAgent("ssecast-cli"),
	}, nil
}

// Config returns the effective configuration.
func (c *Client) Config() Config { return c.config }

// Send publishes text as a text/plain body. The server answers 204 both for
// delivered and for ignored blank messages. Transport failures and retryable
// statuses are retried per Config.Retry; Timeout bounds each attempt.
func (c *Client) Send(ctx context.Context, text string) error {
	return resilience.Retry(ctx, c.config.Retry, func(ctx context.Context) error {
		return c.send(ctx, text)
	})
}

func (c *Client) send(ctx context.Context, text string) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodPost, c.config.MessagePath, strings.NewReader(text))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: send: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Stream is an open subscription.
type Stream struct {
	reader   sse.Reader
	clientID string
}

// ClientID returns the server-assigned ID from the connected event, if the
// server sent one before the first message.
func (s *Stream) ClientID() string { return s.clientID }

// Next returns the next event, including the connected event. Returns
// io.EOF when the server closes the stream.
func (s *Stream) Next() (*sse.Event, error) {
	ev, err := s.reader.Next()
	if err != nil {
		return nil, err
	}
	if ev.Event == "connected" && s.clientID == "" {
		s.clientID = connectedClientID(ev.Data)
	}
	return ev, nil
}

// Close ends the subscription.
func (s *Stream) Close() error {
	return s.reader.Close()
}

// Subscribe opens the event stream. Cancel ctx or call Close to end it.
func (c *Client) Subscribe(ctx context.Context, opts ...sse.Option) (*Stream, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.config.SubscribePath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: subscribe: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer func() { _ = resp.Body.Close() }()
		return nil, statusError(resp)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("client: subscribe: unexpected content type %q", ct)
	}

	return &Stream{reader: sse.NewReader(resp.Body, opts...)}, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: body}
}

// retryable reports whether a failed send may succeed if repeated: transport
// errors and 503/504/429 answers, but never a canceled context.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	return true
}

// IsClosed reports whether err marks a normally ended stream.
func IsClosed(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, context.Canceled)
}

func connectedClientID(data string) string {
	var payload struct {
		ClientID string `json:"client_id"`
	}
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return ""
	}
	return payload.ClientID
}
