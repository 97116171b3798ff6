package sse

const (
	// EventTypeConnected is sent once when a stream opens.
	EventTypeConnected = "connected"

	// EventTypeKeepAlive tags keep-alive comment frames.
	EventTypeKeepAlive = "keepalive"
)

// ConnectedEvent is the payload of the connected frame.
type ConnectedEvent struct {
	ClientID string `json:"client_id"`
}
