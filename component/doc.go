// Package component defines the lifecycle contract shared by ssecast's
// infrastructure pieces (SSE hub, Redis, relay, HTTP server) and a registry
// that starts them in order and stops them in reverse.
package component
