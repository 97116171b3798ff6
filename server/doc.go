// Package server provides ssecast's HTTP server: a Gin engine mounted on a
// ServeMux, wrapped in the net/http middleware stack and served over HTTP/1.1
// and h2c so many event streams can share one connection.
//
// # Middleware
//
// Built-in middleware (server/middleware), outermost first:
//
//   - Recovery: panic recovery with a structured 500 body
//   - RequestID: X-Request-Id propagation
//   - CORS: cross-origin headers and preflight
//   - BodySizeLimit: request body cap
//   - RequestLogger: one log line per request
//
// # Endpoints
//
// Built-in endpoints (server/endpoint): /health, /health/live,
// /health/ready and /info.
package server
