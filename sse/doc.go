// Package sse implements the subscriber side of ssecast: a Hub holding every
// open event stream and the HTTP entry point that turns a request into one.
//
// # Architecture
//
//   - Hub: registry of open streams; Publish offers a payload to all of them
//   - Client: one open stream with a bounded outbound buffer
//   - ServeSSE: HTTP handler body that registers a Client and writes frames
//   - Component: lifecycle wrapper for the component registry
//
// # Usage
//
//	hub := sse.NewHub(cfg.SSE)
//	router.GET("/api/sse", func(c *gin.Context) {
//		sse.ServeSSE(hub, c.Writer, c.Request)
//	})
//	hub.Publish([]byte("hello"))
//
// Publish runs under the registry lock and never blocks: a client whose
// buffer is full is evicted and closed. A client registered after Publish
// returns never sees that payload.
package sse
