// Package client talks to an ssecast server over HTTP: Send publishes a
// message and Subscribe opens the event stream.
//
//	c, _ := client.New(client.Config{BaseURL: "http://localhost:8080"})
//	err := c.Send(ctx, "hello")
package client
