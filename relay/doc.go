// Package relay fans messages out across ssecast instances through Redis
// pub/sub. Every Publish goes to a Redis channel; every instance runs one
// subscription goroutine that feeds received payloads into its local hub,
// including the instance that published.
package relay
