// Package redis wraps go-redis with ssecast logging, configuration
// conventions and component lifecycle. ssecast uses it only for pub/sub:
// the relay publishes every message on a channel and each instance
// subscribes to it.
//
//	cfg := redis.Config{Enabled: true, Addr: "localhost:6379"}
//	comp := redis.NewComponent(cfg, log)
//	registry.Register(comp)
//	// after start
//	comp.Client().Publish(ctx, "ssecast:messages", []byte("hi"))
package redis
