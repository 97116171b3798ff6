// Package security builds client TLS settings shared by the outbound
// connections: the publisher client talking to an ssecast server behind
// HTTPS, and the Redis connection used by the relay.
package security
