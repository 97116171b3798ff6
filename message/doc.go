// Package message accepts published text and hands it to the broadcast
// path, either straight to the local hub or through the cross-instance
// relay. It also mounts the HTTP routes for publishing and subscribing.
package message
