// Package errors provides the structured application error used by ssecast's
// HTTP layer, with machine-readable codes and HTTP status mapping.
package errors
