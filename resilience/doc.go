// Package resilience guards calls to things that can fail transiently.
//
// Breaker fails fast once a dependency has failed repeatedly, so publishers
// get an immediate error instead of waiting on a dead Redis. Retry repeats an
// operation with exponential backoff while the error says it is worth it.
package resilience
