package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/kbukum/ssecast/component"
)

// DefaultWait bounds Eventually when no timeout is given.
const DefaultWait = 2 * time.Second

// Start starts c and stops it when the test ends. A start failure fails the
// test immediately.
func Start[C component.Component](tb testing.TB, c C) C {
	tb.Helper()
	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		tb.Fatalf("start %s: %v", c.Name(), err)
	}
	tb.Cleanup(func() {
		if err := c.Stop(ctx); err != nil {
			tb.Logf("stop %s: %v", c.Name(), err)
		}
	})
	return c
}

// Eventually polls cond every 5ms until it holds or timeout passes (0 means
// DefaultWait), then fails the test with msg.
func Eventually(tb testing.TB, timeout time.Duration, cond func() bool, msg string, args ...any) {
	tb.Helper()
	if timeout <= 0 {
		timeout = DefaultWait
	}
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			tb.Fatalf(msg, args...)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// Receive waits for one value from ch, failing the test after timeout (0
// means DefaultWait).
func Receive[T any](tb testing.TB, ch <-chan T, timeout time.Duration) T {
	tb.Helper()
	if timeout <= 0 {
		timeout = DefaultWait
	}
	select {
	case v := <-ch:
		return v
	case <-time.After(timeout):
		tb.Fatalf("timed out after %s waiting for value", timeout)
	}
	var zero T
	return zero
}
