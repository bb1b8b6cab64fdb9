package testutil

import (
	"context"
	"testing"
	"time"
)

// Timeout bounds every context handed out by Context.
const Timeout = 10 * time.Second

// Context возвращает context, который отменяется по завершении теста или по Timeout.
func Context(t testing.TB) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	t.Cleanup(cancel)
	return ctx
}

// CanceledContext returns a context that is already canceled.
func CanceledContext(t testing.TB) context.Context {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}
