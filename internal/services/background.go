package services

import (
	"context"
	"log/slog"
	"time"
)

// Detach runs fn on its own goroutine with a fresh deadline, detached from
// the caller's cancellation. Failures are logged and swallowed: detached
// work must never fail or block the request that spawned it.
func Detach(name string, fn func(ctx context.Context) error) {
	go func() {
		defer func() {
			if recovered := recover(); recovered != nil {
				slog.Error("detached task panicked", "task", name, "panic", recovered)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := fn(ctx); err != nil {
			slog.Warn("detached task failed", "task", name, "error", err)
		}
	}()
}
