package utils

import (
	"context"
	"time"
)

// Swappable so retry tests do not actually sleep.
var sleep = time.Sleep

// WaitFor blocks for the given duration or until the context is done,
// whichever comes first. Used as backoff between retries of external calls.
func WaitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sleep(d)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}
