package explorer

import (
	"context"
	"time"
)

// Sleeper waits for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// Backoff doubles the delay after every rate-limited attempt
type Backoff struct {
	Initial     time.Duration
	MaxAttempts int
	Sleep       Sleeper
}

func defaultBackoff() Backoff {
	return Backoff{
		Initial:     500 * time.Millisecond,
		MaxAttempts: 5,
		Sleep:       sleepContext,
	}
}

// Delay returns the wait before the attempt that follows attempt n (1-based)
func (b Backoff) Delay(n int) time.Duration {
	d := b.Initial
	for i := 1; i < n; i++ {
		d *= 2
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
