package clock

import (
	"context"
	"time"

	"FinkBridge/internal/ports"
)

// Sleeper waits on a real timer.
type Sleeper struct{}

var _ ports.Sleeper = Sleeper{}

// Sleep blocks for d or until ctx is done, whichever comes first.
func (Sleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
