package crawler

import (
	"context"
	"time"
)

// Settler waits for a page to become stable after a control was activated
type Settler interface {
	Settle(ctx context.Context) error
}

// FixedDelay waits a fixed duration. It returns early with the context error
// when ctx is cancelled.
type FixedDelay time.Duration

func (d FixedDelay) Settle(ctx context.Context) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(time.Duration(d))
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NoDelay returns immediately
type NoDelay struct{}

func (NoDelay) Settle(ctx context.Context) error {
	return ctx.Err()
}
