package usecase

import (
	"context"
	"time"

	"FinkBridge/internal/domain"
	"FinkBridge/internal/ports"
)

// Governor spaces submissions by a fixed delay unless the caller is whitelisted.
type Governor struct {
	delay   time.Duration
	sleeper ports.Sleeper
}

// NewGovernor returns a governor sleeping delay before every submission.
func NewGovernor(delay time.Duration, sleeper ports.Sleeper) *Governor {
	return &Governor{delay: delay, sleeper: sleeper}
}

// Gate blocks for the configured delay. It returns ctx.Err() if cancelled while waiting.
func (g *Governor) Gate(ctx context.Context, pc domain.PlatformContext) error {
	if g == nil || pc.Whitelisted || g.delay <= 0 || g.sleeper == nil {
		return ctx.Err()
	}
	return g.sleeper.Sleep(ctx, g.delay)
}
