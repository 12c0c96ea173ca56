package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"FinkBridge/internal/domain"
	"FinkBridge/internal/ports"
)

// LoopState is the lifecycle state of the ingestion loop.
type LoopState string

const (
	StateIdle    LoopState = "idle"
	StatePolling LoopState = "polling"
	StateStopped LoopState = "stopped"
)

// Submitter pushes one alert to the platform.
type Submitter interface {
	Submit(ctx context.Context, alert domain.AlertRecord, pc domain.PlatformContext) (domain.SubmissionReport, error)
}

// LoopDeps wires the ingestion loop.
type LoopDeps struct {
	Consumer   ports.AlertConsumer
	Extractor  *Extractor
	Governor   *Governor
	Submitter  Submitter
	Context    domain.PlatformContext
	MaxTimeout time.Duration
	// MaxIdlePolls stops the loop after that many consecutive empty polls; zero never stops.
	MaxIdlePolls int
	Logger       *slog.Logger
}

// LoopStats counts what the loop has seen so far.
type LoopStats struct {
	Polls     int
	Alerts    int
	Unusable  int
	Submitted int
	Failed    int
}

// Loop polls the stream and submits each usable alert, one at a time.
type Loop struct {
	deps LoopDeps

	mu    sync.Mutex
	state LoopState
	stats LoopStats
}

// NewLoop builds an idle loop.
func NewLoop(deps LoopDeps) *Loop {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.MaxTimeout <= 0 {
		deps.MaxTimeout = 5 * time.Second
	}
	return &Loop{deps: deps, state: StateIdle}
}

// State returns the current lifecycle state.
func (l *Loop) State() LoopState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Stats returns a snapshot of the counters.
func (l *Loop) Stats() LoopStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// Run polls until ctx is cancelled or the idle bound is reached, then closes the consumer.
// A submission already in flight is allowed to finish before the loop stops.
func (l *Loop) Run(ctx context.Context) (err error) {
	l.setState(StatePolling)
	defer func() {
		if cerr := l.deps.Consumer.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close consumer: %w", cerr)
		}
		l.setState(StateStopped)
	}()

	logger := l.deps.Logger
	idle := 0

	for {
		if ctx.Err() != nil {
			logger.Info("ingestion stopped", "reason", ctx.Err())
			return nil
		}

		topic, raw, pollErr := l.deps.Consumer.Poll(ctx, l.deps.MaxTimeout)
		l.update(func(s *LoopStats) { s.Polls++ })

		if pollErr != nil {
			if ctx.Err() != nil {
				logger.Info("ingestion stopped", "reason", ctx.Err())
				return nil
			}
			logger.Warn("poll failed", "error", pollErr)
		}

		if raw == nil {
			if pollErr == nil {
				logger.Debug("no alerts received", "timeout", l.deps.MaxTimeout)
			}
			idle++
			if l.deps.MaxIdlePolls > 0 && idle >= l.deps.MaxIdlePolls {
				logger.Info("ingestion stopped", "reason", "idle limit reached", "polls", idle)
				return nil
			}
			continue
		}
		idle = 0
		l.update(func(s *LoopStats) { s.Alerts++ })

		alert, extractErr := l.deps.Extractor.Extract(topic, raw)
		if extractErr != nil {
			l.update(func(s *LoopStats) { s.Unusable++ })
			logger.Debug("alert skipped", "topic", topic, "reason", extractErr)
			continue
		}

		if gateErr := l.deps.Governor.Gate(ctx, l.deps.Context); gateErr != nil {
			logger.Info("ingestion stopped", "reason", gateErr)
			return nil
		}

		report, subErr := l.deps.Submitter.Submit(context.WithoutCancel(ctx), alert, l.deps.Context)
		if subErr != nil {
			l.update(func(s *LoopStats) { s.Failed++ })
			logger.Error("submission aborted", "object", alert.ObjectID, "topic", topic, "error", subErr)
			continue
		}

		l.update(func(s *LoopStats) { s.Submitted++ })
		logger.Debug("submission finished",
			"object", alert.ObjectID, "topic", topic, "status", report.Status(), "report", report.ID)
	}
}

func (l *Loop) setState(state LoopState) {
	l.mu.Lock()
	l.state = state
	l.mu.Unlock()
}

func (l *Loop) update(fn func(*LoopStats)) {
	l.mu.Lock()
	fn(&l.stats)
	l.mu.Unlock()
}
