package outbox

import (
	"context"
	"log/slog"
	"time"
)

// Trigger drives sweeps outside the sweeper's own loop: synchronously right
// after a commit, and via coalesced kicks from unrelated requests as the
// safety net for events whose immediate dispatch never ran.
type Trigger struct {
	sweeper *Sweeper
	logger  *slog.Logger
	kicks   chan struct{}
}

// NewTrigger creates a trigger for the given sweeper.
func NewTrigger(sweeper *Sweeper, logger *slog.Logger) *Trigger {
	return &Trigger{
		sweeper: sweeper,
		logger:  logger,
		kicks:   make(chan struct{}, 1),
	}
}

// AfterCommit runs one synchronous sweep for events harvested by a
// just-committed transaction. The business write already succeeded, so any
// failure here is logged and swallowed: the caller never sees it, and the
// fallback path retries the events.
func (t *Trigger) AfterCommit(ctx context.Context) {
	if _, err := t.sweeper.Sweep(ctx); err != nil {
		t.logger.Error("immediate outbox sweep failed", "error", err)
	}
}

// Kick signals the background loop to sweep soon. Non-blocking; pending
// kicks coalesce into one sweep.
func (t *Trigger) Kick() {
	select {
	case t.kicks <- struct{}{}:
	default:
	}
}

// Run processes kicks until ctx is cancelled.
func (t *Trigger) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.kicks:
			if _, err := t.sweeper.Sweep(ctx); err != nil {
				t.logger.Error("fallback outbox sweep failed", "error", err)
			}
		}
	}
}

// Poller invokes the sweeper on a fixed interval. It is the standalone
// fallback for deployments that do not run the request-driven trigger, and
// the recovery path after a crash between commit and immediate dispatch.
type Poller struct {
	sweeper  *Sweeper
	logger   *slog.Logger
	interval time.Duration
}

// NewPoller creates a poller with the given sweep interval.
func NewPoller(sweeper *Sweeper, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Poller{sweeper: sweeper, logger: logger, interval: interval}
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("outbox poller started", "interval", p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("outbox poller stopped")
			return
		case <-ticker.C:
			if _, err := p.sweeper.Sweep(ctx); err != nil {
				p.logger.Error("outbox poll sweep failed", "error", err)
			}
		}
	}
}
