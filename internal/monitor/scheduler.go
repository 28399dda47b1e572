package monitor

import (
	"context"
	"time"

	"wallet-watch/internal/infra/log"

	"go.uber.org/zap"
)

// DefaultErrorBackoff is how long the continuous loop waits after a failed
// cycle before trying again, instead of a full polling interval.
const DefaultErrorBackoff = 5 * time.Minute

// Runner drives the monitor once or on an interval. Sleep is injectable so
// tests can walk through many cycles without real delays.
type Runner struct {
	Monitor      *Monitor
	Interval     time.Duration
	ErrorBackoff time.Duration

	// Sleep waits for d or until ctx is done, returning ctx.Err() in the
	// latter case. Defaults to a timer-based wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

func NewRunner(m *Monitor, interval time.Duration) *Runner {
	return &Runner{
		Monitor:      m,
		Interval:     interval,
		ErrorBackoff: DefaultErrorBackoff,
		Sleep:        sleepContext,
	}
}

// RunOnce executes exactly one cycle and returns its error.
func (r *Runner) RunOnce(ctx context.Context) error {
	_, err := r.Monitor.RunCycle(ctx)
	return err
}

// Run loops until ctx is cancelled. A failing cycle is logged and retried
// after ErrorBackoff; a termination signal interrupts the sleep promptly
// and the loop exits cleanly between cycles. Returns nil on clean shutdown.
func (r *Runner) Run(ctx context.Context) error {
	log.LogSuccess("Monitor service started",
		zap.String("entity_id", r.Monitor.EntityID),
		zap.Duration("interval", r.Interval))

	for {
		wait := r.Interval

		if _, err := r.Monitor.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				log.LogInfo("Shutdown requested during cycle")
				return nil
			}
			log.LogError("Cycle failed, retrying after backoff",
				zap.Duration("backoff", r.errorBackoff()),
				zap.Error(err))
			wait = r.errorBackoff()
		} else {
			log.LogInfo("Next check scheduled",
				zap.Time("at", time.Now().Add(wait)),
				zap.Duration("in", wait))
		}

		if err := r.sleep(ctx, wait); err != nil {
			log.LogInfo("Shutdown requested, exiting between cycles")
			return nil
		}
	}
}

func (r *Runner) errorBackoff() time.Duration {
	if r.ErrorBackoff > 0 {
		return r.ErrorBackoff
	}
	return DefaultErrorBackoff
}

func (r *Runner) sleep(ctx context.Context, d time.Duration) error {
	if r.Sleep != nil {
		return r.Sleep(ctx, d)
	}
	return sleepContext(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
