package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"docvec/internal/logger"
)

// Runner repeats reconciliation cycles on a fixed interval. A tick that fires
// while the previous cycle still runs is skipped.
type Runner struct {
	rec      *Reconciler
	interval time.Duration
}

func NewRunner(rec *Reconciler, interval time.Duration) *Runner {
	return &Runner{rec: rec, interval: interval}
}

// Run performs one cycle immediately, then one per interval until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	if r.interval <= 0 {
		return fmt.Errorf("reconcile: interval must be positive, got %s", r.interval)
	}
	log := logger.FromContext(ctx)
	cycle := func() {
		if _, err := r.rec.RunOnce(ctx); err != nil && ctx.Err() == nil {
			log.Error("reconcile cycle failed", "error", err)
		}
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{log})))
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", r.interval), cycle); err != nil {
		return fmt.Errorf("reconcile: schedule: %w", err)
	}
	log.Info("reconcile loop started", "interval", r.interval)
	cycle()
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	log.Info("reconcile loop stopped")
	return nil
}

// cronLogger routes the scheduler's own messages to the structured logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
