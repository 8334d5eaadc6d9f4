package scheduler

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"
)

// lastRun is the persisted marker that survives process restarts.
type lastRun struct {
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
}

// Runner triggers workflow runs on a fixed interval for unattended
// operation. A run is skipped when the previous one finished more recently
// than the minimum gap.
type Runner struct {
	interval  time.Duration
	minGap    time.Duration
	statePath string
	log       *slog.Logger
}

// New builds a runner. statePath holds the last-run marker between
// restarts; pass "" to keep no marker.
func New(interval, minGap time.Duration, statePath string, log *slog.Logger) *Runner {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Runner{interval: interval, minGap: minGap, statePath: statePath, log: log}
}

// Start runs job immediately (gap permitting) and then on every tick until
// the context is cancelled.
func (r *Runner) Start(ctx context.Context, job func(ctx context.Context) string) {
	r.maybeRun(ctx, job)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.maybeRun(ctx, job)
		case <-ctx.Done():
			r.log.Info("scheduler stopped")
			return
		}
	}
}

func (r *Runner) maybeRun(ctx context.Context, job func(ctx context.Context) string) {
	if last, ok := r.loadLastRun(); ok && time.Since(last.Timestamp) < r.minGap {
		r.log.Info("skipping scheduled run", "last_run", last.Timestamp, "min_gap", r.minGap)
		return
	}

	r.log.Info("scheduled run starting")
	status := job(ctx)
	r.saveLastRun(lastRun{Timestamp: time.Now().UTC(), Status: status})
}

func (r *Runner) loadLastRun() (lastRun, bool) {
	if r.statePath == "" {
		return lastRun{}, false
	}
	data, err := os.ReadFile(r.statePath)
	if err != nil {
		return lastRun{}, false
	}
	var lr lastRun
	if err := json.Unmarshal(data, &lr); err != nil {
		return lastRun{}, false
	}
	return lr, true
}

func (r *Runner) saveLastRun(lr lastRun) {
	if r.statePath == "" {
		return
	}
	data, err := json.MarshalIndent(lr, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(r.statePath, data, 0644); err != nil {
		r.log.Warn("could not save last-run marker", "path", r.statePath, "err", err)
	}
}
