// Package reaper bounds idempotency-record storage growth by periodically
// deleting terminal records past their retention window.
package reaper

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/riverbend-community/community-api/internal/app/idempotency"
)

// Reaper deletes COMPLETED and FAILED idempotency records older than the
// retention window. It never deletes PROCESSING records, regardless of age:
// an old marker may still be guarding a legitimately slow in-flight request,
// and erasing it would let a retry re-execute work.
type Reaper struct {
	svc       *idempotency.Service
	retention time.Duration
	logger    *slog.Logger
}

func New(svc *idempotency.Service, retention time.Duration, logger *slog.Logger) *Reaper {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reaper{svc: svc, retention: retention, logger: logger}
}

// RunOnce executes one purge pass. Runs are independent and idempotent;
// deleting zero rows is a normal outcome, and the reaper can be triggered
// on demand between scheduled runs.
func (r *Reaper) RunOnce(ctx context.Context) (int64, error) {
	deleted, err := r.svc.PurgeExpired(ctx, r.retention)
	if err != nil {
		r.logger.Error("idempotency reap failed", "error", err)
		return 0, err
	}
	r.logger.Info("idempotency reap completed", "deleted", deleted, "retention", r.retention)
	return deleted, nil
}

// Start schedules RunOnce on the given cron expression (standard 5-field
// syntax) and returns a stop function. Runs are serialized by cron's job
// runner, so a slow purge cannot overlap the next one within a single
// process.
func (r *Reaper) Start(spec string) (func(), error) {
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(spec, func() {
		_, _ = r.RunOnce(context.Background())
	}); err != nil {
		return nil, err
	}
	c.Start()
	return func() { c.Stop() }, nil
}
