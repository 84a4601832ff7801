package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"khata/internal/core"
	"khata/internal/log"
)

// Scheduler runs the scheduled export on a cron spec evaluated in PKT.
type Scheduler struct {
	cron   *cron.Cron
	worker *ReportWorker
}

// NewScheduler validates spec (standard five-field cron) and registers the
// export job.
func NewScheduler(ctx context.Context, spec string, w *ReportWorker) (*Scheduler, error) {
	c := cron.New(cron.WithLocation(core.PKT))
	_, err := c.AddFunc(spec, func() {
		slog.InfoContext(ctx, "Running scheduled export", log.FieldComponent, log.ComponentWorker)
		if err := w.ExportCurrentMonth(ctx); err != nil {
			slog.ErrorContext(ctx, "Scheduled export finished with errors",
				log.FieldComponent, log.ComponentWorker,
				log.FieldError, err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid report schedule %q: %w", spec, err)
	}
	return &Scheduler{cron: c, worker: w}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and waits for a running export to finish or ctx
// to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Entries reports how many jobs are registered.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
