// Package retention prunes terminal executions from the store on a schedule.
// Running executions are never touched.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sentimento/sentimento/pkg/persistence"
)

// Janitor deletes terminal execution records older than MaxAge on the given
// cron schedule.
type Janitor struct {
	repository persistence.ExecutionRepository
	maxAge     time.Duration
	schedule   string
	logger     *slog.Logger
	cron       *cron.Cron
}

func NewJanitor(repository persistence.ExecutionRepository, maxAge time.Duration, schedule string, logger *slog.Logger) *Janitor {
	return &Janitor{
		repository: repository,
		maxAge:     maxAge,
		schedule:   schedule,
		logger:     logger.With("module", "retention"),
		cron:       cron.New(),
	}
}

// Start registers the prune job and begins the schedule. A zero MaxAge
// disables retention entirely.
func (j *Janitor) Start(ctx context.Context) error {
	if j.maxAge == 0 {
		j.logger.Info("Retention disabled, terminal executions are kept forever")

		return nil
	}

	_, err := j.cron.AddFunc(j.schedule, func() {
		j.Prune(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule retention job: %w", err)
	}

	j.cron.Start()
	j.logger.Info("Retention started", "schedule", j.schedule, "max_age", j.maxAge)

	return nil
}

// Prune removes terminal executions that finished before now minus MaxAge.
func (j *Janitor) Prune(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-j.maxAge)

	pruned, err := j.repository.PruneTerminalBefore(ctx, cutoff)
	if err != nil {
		j.logger.Error("Retention prune failed", "error", err)

		return
	}

	if pruned > 0 {
		j.logger.Info("Pruned terminal executions", "count", pruned, "cutoff", cutoff)
	}
}

// Stop halts the schedule and waits for a running prune to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}
