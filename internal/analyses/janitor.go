package analyses

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/zachzeid/prompteval/internal/revisions"
	"github.com/zachzeid/prompteval/internal/shared/telemetry"
)

// Janitor periodically deletes terminal jobs past their retention window and
// prunes revisions whose prompt is gone.
type Janitor struct {
	Repo      Repo
	Revisions *revisions.Service

	// Schedule is a cron spec; empty means @hourly.
	Schedule string
	// Retention is how long terminal jobs are kept; zero means 24h.
	Retention time.Duration

	engine *cron.Cron
}

// Start registers the sweep with a cron engine and begins running it.
func (j *Janitor) Start() error {
	schedule := j.Schedule
	if schedule == "" {
		schedule = "@hourly"
	}
	j.engine = cron.New()
	if _, err := j.engine.AddFunc(schedule, j.run); err != nil {
		return fmt.Errorf("janitor schedule %q: %w", schedule, err)
	}
	j.engine.Start()
	telemetry.Info("janitor.start", map[string]any{
		"schedule":  schedule,
		"retention": j.retention().String(),
	})
	return nil
}

// Stop halts the cron engine. Running sweeps finish on their own.
func (j *Janitor) Stop() {
	if j.engine != nil {
		j.engine.Stop()
	}
}

func (j *Janitor) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	j.Sweep(ctx)
}

// Sweep runs one cleanup pass.
func (j *Janitor) Sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-j.retention())
	deleted, err := j.Repo.DeleteTerminalBefore(ctx, cutoff)
	if err != nil {
		telemetry.Error("janitor.jobs", map[string]any{"error": sanitizeError(err)})
	}

	var pruned int64
	if j.Revisions != nil {
		pruned, err = j.Revisions.PruneOrphans(ctx)
		if err != nil {
			telemetry.Error("janitor.revisions", map[string]any{"error": sanitizeError(err)})
		}
	}

	if deleted > 0 || pruned > 0 {
		telemetry.Info("janitor.sweep", map[string]any{
			"jobs_deleted":     deleted,
			"revisions_pruned": pruned,
			"retention_cutoff": cutoff.Format(time.RFC3339),
		})
	}
}

func (j *Janitor) retention() time.Duration {
	if j.Retention <= 0 {
		return 24 * time.Hour
	}
	return j.Retention
}
