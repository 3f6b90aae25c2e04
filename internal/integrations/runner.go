// Package integrations implements the §4.5 task runner: a singleton
// run per (integration, task) enforced at the storage layer, with
// startup reconciliation of runs a previous process left Running.
package integrations

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hiveiam/hive/internal/core/domain"
	"github.com/hiveiam/hive/internal/core/port"
	"github.com/hiveiam/hive/internal/repository"
)

// TaskFunc performs one tick of work for a run, appending log entries
// through monitor as it goes. It returns the run's success flag.
type TaskFunc func(ctx context.Context, monitor *Monitor) (bool, error)

// Task is one scheduled unit of work belonging to an Integration.
type Task struct {
	ID   string
	Func TaskFunc
}

// Integration groups the tasks one external system contributes to the
// runner (e.g. the Google Workspace roster sync).
type Integration struct {
	ID    string
	Tasks []Task
}

// Runner drives the run state machine for a fixed set of registered
// integrations.
type Runner struct {
	Runs         port.IntegrationRunRepository
	Logger       *zap.Logger
	integrations []Integration
}

// NewRunner constructs a Runner over the given integrations.
func NewRunner(runs port.IntegrationRunRepository, logger *zap.Logger, integrations ...Integration) *Runner {
	return &Runner{Runs: runs, Logger: logger, integrations: integrations}
}

// ReconcileOnStartup force-finishes any run left Running by a process
// that died mid-task, so its uniqueness slot is freed before the
// scheduler starts issuing new ticks (§4.5).
func (r *Runner) ReconcileOnStartup(ctx context.Context) error {
	n, err := r.Runs.ReconcileOrphaned(ctx)
	if err != nil {
		return err
	}
	if n > 0 && r.Logger != nil {
		r.Logger.Warn("reconciled orphaned integration runs", zap.Int("count", n))
	}
	return nil
}

// Tick attempts to start and execute integrationID/taskID's task once.
// If a run is already in progress, Start fails with conflict.duplicate
// and the tick is skipped (§4.5).
func (r *Runner) Tick(ctx context.Context, integrationID, taskID string, fn TaskFunc) error {
	run := domain.IntegrationRun{
		ID:            uuid.NewString(),
		IntegrationID: integrationID,
		TaskID:        taskID,
		StartStamp:    time.Now().UTC(),
	}

	if err := r.Runs.Start(ctx, run); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			if r.Logger != nil {
				r.Logger.Info("integration run already in progress, skipping tick",
					zap.String("integration_id", integrationID), zap.String("task_id", taskID))
			}
			return nil
		}
		return err
	}

	monitor := &Monitor{runs: r.Runs, runID: run.ID}
	succeeded, err := fn(ctx, monitor)
	if err != nil {
		succeeded = false
		if r.Logger != nil {
			r.Logger.Error("integration task returned error", zap.String("integration_id", integrationID),
				zap.String("task_id", taskID), zap.Error(err))
		}
	}

	run.Finish(time.Now().UTC(), succeeded)
	return r.Runs.Finish(ctx, run)
}

// Monitor lets a running task append log entries without holding a
// reference to the whole Runner.
type Monitor struct {
	runs  port.IntegrationRunRepository
	runID string
}

// Log appends one entry to the run's log.
func (m *Monitor) Log(ctx context.Context, kind domain.IntegrationLogKind, detail string) error {
	return m.runs.AppendLog(ctx, domain.IntegrationLogEntry{
		ID:     uuid.NewString(),
		RunID:  m.runID,
		Kind:   kind,
		At:     time.Now().UTC(),
		Detail: detail,
	})
}
