package port

import (
	"context"

	"github.com/hiveiam/hive/internal/core/domain"
)

// IntegrationRunRepository persists the §4.5 run state machine. Start
// must enforce the uniqueness constraint that at most one run per
// (integrationID, taskID) may have a NULL end_stamp at a time.
type IntegrationRunRepository interface {
	Start(ctx context.Context, run domain.IntegrationRun) error
	Finish(ctx context.Context, run domain.IntegrationRun) error
	AppendLog(ctx context.Context, entry domain.IntegrationLogEntry) error

	GetByID(ctx context.Context, id string) (*domain.IntegrationRun, error)
	ListRunning(ctx context.Context) ([]domain.IntegrationRun, error)
	ListByIntegrationAndTask(ctx context.Context, integrationID, taskID string) ([]domain.IntegrationRun, error)

	// ReconcileOrphaned finds runs left Running by a previous process
	// that died mid-task and force-finishes them as failed, so a
	// crashed worker never blocks a task's uniqueness slot forever.
	ReconcileOrphaned(ctx context.Context) (int, error)
}
