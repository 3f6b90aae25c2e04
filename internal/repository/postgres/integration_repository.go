package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hiveiam/hive/internal/core/domain"
	"github.com/hiveiam/hive/internal/core/port"
	"github.com/hiveiam/hive/internal/repository"
)

// IntegrationRunRepository implements port.IntegrationRunRepository for
// PostgreSQL. Start relies on a partial unique index on
// (integration_id, task_id) WHERE end_stamp IS NULL to enforce the
// at-most-one-running-run invariant (§4.5); a unique-violation from
// that index surfaces as repository.ErrConflict.
type IntegrationRunRepository struct {
	pool    *pgxpool.Pool
	builder squirrel.StatementBuilderType
}

// NewIntegrationRunRepository constructs an IntegrationRunRepository.
func NewIntegrationRunRepository(pool *pgxpool.Pool) *IntegrationRunRepository {
	return &IntegrationRunRepository{
		pool:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Start inserts a new Running row.
func (r *IntegrationRunRepository) Start(ctx context.Context, run domain.IntegrationRun) error {
	stmt, args, err := r.builder.Insert("hive.integration_runs").
		Columns("id", "integration_id", "task_id", "start_stamp", "end_stamp", "succeeded").
		Values(run.ID, run.IntegrationID, run.TaskID, run.StartStamp, run.EndStamp, run.Succeeded).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert integration run sql: %w", err)
	}

	if _, err := r.pool.Exec(ctx, stmt, args...); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("insert integration run: %w", err)
	}

	return nil
}

// Finish transitions a run to Finished.
func (r *IntegrationRunRepository) Finish(ctx context.Context, run domain.IntegrationRun) error {
	stmt, args, err := r.builder.Update("hive.integration_runs").
		Set("end_stamp", run.EndStamp).
		Set("succeeded", run.Succeeded).
		Where(squirrel.Eq{"id": run.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build finish integration run sql: %w", err)
	}

	res, err := r.pool.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("finish integration run: %w", err)
	}

	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// AppendLog inserts one log line for a run.
func (r *IntegrationRunRepository) AppendLog(ctx context.Context, entry domain.IntegrationLogEntry) error {
	stmt, args, err := r.builder.Insert("hive.integration_log_entries").
		Columns("id", "run_id", "kind", "at", "detail").
		Values(entry.ID, entry.RunID, entry.Kind, entry.At, entry.Detail).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert integration log entry sql: %w", err)
	}

	if _, err := r.pool.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert integration log entry: %w", err)
	}

	return nil
}

// GetByID retrieves a run by id.
func (r *IntegrationRunRepository) GetByID(ctx context.Context, id string) (*domain.IntegrationRun, error) {
	stmt, args, err := r.builder.Select("id", "integration_id", "task_id", "start_stamp", "end_stamp", "succeeded").
		From("hive.integration_runs").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select integration run sql: %w", err)
	}

	row := r.pool.QueryRow(ctx, stmt, args...)

	run, err := scanIntegrationRun(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan integration run: %w", err)
	}

	return run, nil
}

// ListRunning returns every run with a NULL end_stamp.
func (r *IntegrationRunRepository) ListRunning(ctx context.Context) ([]domain.IntegrationRun, error) {
	return r.queryRuns(ctx, squirrel.Eq{"end_stamp": nil})
}

// ListByIntegrationAndTask returns runs for a given (integration, task)
// pair, most recent first.
func (r *IntegrationRunRepository) ListByIntegrationAndTask(ctx context.Context, integrationID, taskID string) ([]domain.IntegrationRun, error) {
	stmt, args, err := r.builder.Select("id", "integration_id", "task_id", "start_stamp", "end_stamp", "succeeded").
		From("hive.integration_runs").
		Where(squirrel.Eq{"integration_id": integrationID, "task_id": taskID}).
		OrderBy("start_stamp DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select integration runs sql: %w", err)
	}

	rows, err := r.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query integration runs: %w", err)
	}
	defer rows.Close()

	return scanIntegrationRuns(rows)
}

// ReconcileOrphaned force-finishes every Running row as failed, stamping
// end_stamp with the current time. Call once at startup before any new
// run is started, so a process that died mid-task never permanently
// blocks its (integration, task) uniqueness slot.
func (r *IntegrationRunRepository) ReconcileOrphaned(ctx context.Context) (int, error) {
	stmt, args, err := r.builder.Update("hive.integration_runs").
		Set("end_stamp", squirrel.Expr("now()")).
		Set("succeeded", false).
		Where(squirrel.Eq{"end_stamp": nil}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build reconcile integration runs sql: %w", err)
	}

	res, err := r.pool.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("reconcile integration runs: %w", err)
	}

	return int(res.RowsAffected()), nil
}

func (r *IntegrationRunRepository) queryRuns(ctx context.Context, pred squirrel.Eq) ([]domain.IntegrationRun, error) {
	stmt, args, err := r.builder.Select("id", "integration_id", "task_id", "start_stamp", "end_stamp", "succeeded").
		From("hive.integration_runs").
		Where(pred).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select integration runs sql: %w", err)
	}

	rows, err := r.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query integration runs: %w", err)
	}
	defer rows.Close()

	return scanIntegrationRuns(rows)
}

func scanIntegrationRun(row rowScanner) (*domain.IntegrationRun, error) {
	var run domain.IntegrationRun
	if err := row.Scan(&run.ID, &run.IntegrationID, &run.TaskID, &run.StartStamp, &run.EndStamp, &run.Succeeded); err != nil {
		return nil, err
	}
	return &run, nil
}

func scanIntegrationRuns(rows pgx.Rows) ([]domain.IntegrationRun, error) {
	runs := make([]domain.IntegrationRun, 0)
	for rows.Next() {
		run, err := scanIntegrationRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan integration run: %w", err)
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate integration runs: %w", err)
	}

	return runs, nil
}

var _ port.IntegrationRunRepository = (*IntegrationRunRepository)(nil)
