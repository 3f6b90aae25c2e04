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

// SystemRepository implements port.SystemRepository for PostgreSQL.
type SystemRepository struct {
	pool    *pgxpool.Pool
	builder squirrel.StatementBuilderType
}

// NewSystemRepository constructs a SystemRepository.
func NewSystemRepository(pool *pgxpool.Pool) *SystemRepository {
	return &SystemRepository{
		pool:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a system row.
func (r *SystemRepository) Create(ctx context.Context, system domain.System) error {
	stmt, args, err := r.builder.Insert("hive.systems").
		Columns("id", "description").
		Values(system.ID, system.Description).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert system sql: %w", err)
	}

	if _, err := r.pool.Exec(ctx, stmt, args...); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("insert system: %w", err)
	}

	return nil
}

// GetByID retrieves a system by id.
func (r *SystemRepository) GetByID(ctx context.Context, id string) (*domain.System, error) {
	stmt, args, err := r.builder.Select("id", "description").
		From("hive.systems").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select system sql: %w", err)
	}

	row := r.pool.QueryRow(ctx, stmt, args...)

	var system domain.System
	if err := row.Scan(&system.ID, &system.Description); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan system: %w", err)
	}

	return &system, nil
}

// Update modifies a system's description.
func (r *SystemRepository) Update(ctx context.Context, system domain.System) error {
	stmt, args, err := r.builder.Update("hive.systems").
		Set("description", system.Description).
		Where(squirrel.Eq{"id": system.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update system sql: %w", err)
	}

	res, err := r.pool.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update system: %w", err)
	}

	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes a system (cascades to permissions, tags, and api_tokens
// via FK). The caller must prevent deletion of domain.HiveSystemID.
func (r *SystemRepository) Delete(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Delete("hive.systems").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete system sql: %w", err)
	}

	res, err := r.pool.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete system: %w", err)
	}

	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// List returns every system ordered by id.
func (r *SystemRepository) List(ctx context.Context) ([]domain.System, error) {
	stmt, args, err := r.builder.Select("id", "description").
		From("hive.systems").
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list systems sql: %w", err)
	}

	rows, err := r.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query systems: %w", err)
	}
	defer rows.Close()

	systems := make([]domain.System, 0)
	for rows.Next() {
		var system domain.System
		if err := rows.Scan(&system.ID, &system.Description); err != nil {
			return nil, fmt.Errorf("scan system: %w", err)
		}
		systems = append(systems, system)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate systems: %w", err)
	}

	return systems, nil
}

var _ port.SystemRepository = (*SystemRepository)(nil)
