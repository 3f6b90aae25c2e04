package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hiveiam/hive/internal/core/domain"
	"github.com/hiveiam/hive/internal/core/port"
)

// AuditRepository implements port.AuditSink with PostgreSQL as the
// durable record of truth; internal/infra/kafka additionally mirrors
// entries for downstream consumers.
type AuditRepository struct {
	pool    *pgxpool.Pool
	builder squirrel.StatementBuilderType
}

// NewAuditRepository constructs an AuditRepository.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{
		pool:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Append inserts one audit log row.
func (r *AuditRepository) Append(ctx context.Context, entry domain.AuditLog) error {
	stmt, args, err := r.builder.Insert("hive.audit_log").
		Columns("id", "action", "target_kind", "target_id", "actor", "stamp", "details").
		Values(entry.ID, entry.Action, entry.TargetKind, entry.TargetID, entry.Actor, entry.Stamp, entry.Details).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert audit log sql: %w", err)
	}

	if _, err := r.pool.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}

	return nil
}

var _ port.AuditSink = (*AuditRepository)(nil)
