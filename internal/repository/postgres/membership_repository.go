package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hiveiam/hive/internal/core/domain"
	"github.com/hiveiam/hive/internal/core/port"
	"github.com/hiveiam/hive/internal/repository"
)

// MembershipRepository implements port.MembershipRepository for PostgreSQL.
type MembershipRepository struct {
	pool    *pgxpool.Pool
	builder squirrel.StatementBuilderType
}

// NewMembershipRepository constructs a MembershipRepository.
func NewMembershipRepository(pool *pgxpool.Pool) *MembershipRepository {
	return &MembershipRepository{
		pool:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a direct membership row.
func (r *MembershipRepository) Create(ctx context.Context, membership domain.DirectMembership) error {
	stmt, args, err := r.builder.Insert("hive.direct_memberships").
		Columns("id", "username", "group_id", "group_domain", "from_date", "until_date", "manager").
		Values(membership.ID, membership.Username, membership.Group.ID, membership.Group.Domain, membership.From, membership.Until, membership.Manager).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert membership sql: %w", err)
	}

	if _, err := r.pool.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert membership: %w", err)
	}

	return nil
}

// Delete removes a direct membership row by id.
func (r *MembershipRepository) Delete(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Delete("hive.direct_memberships").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete membership sql: %w", err)
	}

	res, err := r.pool.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}

	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// GetByID retrieves a direct membership row by id.
func (r *MembershipRepository) GetByID(ctx context.Context, id string) (*domain.DirectMembership, error) {
	stmt, args, err := r.builder.Select("id", "username", "group_id", "group_domain", "from_date", "until_date", "manager").
		From("hive.direct_memberships").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select membership sql: %w", err)
	}

	row := r.pool.QueryRow(ctx, stmt, args...)

	membership, err := scanMembership(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan membership: %w", err)
	}

	return membership, nil
}

// DirectMembershipsForUser returns every direct membership row for
// username whose [from, until] window covers at.
func (r *MembershipRepository) DirectMembershipsForUser(ctx context.Context, username string, at time.Time) ([]domain.DirectMembership, error) {
	return r.queryActive(ctx, squirrel.Eq{"username": username}, at)
}

// DirectMembersOfGroup returns every direct membership row naming group
// whose [from, until] window covers at.
func (r *MembershipRepository) DirectMembersOfGroup(ctx context.Context, group domain.GroupRef, at time.Time) ([]domain.DirectMembership, error) {
	return r.queryActive(ctx, squirrel.Eq{"group_id": group.ID, "group_domain": group.Domain}, at)
}

func (r *MembershipRepository) queryActive(ctx context.Context, pred squirrel.Eq, at time.Time) ([]domain.DirectMembership, error) {
	day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())

	stmt, args, err := r.builder.Select("id", "username", "group_id", "group_domain", "from_date", "until_date", "manager").
		From("hive.direct_memberships").
		Where(pred).
		Where(squirrel.LtOrEq{"from_date": day}).
		Where(squirrel.GtOrEq{"until_date": day}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select active memberships sql: %w", err)
	}

	rows, err := r.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query active memberships: %w", err)
	}
	defer rows.Close()

	memberships := make([]domain.DirectMembership, 0)
	for rows.Next() {
		membership, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		memberships = append(memberships, *membership)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memberships: %w", err)
	}

	return memberships, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMembership(row rowScanner) (*domain.DirectMembership, error) {
	var membership domain.DirectMembership
	if err := row.Scan(
		&membership.ID,
		&membership.Username,
		&membership.Group.ID,
		&membership.Group.Domain,
		&membership.From,
		&membership.Until,
		&membership.Manager,
	); err != nil {
		return nil, err
	}
	return &membership, nil
}

var _ port.MembershipRepository = (*MembershipRepository)(nil)
