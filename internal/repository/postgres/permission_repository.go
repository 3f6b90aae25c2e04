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

// PermissionRepository implements port.PermissionRepository for PostgreSQL.
type PermissionRepository struct {
	pool    *pgxpool.Pool
	builder squirrel.StatementBuilderType
}

// NewPermissionRepository constructs a PermissionRepository.
func NewPermissionRepository(pool *pgxpool.Pool) *PermissionRepository {
	return &PermissionRepository{
		pool:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a permission declaration.
func (r *PermissionRepository) Create(ctx context.Context, permission domain.Permission) error {
	stmt, args, err := r.builder.Insert("hive.permissions").
		Columns("system_id", "perm_id", "has_scope", "description").
		Values(permission.SystemID, permission.PermID, permission.HasScope, permission.Description).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert permission sql: %w", err)
	}

	if _, err := r.pool.Exec(ctx, stmt, args...); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("insert permission: %w", err)
	}

	return nil
}

// GetBySystemAndID retrieves a permission by its composite key.
func (r *PermissionRepository) GetBySystemAndID(ctx context.Context, systemID, permID string) (*domain.Permission, error) {
	stmt, args, err := r.builder.Select("system_id", "perm_id", "has_scope", "description").
		From("hive.permissions").
		Where(squirrel.Eq{"system_id": systemID, "perm_id": permID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select permission sql: %w", err)
	}

	row := r.pool.QueryRow(ctx, stmt, args...)

	var permission domain.Permission
	if err := row.Scan(&permission.SystemID, &permission.PermID, &permission.HasScope, &permission.Description); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan permission: %w", err)
	}

	return &permission, nil
}

// Update modifies a permission's scope flag and description.
func (r *PermissionRepository) Update(ctx context.Context, permission domain.Permission) error {
	stmt, args, err := r.builder.Update("hive.permissions").
		Set("has_scope", permission.HasScope).
		Set("description", permission.Description).
		Where(squirrel.Eq{"system_id": permission.SystemID, "perm_id": permission.PermID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update permission sql: %w", err)
	}

	res, err := r.pool.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update permission: %w", err)
	}

	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes a permission (cascades to permission_assignments via FK).
func (r *PermissionRepository) Delete(ctx context.Context, systemID, permID string) error {
	stmt, args, err := r.builder.Delete("hive.permissions").
		Where(squirrel.Eq{"system_id": systemID, "perm_id": permID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete permission sql: %w", err)
	}

	res, err := r.pool.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete permission: %w", err)
	}

	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ListBySystem returns every permission declared by a system.
func (r *PermissionRepository) ListBySystem(ctx context.Context, systemID string) ([]domain.Permission, error) {
	stmt, args, err := r.builder.Select("system_id", "perm_id", "has_scope", "description").
		From("hive.permissions").
		Where(squirrel.Eq{"system_id": systemID}).
		OrderBy("perm_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list permissions sql: %w", err)
	}

	rows, err := r.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query permissions: %w", err)
	}
	defer rows.Close()

	permissions := make([]domain.Permission, 0)
	for rows.Next() {
		var permission domain.Permission
		if err := rows.Scan(&permission.SystemID, &permission.PermID, &permission.HasScope, &permission.Description); err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		permissions = append(permissions, permission)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate permissions: %w", err)
	}

	return permissions, nil
}

// CreateAssignment inserts a permission assignment to a group or API token.
func (r *PermissionRepository) CreateAssignment(ctx context.Context, assignment domain.PermissionAssignment) error {
	var groupID, groupDomain any
	if assignment.Group != nil {
		groupID, groupDomain = assignment.Group.ID, assignment.Group.Domain
	}

	stmt, args, err := r.builder.Insert("hive.permission_assignments").
		Columns("id", "system_id", "perm_id", "scope", "group_id", "group_domain", "api_token_id").
		Values(assignment.ID, assignment.SystemID, assignment.PermID, assignment.Scope, groupID, groupDomain, assignment.APITokenID).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert permission assignment sql: %w", err)
	}

	if _, err := r.pool.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert permission assignment: %w", err)
	}

	return nil
}

// DeleteAssignment removes a permission assignment by id.
func (r *PermissionRepository) DeleteAssignment(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Delete("hive.permission_assignments").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete permission assignment sql: %w", err)
	}

	res, err := r.pool.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete permission assignment: %w", err)
	}

	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// AssignmentsForGroups returns every assignment made directly to any of
// the given groups, across all systems.
func (r *PermissionRepository) AssignmentsForGroups(ctx context.Context, groups []domain.GroupRef) ([]domain.PermissionAssignment, error) {
	if len(groups) == 0 {
		return nil, nil
	}

	or := make(squirrel.Or, 0, len(groups))
	for _, g := range groups {
		or = append(or, squirrel.Eq{"group_id": g.ID, "group_domain": g.Domain})
	}

	stmt, args, err := r.builder.Select("id", "system_id", "perm_id", "scope", "group_id", "group_domain", "api_token_id").
		From("hive.permission_assignments").
		Where(or).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select permission assignments by group sql: %w", err)
	}

	return r.queryAssignments(ctx, stmt, args...)
}

// AssignmentsForAPIToken returns every assignment made directly to the
// given API token.
func (r *PermissionRepository) AssignmentsForAPIToken(ctx context.Context, apiTokenID string) ([]domain.PermissionAssignment, error) {
	stmt, args, err := r.builder.Select("id", "system_id", "perm_id", "scope", "group_id", "group_domain", "api_token_id").
		From("hive.permission_assignments").
		Where(squirrel.Eq{"api_token_id": apiTokenID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select permission assignments by token sql: %w", err)
	}

	return r.queryAssignments(ctx, stmt, args...)
}

func (r *PermissionRepository) queryAssignments(ctx context.Context, stmt string, args ...any) ([]domain.PermissionAssignment, error) {
	rows, err := r.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query permission assignments: %w", err)
	}
	defer rows.Close()

	assignments := make([]domain.PermissionAssignment, 0)
	for rows.Next() {
		var (
			a                        domain.PermissionAssignment
			groupID, groupDomain     *string
			apiTokenID               *string
		)
		if err := rows.Scan(&a.ID, &a.SystemID, &a.PermID, &a.Scope, &groupID, &groupDomain, &apiTokenID); err != nil {
			return nil, fmt.Errorf("scan permission assignment: %w", err)
		}
		if groupID != nil && groupDomain != nil {
			a.Group = &domain.GroupRef{ID: *groupID, Domain: *groupDomain}
		}
		a.APITokenID = apiTokenID
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate permission assignments: %w", err)
	}

	return assignments, nil
}

var _ port.PermissionRepository = (*PermissionRepository)(nil)
