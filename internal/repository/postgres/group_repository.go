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

// GroupRepository implements port.GroupRepository for PostgreSQL.
type GroupRepository struct {
	pool    *pgxpool.Pool
	builder squirrel.StatementBuilderType
}

// NewGroupRepository constructs a GroupRepository.
func NewGroupRepository(pool *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{
		pool:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a group row.
func (r *GroupRepository) Create(ctx context.Context, group domain.Group) error {
	stmt, args, err := r.builder.Insert("hive.groups").
		Columns("id", "domain", "name_sv", "name_en", "description_sv", "description_en").
		Values(group.ID, group.Domain, group.NameSV, group.NameEN, group.DescriptionSV, group.DescriptionEN).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert group sql: %w", err)
	}

	if _, err := r.pool.Exec(ctx, stmt, args...); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("insert group: %w", err)
	}

	return nil
}

// GetByRef retrieves a group by its (id, domain) composite key.
func (r *GroupRepository) GetByRef(ctx context.Context, ref domain.GroupRef) (*domain.Group, error) {
	stmt, args, err := r.builder.Select("id", "domain", "name_sv", "name_en", "description_sv", "description_en").
		From("hive.groups").
		Where(squirrel.Eq{"id": ref.ID, "domain": ref.Domain}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select group sql: %w", err)
	}

	row := r.pool.QueryRow(ctx, stmt, args...)

	var group domain.Group
	if err := row.Scan(&group.ID, &group.Domain, &group.NameSV, &group.NameEN, &group.DescriptionSV, &group.DescriptionEN); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan group: %w", err)
	}

	return &group, nil
}

// Update modifies an existing group's attributes.
func (r *GroupRepository) Update(ctx context.Context, group domain.Group) error {
	stmt, args, err := r.builder.Update("hive.groups").
		Set("name_sv", group.NameSV).
		Set("name_en", group.NameEN).
		Set("description_sv", group.DescriptionSV).
		Set("description_en", group.DescriptionEN).
		Where(squirrel.Eq{"id": group.ID, "domain": group.Domain}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update group sql: %w", err)
	}

	res, err := r.pool.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update group: %w", err)
	}

	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes a group (cascades to memberships, subgroup edges, tag
// assignments, and permission assignments via FK).
func (r *GroupRepository) Delete(ctx context.Context, ref domain.GroupRef) error {
	stmt, args, err := r.builder.Delete("hive.groups").
		Where(squirrel.Eq{"id": ref.ID, "domain": ref.Domain}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete group sql: %w", err)
	}

	res, err := r.pool.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}

	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// List returns every group, ordered by domain then id.
func (r *GroupRepository) List(ctx context.Context) ([]domain.Group, error) {
	stmt, args, err := r.builder.Select("id", "domain", "name_sv", "name_en", "description_sv", "description_en").
		From("hive.groups").
		OrderBy("domain ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list groups sql: %w", err)
	}

	rows, err := r.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	defer rows.Close()

	groups := make([]domain.Group, 0)
	for rows.Next() {
		var group domain.Group
		if err := rows.Scan(&group.ID, &group.Domain, &group.NameSV, &group.NameEN, &group.DescriptionSV, &group.DescriptionEN); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, group)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}

	return groups, nil
}

// AddSubgroupEdge inserts a parent/child edge. The schema's primary key
// spans all four columns (parent id, parent domain, child id, child
// domain), so the same child can be a subgroup of the same parent at
// most once, but a group may appear as both parent and child of
// unrelated edges without conflict.
func (r *GroupRepository) AddSubgroupEdge(ctx context.Context, edge domain.SubgroupEdge) error {
	stmt, args, err := r.builder.Insert("hive.subgroups").
		Columns("parent_id", "parent_domain", "child_id", "child_domain", "manager").
		Values(edge.Parent.ID, edge.Parent.Domain, edge.Child.ID, edge.Child.Domain, edge.Manager).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert subgroup edge sql: %w", err)
	}

	if _, err := r.pool.Exec(ctx, stmt, args...); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("insert subgroup edge: %w", err)
	}

	return nil
}

// RemoveSubgroupEdge deletes the edge between parent and child, if any.
func (r *GroupRepository) RemoveSubgroupEdge(ctx context.Context, parent, child domain.GroupRef) error {
	stmt, args, err := r.builder.Delete("hive.subgroups").
		Where(squirrel.Eq{
			"parent_id":     parent.ID,
			"parent_domain": parent.Domain,
			"child_id":      child.ID,
			"child_domain":  child.Domain,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete subgroup edge sql: %w", err)
	}

	res, err := r.pool.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete subgroup edge: %w", err)
	}

	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// EdgesByChild returns the edges naming child, i.e. its direct parents.
func (r *GroupRepository) EdgesByChild(ctx context.Context, child domain.GroupRef) ([]domain.SubgroupEdge, error) {
	return r.queryEdges(ctx, squirrel.Eq{"child_id": child.ID, "child_domain": child.Domain})
}

// EdgesByParent returns the edges naming parent, i.e. its direct children.
func (r *GroupRepository) EdgesByParent(ctx context.Context, parent domain.GroupRef) ([]domain.SubgroupEdge, error) {
	return r.queryEdges(ctx, squirrel.Eq{"parent_id": parent.ID, "parent_domain": parent.Domain})
}

func (r *GroupRepository) queryEdges(ctx context.Context, pred squirrel.Eq) ([]domain.SubgroupEdge, error) {
	stmt, args, err := r.builder.Select("parent_id", "parent_domain", "child_id", "child_domain", "manager").
		From("hive.subgroups").
		Where(pred).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select subgroup edges sql: %w", err)
	}

	rows, err := r.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query subgroup edges: %w", err)
	}
	defer rows.Close()

	edges := make([]domain.SubgroupEdge, 0)
	for rows.Next() {
		var edge domain.SubgroupEdge
		if err := rows.Scan(&edge.Parent.ID, &edge.Parent.Domain, &edge.Child.ID, &edge.Child.Domain, &edge.Manager); err != nil {
			return nil, fmt.Errorf("scan subgroup edge: %w", err)
		}
		edges = append(edges, edge)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subgroup edges: %w", err)
	}

	return edges, nil
}

var _ port.GroupRepository = (*GroupRepository)(nil)
