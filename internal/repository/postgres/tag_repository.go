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

// TagRepository implements port.TagRepository for PostgreSQL.
type TagRepository struct {
	pool    *pgxpool.Pool
	builder squirrel.StatementBuilderType
}

// NewTagRepository constructs a TagRepository.
func NewTagRepository(pool *pgxpool.Pool) *TagRepository {
	return &TagRepository{
		pool:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a tag declaration.
func (r *TagRepository) Create(ctx context.Context, tag domain.Tag) error {
	stmt, args, err := r.builder.Insert("hive.tags").
		Columns("system_id", "tag_id", "supports_users", "supports_groups", "has_content", "description").
		Values(tag.SystemID, tag.TagID, tag.SupportsUsers, tag.SupportsGroups, tag.HasContent, tag.Description).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert tag sql: %w", err)
	}

	if _, err := r.pool.Exec(ctx, stmt, args...); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("insert tag: %w", err)
	}

	return nil
}

// GetBySystemAndID retrieves a tag by its composite key.
func (r *TagRepository) GetBySystemAndID(ctx context.Context, systemID, tagID string) (*domain.Tag, error) {
	stmt, args, err := r.builder.Select("system_id", "tag_id", "supports_users", "supports_groups", "has_content", "description").
		From("hive.tags").
		Where(squirrel.Eq{"system_id": systemID, "tag_id": tagID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select tag sql: %w", err)
	}

	row := r.pool.QueryRow(ctx, stmt, args...)

	var tag domain.Tag
	if err := row.Scan(&tag.SystemID, &tag.TagID, &tag.SupportsUsers, &tag.SupportsGroups, &tag.HasContent, &tag.Description); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan tag: %w", err)
	}

	return &tag, nil
}

// Update modifies a tag's descriptive attributes. SupportsUsers,
// SupportsGroups, and HasContent are fixed at creation and never
// updated here: changing them after assignments exist would orphan
// semantics the resolver depends on.
func (r *TagRepository) Update(ctx context.Context, tag domain.Tag) error {
	stmt, args, err := r.builder.Update("hive.tags").
		Set("description", tag.Description).
		Where(squirrel.Eq{"system_id": tag.SystemID, "tag_id": tag.TagID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update tag sql: %w", err)
	}

	res, err := r.pool.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update tag: %w", err)
	}

	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes a tag (cascades to subtags and tag_assignments via FK).
func (r *TagRepository) Delete(ctx context.Context, systemID, tagID string) error {
	stmt, args, err := r.builder.Delete("hive.tags").
		Where(squirrel.Eq{"system_id": systemID, "tag_id": tagID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete tag sql: %w", err)
	}

	res, err := r.pool.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}

	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ListBySystem returns every tag declared by a system.
func (r *TagRepository) ListBySystem(ctx context.Context, systemID string) ([]domain.Tag, error) {
	stmt, args, err := r.builder.Select("system_id", "tag_id", "supports_users", "supports_groups", "has_content", "description").
		From("hive.tags").
		Where(squirrel.Eq{"system_id": systemID}).
		OrderBy("tag_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list tags sql: %w", err)
	}

	rows, err := r.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	tags := make([]domain.Tag, 0)
	for rows.Next() {
		var tag domain.Tag
		if err := rows.Scan(&tag.SystemID, &tag.TagID, &tag.SupportsUsers, &tag.SupportsGroups, &tag.HasContent, &tag.Description); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}

	return tags, nil
}

// AddSubtagEdge inserts a parent/child edge in the tag ancestry DAG.
func (r *TagRepository) AddSubtagEdge(ctx context.Context, edge domain.SubtagEdge) error {
	stmt, args, err := r.builder.Insert("hive.subtags").
		Columns("parent_system_id", "parent_tag_id", "child_system_id", "child_tag_id").
		Values(edge.Parent.SystemID, edge.Parent.TagID, edge.Child.SystemID, edge.Child.TagID).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert subtag edge sql: %w", err)
	}

	if _, err := r.pool.Exec(ctx, stmt, args...); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("insert subtag edge: %w", err)
	}

	return nil
}

// RemoveSubtagEdge deletes the edge between parent and child, if any.
func (r *TagRepository) RemoveSubtagEdge(ctx context.Context, parent, child domain.TagRef) error {
	stmt, args, err := r.builder.Delete("hive.subtags").
		Where(squirrel.Eq{
			"parent_system_id": parent.SystemID,
			"parent_tag_id":    parent.TagID,
			"child_system_id":  child.SystemID,
			"child_tag_id":     child.TagID,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete subtag edge sql: %w", err)
	}

	res, err := r.pool.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete subtag edge: %w", err)
	}

	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SubtagEdgesByChild returns edges naming child, its direct parent tags.
func (r *TagRepository) SubtagEdgesByChild(ctx context.Context, child domain.TagRef) ([]domain.SubtagEdge, error) {
	return r.queryEdges(ctx, squirrel.Eq{"child_system_id": child.SystemID, "child_tag_id": child.TagID})
}

// SubtagEdgesByParent returns edges naming parent, its direct child tags.
func (r *TagRepository) SubtagEdgesByParent(ctx context.Context, parent domain.TagRef) ([]domain.SubtagEdge, error) {
	return r.queryEdges(ctx, squirrel.Eq{"parent_system_id": parent.SystemID, "parent_tag_id": parent.TagID})
}

func (r *TagRepository) queryEdges(ctx context.Context, pred squirrel.Eq) ([]domain.SubtagEdge, error) {
	stmt, args, err := r.builder.Select("parent_system_id", "parent_tag_id", "child_system_id", "child_tag_id").
		From("hive.subtags").
		Where(pred).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select subtag edges sql: %w", err)
	}

	rows, err := r.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query subtag edges: %w", err)
	}
	defer rows.Close()

	edges := make([]domain.SubtagEdge, 0)
	for rows.Next() {
		var edge domain.SubtagEdge
		if err := rows.Scan(&edge.Parent.SystemID, &edge.Parent.TagID, &edge.Child.SystemID, &edge.Child.TagID); err != nil {
			return nil, fmt.Errorf("scan subtag edge: %w", err)
		}
		edges = append(edges, edge)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subtag edges: %w", err)
	}

	return edges, nil
}

// CreateAssignment inserts a tag assignment to a user or group.
func (r *TagRepository) CreateAssignment(ctx context.Context, assignment domain.TagAssignment) error {
	var groupID, groupDomain any
	if assignment.Group != nil {
		groupID, groupDomain = assignment.Group.ID, assignment.Group.Domain
	}

	stmt, args, err := r.builder.Insert("hive.tag_assignments").
		Columns("id", "system_id", "tag_id", "content", "username", "group_id", "group_domain").
		Values(assignment.ID, assignment.Tag.SystemID, assignment.Tag.TagID, assignment.Content, assignment.Username, groupID, groupDomain).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert tag assignment sql: %w", err)
	}

	if _, err := r.pool.Exec(ctx, stmt, args...); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("insert tag assignment: %w", err)
	}

	return nil
}

// DeleteAssignment removes a tag assignment by id.
func (r *TagRepository) DeleteAssignment(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Delete("hive.tag_assignments").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete tag assignment sql: %w", err)
	}

	res, err := r.pool.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete tag assignment: %w", err)
	}

	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// AssignmentsForUser returns every direct tag assignment made to username.
func (r *TagRepository) AssignmentsForUser(ctx context.Context, username string) ([]domain.TagAssignment, error) {
	stmt, args, err := r.builder.Select("id", "system_id", "tag_id", "content", "username", "group_id", "group_domain").
		From("hive.tag_assignments").
		Where(squirrel.Eq{"username": username}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select tag assignments by user sql: %w", err)
	}

	return r.queryAssignments(ctx, stmt, args...)
}

// AssignmentsForGroups returns every direct tag assignment made to any
// of the given groups.
func (r *TagRepository) AssignmentsForGroups(ctx context.Context, groups []domain.GroupRef) ([]domain.TagAssignment, error) {
	if len(groups) == 0 {
		return nil, nil
	}

	or := make(squirrel.Or, 0, len(groups))
	for _, g := range groups {
		or = append(or, squirrel.Eq{"group_id": g.ID, "group_domain": g.Domain})
	}

	stmt, args, err := r.builder.Select("id", "system_id", "tag_id", "content", "username", "group_id", "group_domain").
		From("hive.tag_assignments").
		Where(or).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select tag assignments by group sql: %w", err)
	}

	return r.queryAssignments(ctx, stmt, args...)
}

// AssignmentsForTag returns every direct assignment of tag, to either a
// user or a group.
func (r *TagRepository) AssignmentsForTag(ctx context.Context, tag domain.TagRef) ([]domain.TagAssignment, error) {
	stmt, args, err := r.builder.Select("id", "system_id", "tag_id", "content", "username", "group_id", "group_domain").
		From("hive.tag_assignments").
		Where(squirrel.Eq{"system_id": tag.SystemID, "tag_id": tag.TagID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select tag assignments by tag sql: %w", err)
	}

	return r.queryAssignments(ctx, stmt, args...)
}

func (r *TagRepository) queryAssignments(ctx context.Context, stmt string, args ...any) ([]domain.TagAssignment, error) {
	rows, err := r.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query tag assignments: %w", err)
	}
	defer rows.Close()

	assignments := make([]domain.TagAssignment, 0)
	for rows.Next() {
		var (
			a                    domain.TagAssignment
			groupID, groupDomain *string
		)
		if err := rows.Scan(&a.ID, &a.Tag.SystemID, &a.Tag.TagID, &a.Content, &a.Username, &groupID, &groupDomain); err != nil {
			return nil, fmt.Errorf("scan tag assignment: %w", err)
		}
		if groupID != nil && groupDomain != nil {
			a.Group = &domain.GroupRef{ID: *groupID, Domain: *groupDomain}
		}
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tag assignments: %w", err)
	}

	return assignments, nil
}

var _ port.TagRepository = (*TagRepository)(nil)
