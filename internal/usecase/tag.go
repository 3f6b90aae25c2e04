package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hiveiam/hive/internal/core/domain"
	"github.com/hiveiam/hive/internal/core/port"
	"github.com/hiveiam/hive/internal/repository"
)

// TagUsecase is the write path for tag declarations, the subtag DAG, and
// tag assignments to users or groups (§3, §4.3).
type TagUsecase struct {
	Tags  port.TagRepository
	Audit port.AuditSink
}

// NewTagUsecase constructs a TagUsecase.
func NewTagUsecase(tags port.TagRepository, audit port.AuditSink) *TagUsecase {
	return &TagUsecase{Tags: tags, Audit: audit}
}

// DeclareTag registers a (system, tag_id) pair.
func (u *TagUsecase) DeclareTag(ctx context.Context, tag domain.Tag, actor string) error {
	if tag.SystemID == "" || tag.TagID == "" {
		return ErrValidation("tag.system-tag-required", "system_id and tag_id are required")
	}
	if !tag.SupportsUsers && !tag.SupportsGroups {
		return ErrValidation("tag.no-bearer-kind", "a tag must support users, groups, or both")
	}

	if err := u.Tags.Create(ctx, tag); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return ErrConflictDuplicate("tag already declared")
		}
		return ErrInternal(err)
	}

	audit(ctx, u.Audit, domain.ActionCreate, domain.TargetTag, tag.SystemID+"/"+tag.TagID, actor, nil)
	return nil
}

// UpdateTag updates a tag's description. SupportsUsers, SupportsGroups,
// and HasContent are fixed at creation: changing them after assignments
// exist would orphan semantics the resolver depends on.
func (u *TagUsecase) UpdateTag(ctx context.Context, systemID, tagID, description, actor string) error {
	existing, err := u.Tags.GetBySystemAndID(ctx, systemID, tagID)
	if err != nil {
		return mapTagNotFound(err)
	}

	existing.Description = description
	if err := u.Tags.Update(ctx, *existing); err != nil {
		return ErrInternal(err)
	}

	audit(ctx, u.Audit, domain.ActionUpdate, domain.TargetTag, systemID+"/"+tagID, actor, nil)
	return nil
}

// DeleteTag removes a tag declaration.
func (u *TagUsecase) DeleteTag(ctx context.Context, systemID, tagID, actor string) error {
	if err := u.Tags.Delete(ctx, systemID, tagID); err != nil {
		return mapTagNotFound(err)
	}

	audit(ctx, u.Audit, domain.ActionDelete, domain.TargetTag, systemID+"/"+tagID, actor, nil)
	return nil
}

// AddSubtagEdge declares child a subtag of parent. Self-edges are
// rejected outright. A content-bearing tag may not parent a subtag edge:
// propagating an ancestor strips content (domain.EffectiveTagAssignment),
// so a content-bearing parent would silently lose the payload the moment
// it is reached indirectly.
func (u *TagUsecase) AddSubtagEdge(ctx context.Context, edge domain.SubtagEdge, actor string) error {
	if edge.Parent == edge.Child {
		return ErrValidation("tag.self-edge", "a tag cannot be its own subtag")
	}

	parent, err := u.Tags.GetBySystemAndID(ctx, edge.Parent.SystemID, edge.Parent.TagID)
	if err != nil {
		return mapTagNotFound(err)
	}
	if parent.HasContent {
		return ErrValidation("tag-has-content-parent", "a content-bearing tag may not parent a subtag edge")
	}

	if err := u.Tags.AddSubtagEdge(ctx, edge); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return ErrConflictDuplicate("subtag edge already exists")
		}
		return ErrInternal(err)
	}

	audit(ctx, u.Audit, domain.ActionCreate, domain.TargetSubtag, edge.Child.SystemID+"/"+edge.Child.TagID+"->"+edge.Parent.TagID, actor, nil)
	return nil
}

// RemoveSubtagEdge deletes a subtag edge.
func (u *TagUsecase) RemoveSubtagEdge(ctx context.Context, parent, child domain.TagRef, actor string) error {
	if err := u.Tags.RemoveSubtagEdge(ctx, parent, child); err != nil {
		return mapTagNotFound(err)
	}

	audit(ctx, u.Audit, domain.ActionDelete, domain.TargetSubtag, child.TagID+"->"+parent.TagID, actor, nil)
	return nil
}

// AssignToUser attaches tag to username, with content if the tag
// requires it.
func (u *TagUsecase) AssignToUser(ctx context.Context, tagRef domain.TagRef, username string, content *string, actor string) (string, error) {
	assignment := domain.TagAssignment{ID: uuid.NewString(), Tag: tagRef, Content: content, Username: &username}
	return u.createAssignment(ctx, assignment, actor)
}

// AssignToGroup attaches tag to group, with content if the tag requires it.
func (u *TagUsecase) AssignToGroup(ctx context.Context, tagRef domain.TagRef, group domain.GroupRef, content *string, actor string) (string, error) {
	assignment := domain.TagAssignment{ID: uuid.NewString(), Tag: tagRef, Content: content, Group: &group}
	return u.createAssignment(ctx, assignment, actor)
}

func (u *TagUsecase) createAssignment(ctx context.Context, assignment domain.TagAssignment, actor string) (string, error) {
	tag, err := u.Tags.GetBySystemAndID(ctx, assignment.Tag.SystemID, assignment.Tag.TagID)
	if err != nil {
		return "", mapTagNotFound(err)
	}

	if assignment.Username != nil && !tag.SupportsUsers {
		return "", ErrValidation("tag.unsupported-bearer", "tag does not support user assignment")
	}
	if assignment.Group != nil && !tag.SupportsGroups {
		return "", ErrValidation("tag.unsupported-bearer", "tag does not support group assignment")
	}
	if tag.HasContent && assignment.Content == nil {
		return "", ErrValidation("tag.content-required", "tag requires content")
	}
	if !tag.HasContent && assignment.Content != nil {
		return "", ErrValidation("tag.content-not-allowed", "tag does not carry content")
	}

	if err := u.Tags.CreateAssignment(ctx, assignment); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return "", ErrConflictDuplicate("tag already assigned")
		}
		return "", ErrInternal(err)
	}

	audit(ctx, u.Audit, domain.ActionCreate, domain.TargetTagAssignment, assignment.ID, actor, map[string]any{
		"system_id": assignment.Tag.SystemID,
		"tag_id":    assignment.Tag.TagID,
	})
	return assignment.ID, nil
}

// RevokeAssignment deletes a tag assignment by id.
func (u *TagUsecase) RevokeAssignment(ctx context.Context, id, actor string) error {
	if err := u.Tags.DeleteAssignment(ctx, id); err != nil {
		return mapTagNotFound(err)
	}

	audit(ctx, u.Audit, domain.ActionDelete, domain.TargetTagAssignment, id, actor, nil)
	return nil
}

func mapTagNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(ErrKeyNotFoundTag, "tag not found")
	}
	return ErrInternal(err)
}
