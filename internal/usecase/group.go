package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hiveiam/hive/internal/core/domain"
	"github.com/hiveiam/hive/internal/core/port"
	"github.com/hiveiam/hive/internal/repository"
)

// GroupUsecase is the write path for groups, subgroup edges, and direct
// memberships (§3, §4.1). Every mutation appends an audit entry.
type GroupUsecase struct {
	Groups      port.GroupRepository
	Memberships port.MembershipRepository
	Audit       port.AuditSink
}

// NewGroupUsecase constructs a GroupUsecase.
func NewGroupUsecase(groups port.GroupRepository, memberships port.MembershipRepository, audit port.AuditSink) *GroupUsecase {
	return &GroupUsecase{Groups: groups, Memberships: memberships, Audit: audit}
}

// CreateGroup declares a new group.
func (u *GroupUsecase) CreateGroup(ctx context.Context, group domain.Group, actor string) error {
	if group.ID == "" || group.Domain == "" {
		return ErrValidation("group.id-domain-required", "id and domain are required")
	}

	if err := u.Groups.Create(ctx, group); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return ErrConflictDuplicate("group already exists")
		}
		return ErrInternal(err)
	}

	audit(ctx, u.Audit, domain.ActionCreate, domain.TargetGroup, group.Ref().String(), actor, nil)
	return nil
}

// UpdateGroup updates an existing group's names and descriptions.
func (u *GroupUsecase) UpdateGroup(ctx context.Context, group domain.Group, actor string) error {
	if _, err := u.Groups.GetByRef(ctx, group.Ref()); err != nil {
		return mapGroupNotFound(err)
	}

	if err := u.Groups.Update(ctx, group); err != nil {
		return ErrInternal(err)
	}

	audit(ctx, u.Audit, domain.ActionUpdate, domain.TargetGroup, group.Ref().String(), actor, nil)
	return nil
}

// DeleteGroup removes a group declaration.
func (u *GroupUsecase) DeleteGroup(ctx context.Context, ref domain.GroupRef, actor string) error {
	if err := u.Groups.Delete(ctx, ref); err != nil {
		return mapGroupNotFound(err)
	}

	audit(ctx, u.Audit, domain.ActionDelete, domain.TargetGroup, ref.String(), actor, nil)
	return nil
}

// AddSubgroupEdge declares child a subgroup of parent. Self-edges are
// rejected outright; cycles are permitted at write time and defended
// per-path by the resolvers (§9), matching the source system's behavior.
func (u *GroupUsecase) AddSubgroupEdge(ctx context.Context, edge domain.SubgroupEdge, actor string) error {
	if edge.Parent == edge.Child {
		return ErrValidation("group.self-edge", "a group cannot be its own subgroup")
	}

	if err := u.Groups.AddSubgroupEdge(ctx, edge); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return ErrConflictDuplicate("subgroup edge already exists")
		}
		return ErrInternal(err)
	}

	audit(ctx, u.Audit, domain.ActionCreate, domain.TargetSubgroup, edge.Child.String()+"->"+edge.Parent.String(), actor, nil)
	return nil
}

// RemoveSubgroupEdge deletes a subgroup edge.
func (u *GroupUsecase) RemoveSubgroupEdge(ctx context.Context, parent, child domain.GroupRef, actor string) error {
	if err := u.Groups.RemoveSubgroupEdge(ctx, parent, child); err != nil {
		return mapGroupNotFound(err)
	}

	audit(ctx, u.Audit, domain.ActionDelete, domain.TargetSubgroup, child.String()+"->"+parent.String(), actor, nil)
	return nil
}

// AddDirectMembership creates a direct membership row.
func (u *GroupUsecase) AddDirectMembership(ctx context.Context, m domain.DirectMembership, actor string) (string, error) {
	if m.Username == "" {
		return "", ErrValidation("membership.username-required", "username is required")
	}
	if m.Until.Before(m.From) {
		return "", ErrValidation("membership.until-before-from", "until date precedes from date")
	}

	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	if err := u.Memberships.Create(ctx, m); err != nil {
		return "", ErrInternal(err)
	}

	audit(ctx, u.Audit, domain.ActionCreate, domain.TargetMembership, m.ID, actor, map[string]any{
		"username": m.Username,
		"group":    m.Group.String(),
	})
	return m.ID, nil
}

// RemoveDirectMembership deletes a direct membership row by id.
func (u *GroupUsecase) RemoveDirectMembership(ctx context.Context, id string, actor string) error {
	if _, err := u.Memberships.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(ErrKeyNotFoundMembership, "direct membership not found")
		}
		return ErrInternal(err)
	}

	if err := u.Memberships.Delete(ctx, id); err != nil {
		return ErrInternal(err)
	}

	audit(ctx, u.Audit, domain.ActionDelete, domain.TargetMembership, id, actor, nil)
	return nil
}

func mapGroupNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(ErrKeyNotFoundGroup, "group not found")
	}
	return ErrInternal(err)
}

