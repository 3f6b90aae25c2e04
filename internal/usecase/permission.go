package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hiveiam/hive/internal/core/domain"
	"github.com/hiveiam/hive/internal/core/port"
	"github.com/hiveiam/hive/internal/repository"
)

// PermissionUsecase is the write path for permission declarations and
// their assignments to groups or API tokens (§3, §4.2).
type PermissionUsecase struct {
	Permissions port.PermissionRepository
	Audit       port.AuditSink
}

// NewPermissionUsecase constructs a PermissionUsecase.
func NewPermissionUsecase(permissions port.PermissionRepository, audit port.AuditSink) *PermissionUsecase {
	return &PermissionUsecase{Permissions: permissions, Audit: audit}
}

// DeclarePermission registers a (system, perm_id) pair.
func (u *PermissionUsecase) DeclarePermission(ctx context.Context, perm domain.Permission, actor string) error {
	if perm.SystemID == "" || perm.PermID == "" {
		return ErrValidation("permission.system-perm-required", "system_id and perm_id are required")
	}

	if err := u.Permissions.Create(ctx, perm); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return ErrConflictDuplicate("permission already declared")
		}
		return ErrInternal(err)
	}

	audit(ctx, u.Audit, domain.ActionCreate, domain.TargetPermission, perm.SystemID+"/"+perm.PermID, actor, nil)
	return nil
}

// UpdatePermission updates a permission's description/scope flag.
func (u *PermissionUsecase) UpdatePermission(ctx context.Context, perm domain.Permission, actor string) error {
	if _, err := u.Permissions.GetBySystemAndID(ctx, perm.SystemID, perm.PermID); err != nil {
		return mapPermNotFound(err)
	}

	if err := u.Permissions.Update(ctx, perm); err != nil {
		return ErrInternal(err)
	}

	audit(ctx, u.Audit, domain.ActionUpdate, domain.TargetPermission, perm.SystemID+"/"+perm.PermID, actor, nil)
	return nil
}

// DeletePermission removes a permission declaration.
func (u *PermissionUsecase) DeletePermission(ctx context.Context, systemID, permID, actor string) error {
	if err := u.Permissions.Delete(ctx, systemID, permID); err != nil {
		return mapPermNotFound(err)
	}

	audit(ctx, u.Audit, domain.ActionDelete, domain.TargetPermission, systemID+"/"+permID, actor, nil)
	return nil
}

// AssignToGroup grants perm to group, optionally scoped.
func (u *PermissionUsecase) AssignToGroup(ctx context.Context, systemID, permID string, group domain.GroupRef, scope *string, actor string) (string, error) {
	assignment := domain.PermissionAssignment{
		ID:       uuid.NewString(),
		SystemID: systemID,
		PermID:   permID,
		Scope:    scope,
		Group:    &group,
	}
	return u.createAssignment(ctx, assignment, actor)
}

// AssignToAPIToken grants perm to an API token, optionally scoped.
func (u *PermissionUsecase) AssignToAPIToken(ctx context.Context, systemID, permID, apiTokenID string, scope *string, actor string) (string, error) {
	assignment := domain.PermissionAssignment{
		ID:         uuid.NewString(),
		SystemID:   systemID,
		PermID:     permID,
		Scope:      scope,
		APITokenID: &apiTokenID,
	}
	return u.createAssignment(ctx, assignment, actor)
}

func (u *PermissionUsecase) createAssignment(ctx context.Context, assignment domain.PermissionAssignment, actor string) (string, error) {
	if _, err := u.Permissions.GetBySystemAndID(ctx, assignment.SystemID, assignment.PermID); err != nil {
		return "", mapPermNotFound(err)
	}

	if err := u.Permissions.CreateAssignment(ctx, assignment); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return "", ErrConflictDuplicate("permission already assigned")
		}
		return "", ErrInternal(err)
	}

	audit(ctx, u.Audit, domain.ActionCreate, domain.TargetPermissionAssignment, assignment.ID, actor, map[string]any{
		"system_id": assignment.SystemID,
		"perm_id":   assignment.PermID,
	})
	return assignment.ID, nil
}

// RevokeAssignment deletes a permission assignment by id.
func (u *PermissionUsecase) RevokeAssignment(ctx context.Context, id, actor string) error {
	if err := u.Permissions.DeleteAssignment(ctx, id); err != nil {
		return mapPermNotFound(err)
	}

	audit(ctx, u.Audit, domain.ActionDelete, domain.TargetPermissionAssignment, id, actor, nil)
	return nil
}

func mapPermNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(ErrKeyNotFoundPermission, "permission not found")
	}
	return ErrInternal(err)
}
