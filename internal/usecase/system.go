package usecase

import (
	"context"
	"errors"

	"github.com/hiveiam/hive/internal/core/domain"
	"github.com/hiveiam/hive/internal/core/port"
	"github.com/hiveiam/hive/internal/repository"
)

// SystemUsecase is the write path for the system registry (§3).
type SystemUsecase struct {
	Systems port.SystemRepository
	Audit   port.AuditSink
}

// NewSystemUsecase constructs a SystemUsecase.
func NewSystemUsecase(systems port.SystemRepository, audit port.AuditSink) *SystemUsecase {
	return &SystemUsecase{Systems: systems, Audit: audit}
}

// CreateSystem registers a new system.
func (u *SystemUsecase) CreateSystem(ctx context.Context, system domain.System, actor string) error {
	if system.ID == "" {
		return ErrValidation("system.id-required", "id is required")
	}

	if err := u.Systems.Create(ctx, system); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return ErrConflictDuplicate("system already exists")
		}
		return ErrInternal(err)
	}

	audit(ctx, u.Audit, domain.ActionCreate, domain.TargetSystem, system.ID, actor, nil)
	return nil
}

// UpdateSystem updates a system's description.
func (u *SystemUsecase) UpdateSystem(ctx context.Context, system domain.System, actor string) error {
	if _, err := u.Systems.GetByID(ctx, system.ID); err != nil {
		return mapSystemNotFound(err)
	}

	if err := u.Systems.Update(ctx, system); err != nil {
		return ErrInternal(err)
	}

	audit(ctx, u.Audit, domain.ActionUpdate, domain.TargetSystem, system.ID, actor, nil)
	return nil
}

// DeleteSystem removes a system, rejecting domain.HiveSystemID outright:
// Hive's own self-system must always exist for its permissions and API
// tokens to resolve against.
func (u *SystemUsecase) DeleteSystem(ctx context.Context, id, actor string) error {
	if id == domain.HiveSystemID {
		return ErrValidation("system.reserved", "the hive system cannot be deleted")
	}

	if err := u.Systems.Delete(ctx, id); err != nil {
		return mapSystemNotFound(err)
	}

	audit(ctx, u.Audit, domain.ActionDelete, domain.TargetSystem, id, actor, nil)
	return nil
}

func mapSystemNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(ErrKeyNotFoundSystem, "system not found")
	}
	return ErrInternal(err)
}
