package port

import (
	"context"

	"github.com/hiveiam/hive/internal/core/domain"
)

// SystemRepository manages the registry of systems that own permissions,
// tags, and API tokens (§3).
type SystemRepository interface {
	Create(ctx context.Context, system domain.System) error
	GetByID(ctx context.Context, id string) (*domain.System, error)
	Update(ctx context.Context, system domain.System) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.System, error)
}
