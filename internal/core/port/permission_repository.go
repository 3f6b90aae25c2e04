package port

import (
	"context"

	"github.com/hiveiam/hive/internal/core/domain"
)

// PermissionRepository manages permission declarations and their
// assignments to groups or API tokens (§3, §4.2).
type PermissionRepository interface {
	Create(ctx context.Context, permission domain.Permission) error
	GetBySystemAndID(ctx context.Context, systemID, permID string) (*domain.Permission, error)
	Update(ctx context.Context, permission domain.Permission) error
	Delete(ctx context.Context, systemID, permID string) error
	ListBySystem(ctx context.Context, systemID string) ([]domain.Permission, error)

	CreateAssignment(ctx context.Context, assignment domain.PermissionAssignment) error
	DeleteAssignment(ctx context.Context, id string) error

	// AssignmentsForGroups returns every assignment made directly to any
	// of the given groups, across all systems.
	AssignmentsForGroups(ctx context.Context, groups []domain.GroupRef) ([]domain.PermissionAssignment, error)
	// AssignmentsForAPIToken returns every assignment made directly to
	// the given API token.
	AssignmentsForAPIToken(ctx context.Context, apiTokenID string) ([]domain.PermissionAssignment, error)
}
