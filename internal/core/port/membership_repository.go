package port

import (
	"context"
	"time"

	"github.com/hiveiam/hive/internal/core/domain"
)

// MembershipRepository exposes the direct-membership rows the resolver
// builds its transitive closure from (§4.1).
type MembershipRepository interface {
	Create(ctx context.Context, membership domain.DirectMembership) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.DirectMembership, error)

	// DirectMembershipsForUser returns every direct-membership row for the
	// username active at `at`, regardless of which group.
	DirectMembershipsForUser(ctx context.Context, username string, at time.Time) ([]domain.DirectMembership, error)

	// DirectMembersOfGroup returns every direct-membership row naming the
	// given group active at `at`, regardless of username.
	DirectMembersOfGroup(ctx context.Context, group domain.GroupRef, at time.Time) ([]domain.DirectMembership, error)
}
