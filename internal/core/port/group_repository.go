package port

import (
	"context"

	"github.com/hiveiam/hive/internal/core/domain"
)

// GroupRepository handles group CRUD and the subgroup edge set that the
// membership resolver walks (§3, §4.1).
type GroupRepository interface {
	Create(ctx context.Context, group domain.Group) error
	GetByRef(ctx context.Context, ref domain.GroupRef) (*domain.Group, error)
	Update(ctx context.Context, group domain.Group) error
	Delete(ctx context.Context, ref domain.GroupRef) error
	List(ctx context.Context) ([]domain.Group, error)

	AddSubgroupEdge(ctx context.Context, edge domain.SubgroupEdge) error
	RemoveSubgroupEdge(ctx context.Context, parent, child domain.GroupRef) error
	// EdgesByChild returns the edges where Child matches — i.e. the
	// parents reachable by climbing one step up from child.
	EdgesByChild(ctx context.Context, child domain.GroupRef) ([]domain.SubgroupEdge, error)
	// EdgesByParent returns the edges where Parent matches — i.e. the
	// children reachable by descending one step down from parent.
	EdgesByParent(ctx context.Context, parent domain.GroupRef) ([]domain.SubgroupEdge, error)
}
