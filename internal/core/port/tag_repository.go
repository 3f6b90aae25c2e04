package port

import (
	"context"

	"github.com/hiveiam/hive/internal/core/domain"
)

// TagRepository manages tag declarations, the subtag DAG the tag resolver
// walks (§4.3), and tag assignments to users or groups.
type TagRepository interface {
	Create(ctx context.Context, tag domain.Tag) error
	GetBySystemAndID(ctx context.Context, systemID, tagID string) (*domain.Tag, error)
	Update(ctx context.Context, tag domain.Tag) error
	Delete(ctx context.Context, systemID, tagID string) error
	ListBySystem(ctx context.Context, systemID string) ([]domain.Tag, error)

	AddSubtagEdge(ctx context.Context, edge domain.SubtagEdge) error
	RemoveSubtagEdge(ctx context.Context, parent, child domain.TagRef) error
	// SubtagEdgesByChild returns edges where Child matches — the parent
	// tags one step up from child in the ancestry DAG.
	SubtagEdgesByChild(ctx context.Context, child domain.TagRef) ([]domain.SubtagEdge, error)
	// SubtagEdgesByParent returns edges where Parent matches — the
	// child tags one step down from parent.
	SubtagEdgesByParent(ctx context.Context, parent domain.TagRef) ([]domain.SubtagEdge, error)

	CreateAssignment(ctx context.Context, assignment domain.TagAssignment) error
	DeleteAssignment(ctx context.Context, id string) error

	// AssignmentsForUser returns every direct tag assignment made to the
	// given username.
	AssignmentsForUser(ctx context.Context, username string) ([]domain.TagAssignment, error)
	// AssignmentsForGroups returns every direct tag assignment made to
	// any of the given groups.
	AssignmentsForGroups(ctx context.Context, groups []domain.GroupRef) ([]domain.TagAssignment, error)
	// AssignmentsForTag returns every direct assignment of the given
	// tag, to either a user or a group.
	AssignmentsForTag(ctx context.Context, tag domain.TagRef) ([]domain.TagAssignment, error)
}
