// Package resolver computes the transitive views the rest of Hive
// authorizes against: which groups a user belongs to, who belongs to a
// group, which permissions and tags apply, all folded from the raw
// direct-membership and edge tables the API writes.
package resolver

import (
	"context"
	"time"

	"github.com/hiveiam/hive/internal/core/domain"
	"github.com/hiveiam/hive/internal/core/port"
)

// MembershipResolver walks the subgroup DAG one path at a time. A group
// is refused only if it already appears on the current path; distinct
// paths may legitimately revisit the same group, so no global visited
// set is kept across the whole walk.
type MembershipResolver struct {
	Groups      port.GroupRepository
	Memberships port.MembershipRepository
}

// NewMembershipResolver constructs a MembershipResolver.
func NewMembershipResolver(groups port.GroupRepository, memberships port.MembershipRepository) *MembershipResolver {
	return &MembershipResolver{Groups: groups, Memberships: memberships}
}

// GroupsOf returns every group username belongs to at `at`, directly or
// via subgroup ancestry. The manager flag on an indirect entry is fixed
// by the first subgroup edge climbed away from the direct membership,
// not by any edge further up the path.
func (r *MembershipResolver) GroupsOf(ctx context.Context, username string, at time.Time) ([]domain.GroupMembership, error) {
	direct, err := r.Memberships.DirectMembershipsForUser(ctx, username, at)
	if err != nil {
		return nil, err
	}

	var out []domain.GroupMembership
	for _, dm := range direct {
		path := []domain.GroupRef{dm.Group}
		out = append(out, domain.GroupMembership{
			Group:   dm.Group,
			Path:    path,
			Manager: dm.Manager,
			From:    dm.From,
			Until:   dm.Until,
		})

		if err := r.climb(ctx, dm.Group, path, dm.Manager, dm.From, dm.Until, &out); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// climb extends path one subgroup edge at a time. firstEdgeManager is
// the manager flag fixed at the first hop away from the direct
// membership; it is carried unchanged to every deeper level.
func (r *MembershipResolver) climb(ctx context.Context, from domain.GroupRef, path []domain.GroupRef, firstEdgeManager bool, fromDate, untilDate time.Time, out *[]domain.GroupMembership) error {
	edges, err := r.Groups.EdgesByChild(ctx, from)
	if err != nil {
		return err
	}

	atFirstHop := len(path) == 1

	for _, edge := range edges {
		if containsRef(path, edge.Parent) {
			continue
		}

		manager := firstEdgeManager
		if atFirstHop {
			manager = edge.Manager
		}

		nextPath := extendPath(path, edge.Parent)
		*out = append(*out, domain.GroupMembership{
			Group:   edge.Parent,
			Path:    nextPath,
			Manager: manager,
			From:    fromDate,
			Until:   untilDate,
		})

		if err := r.climb(ctx, edge.Parent, nextPath, manager, fromDate, untilDate, out); err != nil {
			return err
		}
	}

	return nil
}

// MembersOf returns every username that is a member of group at `at`,
// directly or through any of its descendant subgroups. The manager flag
// carried by members reached through a subgroup is fixed by the first
// edge descended from group, mirroring GroupsOf.
func (r *MembershipResolver) MembersOf(ctx context.Context, group domain.GroupRef, at time.Time) ([]domain.GroupMember, error) {
	var out []domain.GroupMember
	if err := r.descend(ctx, group, []domain.GroupRef{group}, true, false, at, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MembershipResolver) descend(ctx context.Context, group domain.GroupRef, path []domain.GroupRef, isAnchor bool, firstEdgeManager bool, at time.Time, out *[]domain.GroupMember) error {
	direct, err := r.Memberships.DirectMembersOfGroup(ctx, group, at)
	if err != nil {
		return err
	}

	for _, dm := range direct {
		manager := dm.Manager
		if !isAnchor {
			manager = firstEdgeManager
		}
		*out = append(*out, domain.GroupMember{
			Username: dm.Username,
			Manager:  manager,
			From:     dm.From,
			Until:    dm.Until,
			Path:     append([]domain.GroupRef{}, path...),
		})
	}

	edges, err := r.Groups.EdgesByParent(ctx, group)
	if err != nil {
		return err
	}

	for _, edge := range edges {
		if containsRef(path, edge.Child) {
			continue
		}

		manager := firstEdgeManager
		if isAnchor {
			manager = edge.Manager
		}

		nextPath := extendPath(path, edge.Child)
		if err := r.descend(ctx, edge.Child, nextPath, false, manager, at, out); err != nil {
			return err
		}
	}

	return nil
}

func containsRef(path []domain.GroupRef, ref domain.GroupRef) bool {
	for _, p := range path {
		if p == ref {
			return true
		}
	}
	return false
}

func extendPath(path []domain.GroupRef, next domain.GroupRef) []domain.GroupRef {
	extended := make([]domain.GroupRef, len(path), len(path)+1)
	copy(extended, path)
	return append(extended, next)
}
