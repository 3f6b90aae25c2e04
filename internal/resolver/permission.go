package resolver

import (
	"context"
	"sort"
	"time"

	"github.com/hiveiam/hive/internal/core/domain"
	"github.com/hiveiam/hive/internal/core/port"
)

// PermissionResolver folds the permission assignments reachable by a
// principal (directly, or through group membership) into the set of
// effective permissions it holds in one system.
type PermissionResolver struct {
	Membership  *MembershipResolver
	Permissions port.PermissionRepository
}

// NewPermissionResolver constructs a PermissionResolver.
func NewPermissionResolver(membership *MembershipResolver, permissions port.PermissionRepository) *PermissionResolver {
	return &PermissionResolver{Membership: membership, Permissions: permissions}
}

// PermsOf returns the effective, scope-folded permissions principal
// holds in systemID at `at` (§4.2). A permission with any unscoped or
// wildcard-scoped assignment collapses to a single entry dominating all
// narrower scopes for the same perm_id; otherwise every distinct scope
// survives as its own entry. Entries are ordered lexicographically by
// perm_id, then scope.
func (r *PermissionResolver) PermsOf(ctx context.Context, principal domain.Principal, systemID string, at time.Time) ([]domain.EffectivePermission, error) {
	assignments, err := r.assignmentsFor(ctx, principal, systemID, at)
	if err != nil {
		return nil, err
	}

	byPerm := make(map[string]map[string]struct{})
	dominatedUnscoped := make(map[string]bool)
	dominatedWildcard := make(map[string]bool)

	for _, a := range assignments {
		if a.SystemID != systemID {
			continue
		}
		scopes, ok := byPerm[a.PermID]
		if !ok {
			scopes = make(map[string]struct{})
			byPerm[a.PermID] = scopes
		}

		switch {
		case a.Scope == nil:
			dominatedUnscoped[a.PermID] = true
			continue
		case *a.Scope == domain.WildcardScope:
			dominatedWildcard[a.PermID] = true
			continue
		}
		scopes[*a.Scope] = struct{}{}
	}

	dominatingScope := func(permID string) (*string, bool) {
		if dominatedUnscoped[permID] {
			return nil, true
		}
		if dominatedWildcard[permID] {
			wildcard := domain.WildcardScope
			return &wildcard, true
		}
		return nil, false
	}

	var out []domain.EffectivePermission
	for permID, scopes := range byPerm {
		if scope, dominated := dominatingScope(permID); dominated {
			out = append(out, domain.EffectivePermission{PermID: permID, Scope: scope})
			continue
		}
		for scope := range scopes {
			s := scope
			out = append(out, domain.EffectivePermission{PermID: permID, Scope: &s})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].PermID != out[j].PermID {
			return out[i].PermID < out[j].PermID
		}
		return out[i].ScopeOrEmpty() < out[j].ScopeOrEmpty()
	})

	return out, nil
}

// Has reports whether principal holds permID in systemID at `at`, folded
// against scope: an unscoped or wildcard assignment satisfies any scope
// query; a scoped assignment satisfies only an exact match.
func (r *PermissionResolver) Has(ctx context.Context, principal domain.Principal, systemID, permID string, scope *string, at time.Time) (bool, error) {
	effective, err := r.PermsOf(ctx, principal, systemID, at)
	if err != nil {
		return false, err
	}

	for _, p := range effective {
		if p.PermID != permID {
			continue
		}
		if p.Scope == nil || *p.Scope == domain.WildcardScope {
			return true, nil
		}
		if scope != nil && *p.Scope == *scope {
			return true, nil
		}
	}

	return false, nil
}

func (r *PermissionResolver) assignmentsFor(ctx context.Context, principal domain.Principal, systemID string, at time.Time) ([]domain.PermissionAssignment, error) {
	if principal.Kind == domain.PrincipalKindToken {
		return r.Permissions.AssignmentsForAPIToken(ctx, principal.TokenID)
	}

	memberships, err := r.Membership.GroupsOf(ctx, principal.Username, at)
	if err != nil {
		return nil, err
	}

	groups := make([]domain.GroupRef, 0, len(memberships))
	for _, m := range memberships {
		groups = append(groups, m.Group)
	}

	return r.Permissions.AssignmentsForGroups(ctx, groups)
}
