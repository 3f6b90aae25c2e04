package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/hiveiam/hive/internal/core/domain"
	"github.com/hiveiam/hive/internal/core/port"
	"github.com/hiveiam/hive/internal/resolver"
)

// QueryService answers the v1/v0 read API (§6): permissions, tag
// listings, and group membership, all as of a point in time. Resolvers
// never error on missing entities — an unknown user or tag simply
// yields an empty result — so QueryService's errors come only from the
// underlying repositories, from request validation, or from GroupMembers'
// not-found.group when the group carries no tag of the requesting system.
type QueryService struct {
	Groups     port.GroupRepository
	Tags       port.TagRepository
	Systems    port.SystemRepository
	Permission *resolver.PermissionResolver
	Tag        *resolver.TagResolver
	Membership *resolver.MembershipResolver
	Clock      func() time.Time
}

// NewQueryService constructs a QueryService.
func NewQueryService(groups port.GroupRepository, tags port.TagRepository, systems port.SystemRepository, permission *resolver.PermissionResolver, tag *resolver.TagResolver, membership *resolver.MembershipResolver) *QueryService {
	return &QueryService{Groups: groups, Tags: tags, Systems: systems, Permission: permission, Tag: tag, Membership: membership, Clock: func() time.Time { return time.Now() }}
}

func (q *QueryService) at() time.Time {
	if q.Clock != nil {
		return q.Clock()
	}
	return time.Now()
}

// PermissionsOf returns the caller's scope-folded permissions in systemID.
func (q *QueryService) PermissionsOf(ctx context.Context, subject domain.Principal, systemID string) ([]domain.EffectivePermission, error) {
	perms, err := q.Permission.PermsOf(ctx, subject, systemID, q.at())
	if err != nil {
		return nil, ErrInternal(err)
	}
	return perms, nil
}

// HasPermission reports whether the caller holds permID (any scope) in systemID.
func (q *QueryService) HasPermission(ctx context.Context, subject domain.Principal, systemID, permID string) (bool, error) {
	ok, err := q.Permission.Has(ctx, subject, systemID, permID, nil, q.at())
	if err != nil {
		return false, ErrInternal(err)
	}
	return ok, nil
}

// PermissionScopes returns the sorted scopes the caller holds for permID,
// collapsing to `["*"]` when a wildcard or unscoped assignment dominates.
func (q *QueryService) PermissionScopes(ctx context.Context, subject domain.Principal, systemID, permID string) ([]string, error) {
	perms, err := q.Permission.PermsOf(ctx, subject, systemID, q.at())
	if err != nil {
		return nil, ErrInternal(err)
	}

	var scopes []string
	for _, p := range perms {
		if p.PermID != permID {
			continue
		}
		if p.Scope == nil {
			return []string{domain.WildcardScope}, nil
		}
		scopes = append(scopes, *p.Scope)
	}

	sort.Strings(scopes)
	return scopes, nil
}

// HasPermissionScope reports whether the caller holds permID for the exact scope.
func (q *QueryService) HasPermissionScope(ctx context.Context, subject domain.Principal, systemID, permID, scope string) (bool, error) {
	ok, err := q.Permission.Has(ctx, subject, systemID, permID, &scope, q.at())
	if err != nil {
		return false, ErrInternal(err)
	}
	return ok, nil
}

// TaggedGroup is one row of the tagged-groups listing, enriched with the
// group's localized display name (the resolver itself stays display-agnostic).
type TaggedGroup struct {
	GroupName   string
	GroupID     string
	GroupDomain string
	TagContent  *string
}

// TaggedGroups lists every group tagged (directly or via subtag ancestry)
// with (systemID, tagID), ordered by the requested language's name.
func (q *QueryService) TaggedGroups(ctx context.Context, systemID, tagID string, lang domain.Language) ([]TaggedGroup, error) {
	entries, err := q.Tag.TaggedIn(ctx, domain.TagRef{SystemID: systemID, TagID: tagID})
	if err != nil {
		return nil, ErrInternal(err)
	}

	groups := resolver.TaggedGroups(entries)
	out := make([]TaggedGroup, 0, len(groups))
	for _, g := range groups {
		name := g.Group.ID
		if full, err := q.Groups.GetByRef(ctx, *g.Group); err == nil && full != nil {
			name = full.Name(lang)
		}
		out = append(out, TaggedGroup{
			GroupName:   name,
			GroupID:     g.Group.ID,
			GroupDomain: g.Group.Domain,
			TagContent:  g.Content,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].GroupName < out[j].GroupName })
	return out, nil
}

// TaggedMemberships filters TaggedGroups to the groups username belongs
// to, directly or via subgroup ancestry.
func (q *QueryService) TaggedMemberships(ctx context.Context, systemID, tagID, username string, lang domain.Language) ([]TaggedGroup, error) {
	all, err := q.TaggedGroups(ctx, systemID, tagID, lang)
	if err != nil {
		return nil, err
	}

	memberships, err := q.Membership.GroupsOf(ctx, username, q.at())
	if err != nil {
		return nil, ErrInternal(err)
	}

	memberOf := make(map[domain.GroupRef]struct{}, len(memberships))
	for _, m := range memberships {
		memberOf[m.Group] = struct{}{}
	}

	out := make([]TaggedGroup, 0, len(all))
	for _, g := range all {
		if _, ok := memberOf[domain.GroupRef{ID: g.GroupID, Domain: g.GroupDomain}]; ok {
			out = append(out, g)
		}
	}
	return out, nil
}

// TaggedUser is one row of the tagged-users listing.
type TaggedUser struct {
	Username   string
	TagContent *string
}

// TaggedUsers lists every user tagged (directly or via subtag ancestry)
// with (systemID, tagID), sorted by username.
func (q *QueryService) TaggedUsers(ctx context.Context, systemID, tagID string) ([]TaggedUser, error) {
	entries, err := q.Tag.TaggedIn(ctx, domain.TagRef{SystemID: systemID, TagID: tagID})
	if err != nil {
		return nil, ErrInternal(err)
	}

	users := resolver.TaggedUsers(entries)
	out := make([]TaggedUser, 0, len(users))
	for _, u := range users {
		out = append(out, TaggedUser{Username: *u.Username, TagContent: u.Content})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// LegacyPermStrings encodes systemID's effective permissions for subject
// in the v0 API's string form: "perm_id" when unscoped, "perm_id:scope"
// otherwise, sorted the same way as the v1 listing.
func (q *QueryService) LegacyPermStrings(ctx context.Context, subject domain.Principal, systemID string) ([]string, error) {
	perms, err := q.Permission.PermsOf(ctx, subject, systemID, q.at())
	if err != nil {
		return nil, ErrInternal(err)
	}

	out := make([]string, 0, len(perms))
	for _, p := range perms {
		if p.Scope == nil {
			out = append(out, p.PermID)
			continue
		}
		out = append(out, p.PermID+":"+*p.Scope)
	}
	return out, nil
}

// LegacyPermStringsAllSystems encodes subject's effective permissions in
// every declared system, keyed by system id (§6's legacy /user/{u}).
func (q *QueryService) LegacyPermStringsAllSystems(ctx context.Context, subject domain.Principal) (map[string][]string, error) {
	systems, err := q.Systems.List(ctx)
	if err != nil {
		return nil, ErrInternal(err)
	}

	out := make(map[string][]string, len(systems))
	for _, system := range systems {
		strs, err := q.LegacyPermStrings(ctx, subject, system.ID)
		if err != nil {
			return nil, err
		}
		if len(strs) > 0 {
			out[system.ID] = strs
		}
	}
	return out, nil
}

// LegacyHasPermKey reports whether subject holds permKey in systemID,
// where permKey is either a bare perm_id or a "perm_id:scope" pair in
// the v0 encoding.
func (q *QueryService) LegacyHasPermKey(ctx context.Context, subject domain.Principal, systemID, permKey string) (bool, error) {
	permID, scope, hasScope := splitLegacyPermKey(permKey)

	var scopePtr *string
	if hasScope {
		scopePtr = &scope
	}

	ok, err := q.Permission.Has(ctx, subject, systemID, permID, scopePtr, q.at())
	if err != nil {
		return false, ErrInternal(err)
	}
	return ok, nil
}

func splitLegacyPermKey(permKey string) (permID, scope string, hasScope bool) {
	for i := 0; i < len(permKey); i++ {
		if permKey[i] == ':' {
			return permKey[:i], permKey[i+1:], true
		}
	}
	return permKey, "", false
}

// GroupMembers lists the usernames belonging to ref, directly or via
// subgroup descent, after confirming ref is tagged within systemID
// (§6's /group/{dom}/{id}/members precondition).
func (q *QueryService) GroupMembers(ctx context.Context, ref domain.GroupRef, systemID string) ([]string, error) {
	tagged, err := q.GroupTaggedInSystem(ctx, ref, systemID)
	if err != nil {
		return nil, err
	}
	if !tagged {
		return nil, notFound(ErrKeyNotFoundGroup, "group is not tagged within the requesting system")
	}

	members, err := q.Membership.MembersOf(ctx, ref, q.at())
	if err != nil {
		return nil, ErrInternal(err)
	}

	seen := make(map[string]struct{}, len(members))
	out := make([]string, 0, len(members))
	for _, m := range members {
		if _, ok := seen[m.Username]; ok {
			continue
		}
		seen[m.Username] = struct{}{}
		out = append(out, m.Username)
	}

	sort.Strings(out)
	return out, nil
}

// GroupTaggedInSystem reports whether ref carries any tag declared by
// systemID — the precondition /group/{dom}/{id}/members enforces before
// it will reveal membership to a caller outside that group's own system.
func (q *QueryService) GroupTaggedInSystem(ctx context.Context, ref domain.GroupRef, systemID string) (bool, error) {
	assignments, err := q.Tags.AssignmentsForGroups(ctx, []domain.GroupRef{ref})
	if err != nil {
		return false, ErrInternal(err)
	}
	for _, a := range assignments {
		if a.Tag.SystemID == systemID {
			return true, nil
		}
	}
	return false, nil
}
