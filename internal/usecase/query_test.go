package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/hiveiam/hive/internal/core/domain"
	"github.com/hiveiam/hive/internal/resolver"
)

type qGroupRepo struct {
	byChild  map[domain.GroupRef][]domain.SubgroupEdge
	byParent map[domain.GroupRef][]domain.SubgroupEdge
	groups   map[domain.GroupRef]domain.Group
}

func newQGroupRepo() *qGroupRepo {
	return &qGroupRepo{
		byChild:  map[domain.GroupRef][]domain.SubgroupEdge{},
		byParent: map[domain.GroupRef][]domain.SubgroupEdge{},
		groups:   map[domain.GroupRef]domain.Group{},
	}
}
func (r *qGroupRepo) Create(ctx context.Context, group domain.Group) error { return nil }
func (r *qGroupRepo) GetByRef(ctx context.Context, ref domain.GroupRef) (*domain.Group, error) {
	g, ok := r.groups[ref]
	if !ok {
		return &domain.Group{ID: ref.ID, Domain: ref.Domain}, nil
	}
	return &g, nil
}
func (r *qGroupRepo) Update(ctx context.Context, group domain.Group) error { return nil }
func (r *qGroupRepo) Delete(ctx context.Context, ref domain.GroupRef) error { return nil }
func (r *qGroupRepo) List(ctx context.Context) ([]domain.Group, error)      { return nil, nil }
func (r *qGroupRepo) AddSubgroupEdge(ctx context.Context, edge domain.SubgroupEdge) error {
	return nil
}
func (r *qGroupRepo) RemoveSubgroupEdge(ctx context.Context, parent, child domain.GroupRef) error {
	return nil
}
func (r *qGroupRepo) EdgesByChild(ctx context.Context, child domain.GroupRef) ([]domain.SubgroupEdge, error) {
	return r.byChild[child], nil
}
func (r *qGroupRepo) EdgesByParent(ctx context.Context, parent domain.GroupRef) ([]domain.SubgroupEdge, error) {
	return r.byParent[parent], nil
}

type qMembershipRepo struct {
	byUser  map[string][]domain.DirectMembership
	byGroup map[domain.GroupRef][]domain.DirectMembership
}

func newQMembershipRepo() *qMembershipRepo {
	return &qMembershipRepo{byUser: map[string][]domain.DirectMembership{}, byGroup: map[domain.GroupRef][]domain.DirectMembership{}}
}
func (r *qMembershipRepo) Create(ctx context.Context, m domain.DirectMembership) error { return nil }
func (r *qMembershipRepo) Delete(ctx context.Context, id string) error                { return nil }
func (r *qMembershipRepo) GetByID(ctx context.Context, id string) (*domain.DirectMembership, error) {
	return nil, nil
}
func (r *qMembershipRepo) DirectMembershipsForUser(ctx context.Context, username string, at time.Time) ([]domain.DirectMembership, error) {
	return r.byUser[username], nil
}
func (r *qMembershipRepo) DirectMembersOfGroup(ctx context.Context, group domain.GroupRef, at time.Time) ([]domain.DirectMembership, error) {
	return r.byGroup[group], nil
}

type qPermissionRepo struct {
	byGroup []domain.PermissionAssignment
	byToken []domain.PermissionAssignment
}

func (r *qPermissionRepo) Create(ctx context.Context, permission domain.Permission) error { return nil }
func (r *qPermissionRepo) GetBySystemAndID(ctx context.Context, systemID, permID string) (*domain.Permission, error) {
	return nil, nil
}
func (r *qPermissionRepo) Update(ctx context.Context, permission domain.Permission) error { return nil }
func (r *qPermissionRepo) Delete(ctx context.Context, systemID, permID string) error       { return nil }
func (r *qPermissionRepo) ListBySystem(ctx context.Context, systemID string) ([]domain.Permission, error) {
	return nil, nil
}
func (r *qPermissionRepo) CreateAssignment(ctx context.Context, assignment domain.PermissionAssignment) error {
	return nil
}
func (r *qPermissionRepo) DeleteAssignment(ctx context.Context, id string) error { return nil }
func (r *qPermissionRepo) AssignmentsForGroups(ctx context.Context, groups []domain.GroupRef) ([]domain.PermissionAssignment, error) {
	return r.byGroup, nil
}
func (r *qPermissionRepo) AssignmentsForAPIToken(ctx context.Context, apiTokenID string) ([]domain.PermissionAssignment, error) {
	return r.byToken, nil
}

type qTagRepo struct {
	edgesByChild  map[domain.TagRef][]domain.SubtagEdge
	edgesByParent map[domain.TagRef][]domain.SubtagEdge
	byTag         map[domain.TagRef][]domain.TagAssignment
	byGroup       map[domain.GroupRef][]domain.TagAssignment
	byUser        map[string][]domain.TagAssignment
}

func newQTagRepo() *qTagRepo {
	return &qTagRepo{
		edgesByChild:  map[domain.TagRef][]domain.SubtagEdge{},
		edgesByParent: map[domain.TagRef][]domain.SubtagEdge{},
		byTag:         map[domain.TagRef][]domain.TagAssignment{},
		byGroup:       map[domain.GroupRef][]domain.TagAssignment{},
		byUser:        map[string][]domain.TagAssignment{},
	}
}
func (r *qTagRepo) Create(ctx context.Context, tag domain.Tag) error { return nil }
func (r *qTagRepo) GetBySystemAndID(ctx context.Context, systemID, tagID string) (*domain.Tag, error) {
	return nil, nil
}
func (r *qTagRepo) Update(ctx context.Context, tag domain.Tag) error            { return nil }
func (r *qTagRepo) Delete(ctx context.Context, systemID, tagID string) error    { return nil }
func (r *qTagRepo) ListBySystem(ctx context.Context, systemID string) ([]domain.Tag, error) {
	return nil, nil
}
func (r *qTagRepo) AddSubtagEdge(ctx context.Context, edge domain.SubtagEdge) error { return nil }
func (r *qTagRepo) RemoveSubtagEdge(ctx context.Context, parent, child domain.TagRef) error {
	return nil
}
func (r *qTagRepo) SubtagEdgesByChild(ctx context.Context, child domain.TagRef) ([]domain.SubtagEdge, error) {
	return r.edgesByChild[child], nil
}
func (r *qTagRepo) SubtagEdgesByParent(ctx context.Context, parent domain.TagRef) ([]domain.SubtagEdge, error) {
	return r.edgesByParent[parent], nil
}
func (r *qTagRepo) CreateAssignment(ctx context.Context, assignment domain.TagAssignment) error {
	return nil
}
func (r *qTagRepo) DeleteAssignment(ctx context.Context, id string) error { return nil }
func (r *qTagRepo) AssignmentsForUser(ctx context.Context, username string) ([]domain.TagAssignment, error) {
	return r.byUser[username], nil
}
func (r *qTagRepo) AssignmentsForGroups(ctx context.Context, groups []domain.GroupRef) ([]domain.TagAssignment, error) {
	var out []domain.TagAssignment
	for _, g := range groups {
		out = append(out, r.byGroup[g]...)
	}
	return out, nil
}
func (r *qTagRepo) AssignmentsForTag(ctx context.Context, tag domain.TagRef) ([]domain.TagAssignment, error) {
	return r.byTag[tag], nil
}

type qSystemRepo struct {
	systems []domain.System
}

func (r *qSystemRepo) Create(ctx context.Context, system domain.System) error { return nil }
func (r *qSystemRepo) GetByID(ctx context.Context, id string) (*domain.System, error) {
	return nil, nil
}
func (r *qSystemRepo) Update(ctx context.Context, system domain.System) error { return nil }
func (r *qSystemRepo) Delete(ctx context.Context, id string) error            { return nil }
func (r *qSystemRepo) List(ctx context.Context) ([]domain.System, error)      { return r.systems, nil }

func newQueryFixture(groups *qGroupRepo, memberships *qMembershipRepo, perms *qPermissionRepo, tags *qTagRepo, systems *qSystemRepo) *QueryService {
	membershipResolver := resolver.NewMembershipResolver(groups, memberships)
	permissionResolver := resolver.NewPermissionResolver(membershipResolver, perms)
	tagResolver := resolver.NewTagResolver(tags)
	return NewQueryService(groups, tags, systems, permissionResolver, tagResolver, membershipResolver)
}

func strRefPtr(s string) *string { return &s }

func TestQueryServicePermissionsOfWildcardFolds(t *testing.T) {
	perms := &qPermissionRepo{byGroup: []domain.PermissionAssignment{
		{SystemID: "sys", PermID: "read", Scope: strRefPtr("east")},
		{SystemID: "sys", PermID: "read", Scope: strRefPtr(domain.WildcardScope)},
	}}
	memberships := newQMembershipRepo()
	at := time.Now()
	memberships.byUser["alice"] = []domain.DirectMembership{
		{Username: "alice", Group: domain.GroupRef{ID: "g1", Domain: "d"}, From: at.AddDate(0, 0, -1), Until: at.AddDate(0, 0, 1)},
	}

	svc := newQueryFixture(newQGroupRepo(), memberships, perms, newQTagRepo(), &qSystemRepo{})

	result, err := svc.PermissionsOf(context.Background(), domain.UserPrincipal("alice"), "sys")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 1 || result[0].Scope == nil || *result[0].Scope != domain.WildcardScope {
		t.Fatalf("expected wildcard to dominate into a single entry scoped to the wildcard literal, got %+v", result)
	}
}

func TestQueryServicePermissionScopesReturnsWildcardWhenUnscoped(t *testing.T) {
	perms := &qPermissionRepo{byToken: []domain.PermissionAssignment{
		{SystemID: "sys", PermID: "read", Scope: nil},
	}}
	svc := newQueryFixture(newQGroupRepo(), newQMembershipRepo(), perms, newQTagRepo(), &qSystemRepo{})

	scopes, err := svc.PermissionScopes(context.Background(), domain.TokenPrincipal("tok1"), "sys", "read")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scopes) != 1 || scopes[0] != domain.WildcardScope {
		t.Fatalf("expected [\"*\"], got %v", scopes)
	}
}

func TestQueryServiceTaggedUsersSortedByUsername(t *testing.T) {
	tags := newQTagRepo()
	tags.byTag[domain.TagRef{SystemID: "sys", TagID: "vip"}] = []domain.TagAssignment{
		{ID: "2", Tag: domain.TagRef{SystemID: "sys", TagID: "vip"}, Username: strRefPtr("zoe")},
		{ID: "1", Tag: domain.TagRef{SystemID: "sys", TagID: "vip"}, Username: strRefPtr("amy")},
	}
	svc := newQueryFixture(newQGroupRepo(), newQMembershipRepo(), &qPermissionRepo{}, tags, &qSystemRepo{})

	users, err := svc.TaggedUsers(context.Background(), "sys", "vip")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 2 || users[0].Username != "amy" || users[1].Username != "zoe" {
		t.Fatalf("expected sorted [amy zoe], got %+v", users)
	}
}

func TestQueryServiceGroupMembersRequiresTaggedInSystem(t *testing.T) {
	svc := newQueryFixture(newQGroupRepo(), newQMembershipRepo(), &qPermissionRepo{}, newQTagRepo(), &qSystemRepo{})

	_, err := svc.GroupMembers(context.Background(), domain.GroupRef{ID: "g1", Domain: "d"}, "sys")
	uerr, ok := err.(*Error)
	if !ok || uerr.Key != ErrKeyNotFoundGroup {
		t.Fatalf("expected not-found group for untagged group, got %v", err)
	}
}

func TestQueryServiceGroupMembersSucceeds(t *testing.T) {
	groups := newQGroupRepo()
	groups.byParent[domain.GroupRef{ID: "top", Domain: "d"}] = []domain.SubgroupEdge{
		{Parent: domain.GroupRef{ID: "top", Domain: "d"}, Child: domain.GroupRef{ID: "mid", Domain: "d"}},
	}

	memberships := newQMembershipRepo()
	at := time.Now()
	memberships.byGroup[domain.GroupRef{ID: "mid", Domain: "d"}] = []domain.DirectMembership{
		{Username: "bob", Group: domain.GroupRef{ID: "mid", Domain: "d"}, From: at.AddDate(0, 0, -1), Until: at.AddDate(0, 0, 1)},
	}

	tags := newQTagRepo()
	tags.byGroup[domain.GroupRef{ID: "top", Domain: "d"}] = []domain.TagAssignment{
		{ID: "1", Tag: domain.TagRef{SystemID: "sys", TagID: "vip"}, Group: &domain.GroupRef{ID: "top", Domain: "d"}},
	}

	svc := newQueryFixture(groups, memberships, &qPermissionRepo{}, tags, &qSystemRepo{})

	members, err := svc.GroupMembers(context.Background(), domain.GroupRef{ID: "top", Domain: "d"}, "sys")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(members) != 1 || members[0] != "bob" {
		t.Fatalf("expected [bob] reached via descent, got %v", members)
	}
}

func TestQueryServiceLegacyHasPermKeySplitsScope(t *testing.T) {
	perms := &qPermissionRepo{byToken: []domain.PermissionAssignment{
		{SystemID: "sys", PermID: "read", Scope: strRefPtr("east")},
	}}
	svc := newQueryFixture(newQGroupRepo(), newQMembershipRepo(), perms, newQTagRepo(), &qSystemRepo{})

	ok, err := svc.LegacyHasPermKey(context.Background(), domain.TokenPrincipal("tok1"), "sys", "read:east")
	if err != nil || !ok {
		t.Fatalf("expected read:east to match, got ok=%v err=%v", ok, err)
	}

	ok, err = svc.LegacyHasPermKey(context.Background(), domain.TokenPrincipal("tok1"), "sys", "read:west")
	if err != nil || ok {
		t.Fatalf("expected read:west to fail, got ok=%v err=%v", ok, err)
	}
}

func TestQueryServiceLegacyPermStringsAllSystems(t *testing.T) {
	perms := &qPermissionRepo{byToken: []domain.PermissionAssignment{
		{SystemID: "sys-a", PermID: "read", Scope: nil},
	}}
	systems := &qSystemRepo{systems: []domain.System{{ID: "sys-a"}, {ID: "sys-b"}}}
	svc := newQueryFixture(newQGroupRepo(), newQMembershipRepo(), perms, newQTagRepo(), systems)

	out, err := svc.LegacyPermStringsAllSystems(context.Background(), domain.TokenPrincipal("tok1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out["sys-a"][0] != "read" {
		t.Fatalf("expected only sys-a populated with read, got %+v", out)
	}
}
