package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/hiveiam/hive/internal/core/domain"
)

type fakeGroupRepository struct {
	byChild  map[domain.GroupRef][]domain.SubgroupEdge
	byParent map[domain.GroupRef][]domain.SubgroupEdge
}

func newFakeGroupRepository(edges []domain.SubgroupEdge) *fakeGroupRepository {
	r := &fakeGroupRepository{
		byChild:  map[domain.GroupRef][]domain.SubgroupEdge{},
		byParent: map[domain.GroupRef][]domain.SubgroupEdge{},
	}
	for _, e := range edges {
		r.byChild[e.Child] = append(r.byChild[e.Child], e)
		r.byParent[e.Parent] = append(r.byParent[e.Parent], e)
	}
	return r
}

func (f *fakeGroupRepository) Create(ctx context.Context, group domain.Group) error { return nil }
func (f *fakeGroupRepository) GetByRef(ctx context.Context, ref domain.GroupRef) (*domain.Group, error) {
	return nil, nil
}
func (f *fakeGroupRepository) Update(ctx context.Context, group domain.Group) error { return nil }
func (f *fakeGroupRepository) Delete(ctx context.Context, ref domain.GroupRef) error { return nil }
func (f *fakeGroupRepository) List(ctx context.Context) ([]domain.Group, error)      { return nil, nil }
func (f *fakeGroupRepository) AddSubgroupEdge(ctx context.Context, edge domain.SubgroupEdge) error {
	return nil
}
func (f *fakeGroupRepository) RemoveSubgroupEdge(ctx context.Context, parent, child domain.GroupRef) error {
	return nil
}
func (f *fakeGroupRepository) EdgesByChild(ctx context.Context, child domain.GroupRef) ([]domain.SubgroupEdge, error) {
	return f.byChild[child], nil
}
func (f *fakeGroupRepository) EdgesByParent(ctx context.Context, parent domain.GroupRef) ([]domain.SubgroupEdge, error) {
	return f.byParent[parent], nil
}

type fakeMembershipRepository struct {
	byUser  map[string][]domain.DirectMembership
	byGroup map[domain.GroupRef][]domain.DirectMembership
}

func (f *fakeMembershipRepository) Create(ctx context.Context, m domain.DirectMembership) error {
	return nil
}
func (f *fakeMembershipRepository) Delete(ctx context.Context, id string) error { return nil }
func (f *fakeMembershipRepository) GetByID(ctx context.Context, id string) (*domain.DirectMembership, error) {
	return nil, nil
}
func (f *fakeMembershipRepository) DirectMembershipsForUser(ctx context.Context, username string, at time.Time) ([]domain.DirectMembership, error) {
	return f.byUser[username], nil
}
func (f *fakeMembershipRepository) DirectMembersOfGroup(ctx context.Context, group domain.GroupRef, at time.Time) ([]domain.DirectMembership, error) {
	return f.byGroup[group], nil
}

func ref(id string) domain.GroupRef { return domain.GroupRef{ID: id, Domain: "d"} }

func TestGroupsOfDiamondInheritance(t *testing.T) {
	// leaf -> mid1 -> top
	// leaf -> mid2 -> top
	edges := []domain.SubgroupEdge{
		{Parent: ref("mid1"), Child: ref("leaf")},
		{Parent: ref("mid2"), Child: ref("leaf")},
		{Parent: ref("top"), Child: ref("mid1")},
		{Parent: ref("top"), Child: ref("mid2")},
	}
	groups := newFakeGroupRepository(edges)

	at := time.Now()
	memberships := &fakeMembershipRepository{
		byUser: map[string][]domain.DirectMembership{
			"alice": {{Username: "alice", Group: ref("leaf"), From: at.AddDate(0, 0, -1), Until: at.AddDate(0, 0, 1)}},
		},
	}

	resolver := NewMembershipResolver(groups, memberships)
	result, err := resolver.GroupsOf(context.Background(), "alice", at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// leaf (direct) + mid1 + mid2 + top reached twice (once via each mid)
	if len(result) != 5 {
		t.Fatalf("expected 5 entries (diamond visits top via both paths), got %d: %+v", len(result), result)
	}

	topCount := 0
	for _, m := range result {
		if m.Group == ref("top") {
			topCount++
		}
	}
	if topCount != 2 {
		t.Fatalf("expected top reached via 2 distinct paths, got %d", topCount)
	}
}

func TestGroupsOfCycleDefendedPerPath(t *testing.T) {
	// a -> b -> a (cycle); membership starts at a.
	edges := []domain.SubgroupEdge{
		{Parent: ref("b"), Child: ref("a")},
		{Parent: ref("a"), Child: ref("b")},
	}
	groups := newFakeGroupRepository(edges)

	at := time.Now()
	memberships := &fakeMembershipRepository{
		byUser: map[string][]domain.DirectMembership{
			"alice": {{Username: "alice", Group: ref("a"), From: at.AddDate(0, 0, -1), Until: at.AddDate(0, 0, 1)}},
		},
	}

	resolver := NewMembershipResolver(groups, memberships)
	result, err := resolver.GroupsOf(context.Background(), "alice", at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// a (direct) -> b (climb) -> a already on path, stop.
	if len(result) != 2 {
		t.Fatalf("expected exactly 2 entries (a direct, b via climb), got %d: %+v", len(result), result)
	}
}

func TestGroupsOfManagerFixedAtFirstHop(t *testing.T) {
	edges := []domain.SubgroupEdge{
		{Parent: ref("mid"), Child: ref("leaf"), Manager: true},
		{Parent: ref("top"), Child: ref("mid"), Manager: false},
	}
	groups := newFakeGroupRepository(edges)

	at := time.Now()
	memberships := &fakeMembershipRepository{
		byUser: map[string][]domain.DirectMembership{
			"alice": {{Username: "alice", Group: ref("leaf"), Manager: false, From: at.AddDate(0, 0, -1), Until: at.AddDate(0, 0, 1)}},
		},
	}

	resolver := NewMembershipResolver(groups, memberships)
	result, err := resolver.GroupsOf(context.Background(), "alice", at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, m := range result {
		if m.Group == ref("mid") && !m.Manager {
			t.Fatalf("expected manager flag fixed true at first hop for mid, got false")
		}
		if m.Group == ref("top") && !m.Manager {
			t.Fatalf("expected manager flag carried unchanged to top, got false")
		}
	}
}

func TestMembersOfDescendsSubgroups(t *testing.T) {
	edges := []domain.SubgroupEdge{
		{Parent: ref("top"), Child: ref("mid")},
	}
	groups := newFakeGroupRepository(edges)

	at := time.Now()
	memberships := &fakeMembershipRepository{
		byGroup: map[domain.GroupRef][]domain.DirectMembership{
			ref("mid"): {{Username: "bob", Group: ref("mid"), From: at.AddDate(0, 0, -1), Until: at.AddDate(0, 0, 1)}},
		},
	}

	resolver := NewMembershipResolver(groups, memberships)
	result, err := resolver.MembersOf(context.Background(), ref("top"), at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 1 || result[0].Username != "bob" {
		t.Fatalf("expected bob reached via descent into mid, got %+v", result)
	}
}
