package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/hiveiam/hive/internal/core/domain"
	"github.com/hiveiam/hive/internal/repository"
)

type fakeGroupRepositoryWrite struct {
	groups map[domain.GroupRef]domain.Group
	edges  map[string]domain.SubgroupEdge
}

func newFakeGroupRepositoryWrite() *fakeGroupRepositoryWrite {
	return &fakeGroupRepositoryWrite{
		groups: map[domain.GroupRef]domain.Group{},
		edges:  map[string]domain.SubgroupEdge{},
	}
}

func edgeKey(parent, child domain.GroupRef) string { return parent.String() + "|" + child.String() }

func (f *fakeGroupRepositoryWrite) Create(ctx context.Context, group domain.Group) error {
	if _, ok := f.groups[group.Ref()]; ok {
		return repository.ErrConflict
	}
	f.groups[group.Ref()] = group
	return nil
}
func (f *fakeGroupRepositoryWrite) GetByRef(ctx context.Context, ref domain.GroupRef) (*domain.Group, error) {
	g, ok := f.groups[ref]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &g, nil
}
func (f *fakeGroupRepositoryWrite) Update(ctx context.Context, group domain.Group) error {
	f.groups[group.Ref()] = group
	return nil
}
func (f *fakeGroupRepositoryWrite) Delete(ctx context.Context, ref domain.GroupRef) error {
	if _, ok := f.groups[ref]; !ok {
		return repository.ErrNotFound
	}
	delete(f.groups, ref)
	return nil
}
func (f *fakeGroupRepositoryWrite) List(ctx context.Context) ([]domain.Group, error) {
	return nil, nil
}
func (f *fakeGroupRepositoryWrite) AddSubgroupEdge(ctx context.Context, edge domain.SubgroupEdge) error {
	key := edgeKey(edge.Parent, edge.Child)
	if _, ok := f.edges[key]; ok {
		return repository.ErrConflict
	}
	f.edges[key] = edge
	return nil
}
func (f *fakeGroupRepositoryWrite) RemoveSubgroupEdge(ctx context.Context, parent, child domain.GroupRef) error {
	key := edgeKey(parent, child)
	if _, ok := f.edges[key]; !ok {
		return repository.ErrNotFound
	}
	delete(f.edges, key)
	return nil
}
func (f *fakeGroupRepositoryWrite) EdgesByChild(ctx context.Context, child domain.GroupRef) ([]domain.SubgroupEdge, error) {
	return nil, nil
}
func (f *fakeGroupRepositoryWrite) EdgesByParent(ctx context.Context, parent domain.GroupRef) ([]domain.SubgroupEdge, error) {
	return nil, nil
}

type fakeMembershipRepositoryWrite struct {
	byID map[string]domain.DirectMembership
}

func newFakeMembershipRepositoryWrite() *fakeMembershipRepositoryWrite {
	return &fakeMembershipRepositoryWrite{byID: map[string]domain.DirectMembership{}}
}

func (f *fakeMembershipRepositoryWrite) Create(ctx context.Context, m domain.DirectMembership) error {
	f.byID[m.ID] = m
	return nil
}
func (f *fakeMembershipRepositoryWrite) Delete(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}
func (f *fakeMembershipRepositoryWrite) GetByID(ctx context.Context, id string) (*domain.DirectMembership, error) {
	m, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}
func (f *fakeMembershipRepositoryWrite) DirectMembershipsForUser(ctx context.Context, username string, at time.Time) ([]domain.DirectMembership, error) {
	return nil, nil
}
func (f *fakeMembershipRepositoryWrite) DirectMembersOfGroup(ctx context.Context, group domain.GroupRef, at time.Time) ([]domain.DirectMembership, error) {
	return nil, nil
}

func TestGroupUsecaseCreateGroup(t *testing.T) {
	groups := newFakeGroupRepositoryWrite()
	audit := &fakeAuditSink{}
	uc := NewGroupUsecase(groups, newFakeMembershipRepositoryWrite(), audit)

	err := uc.CreateGroup(context.Background(), domain.Group{ID: "g1", Domain: "d", NameEN: "Group"}, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups.groups) != 1 {
		t.Fatalf("expected group stored, got %+v", groups.groups)
	}
	if len(audit.entries) != 1 || audit.entries[0].Actor != "alice" {
		t.Fatalf("expected one audit entry for alice, got %+v", audit.entries)
	}
}

func TestGroupUsecaseCreateGroupMissingFieldsRejected(t *testing.T) {
	uc := NewGroupUsecase(newFakeGroupRepositoryWrite(), newFakeMembershipRepositoryWrite(), nil)

	err := uc.CreateGroup(context.Background(), domain.Group{}, "alice")
	uerr, ok := err.(*Error)
	if !ok || uerr.Key != ErrKeyValidation+".group.id-domain-required" {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGroupUsecaseCreateGroupDuplicateConflict(t *testing.T) {
	groups := newFakeGroupRepositoryWrite()
	uc := NewGroupUsecase(groups, newFakeMembershipRepositoryWrite(), nil)

	g := domain.Group{ID: "g1", Domain: "d"}
	if err := uc.CreateGroup(context.Background(), g, "alice"); err != nil {
		t.Fatalf("unexpected error on first create: %v", err)
	}

	err := uc.CreateGroup(context.Background(), g, "alice")
	uerr, ok := err.(*Error)
	if !ok || uerr.Key != ErrKeyConflictDuplicate {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestGroupUsecaseUpdateGroupNotFound(t *testing.T) {
	uc := NewGroupUsecase(newFakeGroupRepositoryWrite(), newFakeMembershipRepositoryWrite(), nil)

	err := uc.UpdateGroup(context.Background(), domain.Group{ID: "missing", Domain: "d"}, "alice")
	uerr, ok := err.(*Error)
	if !ok || uerr.Key != ErrKeyNotFoundGroup {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestGroupUsecaseAddSubgroupEdgeRejectsSelfEdge(t *testing.T) {
	uc := NewGroupUsecase(newFakeGroupRepositoryWrite(), newFakeMembershipRepositoryWrite(), nil)

	ref := domain.GroupRef{ID: "g1", Domain: "d"}
	err := uc.AddSubgroupEdge(context.Background(), domain.SubgroupEdge{Parent: ref, Child: ref}, "alice")
	uerr, ok := err.(*Error)
	if !ok || uerr.Key != ErrKeyValidation+".group.self-edge" {
		t.Fatalf("expected self-edge validation error, got %v", err)
	}
}

func TestGroupUsecaseAddDirectMembershipValidatesWindow(t *testing.T) {
	uc := NewGroupUsecase(newFakeGroupRepositoryWrite(), newFakeMembershipRepositoryWrite(), nil)

	m := domain.DirectMembership{
		Username: "alice",
		Group:    domain.GroupRef{ID: "g1", Domain: "d"},
		From:     time.Now(),
		Until:    time.Now().AddDate(0, 0, -1),
	}
	_, err := uc.AddDirectMembership(context.Background(), m, "bob")
	uerr, ok := err.(*Error)
	if !ok || uerr.Key != ErrKeyValidation+".membership.until-before-from" {
		t.Fatalf("expected until-before-from validation error, got %v", err)
	}
}

func TestGroupUsecaseAddDirectMembershipSucceeds(t *testing.T) {
	memberships := newFakeMembershipRepositoryWrite()
	audit := &fakeAuditSink{}
	uc := NewGroupUsecase(newFakeGroupRepositoryWrite(), memberships, audit)

	m := domain.DirectMembership{
		Username: "alice",
		Group:    domain.GroupRef{ID: "g1", Domain: "d"},
		From:     time.Now().AddDate(0, 0, -1),
		Until:    time.Now().AddDate(0, 0, 1),
	}
	id, err := uc.AddDirectMembership(context.Background(), m, "bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated membership id")
	}
	if _, ok := memberships.byID[id]; !ok {
		t.Fatalf("expected membership stored under generated id")
	}
	if len(audit.entries) != 1 {
		t.Fatalf("expected one audit entry, got %+v", audit.entries)
	}
}

func TestGroupUsecaseRemoveDirectMembershipNotFound(t *testing.T) {
	uc := NewGroupUsecase(newFakeGroupRepositoryWrite(), newFakeMembershipRepositoryWrite(), nil)

	err := uc.RemoveDirectMembership(context.Background(), "missing", "bob")
	uerr, ok := err.(*Error)
	if !ok || uerr.Key != ErrKeyNotFoundMembership {
		t.Fatalf("expected not-found membership, got %v", err)
	}
}
