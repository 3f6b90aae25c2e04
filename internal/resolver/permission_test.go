package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/hiveiam/hive/internal/core/domain"
)

type fakePermissionRepository struct {
	byGroup []domain.PermissionAssignment
	byToken []domain.PermissionAssignment
}

func (f *fakePermissionRepository) Create(ctx context.Context, permission domain.Permission) error {
	return nil
}
func (f *fakePermissionRepository) GetBySystemAndID(ctx context.Context, systemID, permID string) (*domain.Permission, error) {
	return nil, nil
}
func (f *fakePermissionRepository) Update(ctx context.Context, permission domain.Permission) error {
	return nil
}
func (f *fakePermissionRepository) Delete(ctx context.Context, systemID, permID string) error {
	return nil
}
func (f *fakePermissionRepository) ListBySystem(ctx context.Context, systemID string) ([]domain.Permission, error) {
	return nil, nil
}
func (f *fakePermissionRepository) CreateAssignment(ctx context.Context, assignment domain.PermissionAssignment) error {
	return nil
}
func (f *fakePermissionRepository) DeleteAssignment(ctx context.Context, id string) error {
	return nil
}
func (f *fakePermissionRepository) AssignmentsForGroups(ctx context.Context, groups []domain.GroupRef) ([]domain.PermissionAssignment, error) {
	return f.byGroup, nil
}
func (f *fakePermissionRepository) AssignmentsForAPIToken(ctx context.Context, apiTokenID string) ([]domain.PermissionAssignment, error) {
	return f.byToken, nil
}

func scopePtr(s string) *string { return &s }

func TestPermsOfWildcardDominatesScopes(t *testing.T) {
	perms := &fakePermissionRepository{
		byGroup: []domain.PermissionAssignment{
			{SystemID: "sys", PermID: "read", Scope: scopePtr("east")},
			{SystemID: "sys", PermID: "read", Scope: scopePtr(domain.WildcardScope)},
		},
	}
	groups := newFakeGroupRepository(nil)
	memberships := &fakeMembershipRepository{
		byUser: map[string][]domain.DirectMembership{
			"alice": {{Username: "alice", Group: ref("g1"), From: time.Now().AddDate(0, 0, -1), Until: time.Now().AddDate(0, 0, 1)}},
		},
	}
	resolver := NewPermissionResolver(NewMembershipResolver(groups, memberships), perms)

	result, err := resolver.PermsOf(context.Background(), domain.UserPrincipal("alice"), "sys", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 1 || result[0].Scope == nil || *result[0].Scope != domain.WildcardScope {
		t.Fatalf("expected a single dominating entry scoped to the wildcard literal, got %+v", result)
	}
}

func TestPermsOfUnscopedAssignmentDominatesWithNilScope(t *testing.T) {
	perms := &fakePermissionRepository{
		byGroup: []domain.PermissionAssignment{
			{SystemID: "sys", PermID: "read", Scope: scopePtr("east")},
			{SystemID: "sys", PermID: "read", Scope: nil},
		},
	}
	groups := newFakeGroupRepository(nil)
	memberships := &fakeMembershipRepository{
		byUser: map[string][]domain.DirectMembership{
			"alice": {{Username: "alice", Group: ref("g1"), From: time.Now().AddDate(0, 0, -1), Until: time.Now().AddDate(0, 0, 1)}},
		},
	}
	resolver := NewPermissionResolver(NewMembershipResolver(groups, memberships), perms)

	result, err := resolver.PermsOf(context.Background(), domain.UserPrincipal("alice"), "sys", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 1 || result[0].Scope != nil {
		t.Fatalf("expected a single dominating unscoped entry, got %+v", result)
	}
}

func TestPermsOfDistinctScopesSurvive(t *testing.T) {
	perms := &fakePermissionRepository{
		byGroup: []domain.PermissionAssignment{
			{SystemID: "sys", PermID: "read", Scope: scopePtr("east")},
			{SystemID: "sys", PermID: "read", Scope: scopePtr("west")},
		},
	}
	groups := newFakeGroupRepository(nil)
	memberships := &fakeMembershipRepository{
		byUser: map[string][]domain.DirectMembership{
			"alice": {{Username: "alice", Group: ref("g1"), From: time.Now().AddDate(0, 0, -1), Until: time.Now().AddDate(0, 0, 1)}},
		},
	}
	resolver := NewPermissionResolver(NewMembershipResolver(groups, memberships), perms)

	result, err := resolver.PermsOf(context.Background(), domain.UserPrincipal("alice"), "sys", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 distinct scoped entries, got %+v", result)
	}
	if result[0].ScopeOrEmpty() >= result[1].ScopeOrEmpty() {
		t.Fatalf("expected entries sorted by scope, got %+v", result)
	}
}

func TestPermsOfIgnoresOtherSystems(t *testing.T) {
	perms := &fakePermissionRepository{
		byGroup: []domain.PermissionAssignment{
			{SystemID: "other", PermID: "read", Scope: nil},
		},
	}
	groups := newFakeGroupRepository(nil)
	memberships := &fakeMembershipRepository{byUser: map[string][]domain.DirectMembership{}}
	resolver := NewPermissionResolver(NewMembershipResolver(groups, memberships), perms)

	result, err := resolver.PermsOf(context.Background(), domain.UserPrincipal("alice"), "sys", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 0 {
		t.Fatalf("expected no entries for a different system, got %+v", result)
	}
}

func TestHasScopedRequiresExactMatch(t *testing.T) {
	perms := &fakePermissionRepository{
		byToken: []domain.PermissionAssignment{
			{SystemID: "sys", PermID: "read", Scope: scopePtr("east")},
		},
	}
	resolver := NewPermissionResolver(NewMembershipResolver(newFakeGroupRepository(nil), &fakeMembershipRepository{}), perms)

	principal := domain.TokenPrincipal("token-1")
	east := "east"
	west := "west"

	ok, err := resolver.Has(context.Background(), principal, "sys", "read", &east, time.Now())
	if err != nil || !ok {
		t.Fatalf("expected exact scope match to succeed, got ok=%v err=%v", ok, err)
	}

	ok, err = resolver.Has(context.Background(), principal, "sys", "read", &west, time.Now())
	if err != nil || ok {
		t.Fatalf("expected mismatched scope to fail, got ok=%v err=%v", ok, err)
	}
}

func TestHasUnscopedSatisfiesAnyScope(t *testing.T) {
	perms := &fakePermissionRepository{
		byToken: []domain.PermissionAssignment{
			{SystemID: "sys", PermID: "read", Scope: nil},
		},
	}
	resolver := NewPermissionResolver(NewMembershipResolver(newFakeGroupRepository(nil), &fakeMembershipRepository{}), perms)

	principal := domain.TokenPrincipal("token-1")
	anyScope := "anything"

	ok, err := resolver.Has(context.Background(), principal, "sys", "read", &anyScope, time.Now())
	if err != nil || !ok {
		t.Fatalf("expected unscoped assignment to satisfy any scope query, got ok=%v err=%v", ok, err)
	}
}
