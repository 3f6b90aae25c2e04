package usecase

import (
	"context"
	"testing"

	"github.com/hiveiam/hive/internal/core/domain"
	"github.com/hiveiam/hive/internal/repository"
)

type permKey struct{ systemID, permID string }

type fakePermissionRepositoryWrite struct {
	perms       map[permKey]domain.Permission
	assignments map[string]domain.PermissionAssignment
}

func newFakePermissionRepositoryWrite() *fakePermissionRepositoryWrite {
	return &fakePermissionRepositoryWrite{
		perms:       map[permKey]domain.Permission{},
		assignments: map[string]domain.PermissionAssignment{},
	}
}

func (f *fakePermissionRepositoryWrite) Create(ctx context.Context, permission domain.Permission) error {
	key := permKey{permission.SystemID, permission.PermID}
	if _, ok := f.perms[key]; ok {
		return repository.ErrConflict
	}
	f.perms[key] = permission
	return nil
}
func (f *fakePermissionRepositoryWrite) GetBySystemAndID(ctx context.Context, systemID, permID string) (*domain.Permission, error) {
	p, ok := f.perms[permKey{systemID, permID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}
func (f *fakePermissionRepositoryWrite) Update(ctx context.Context, permission domain.Permission) error {
	f.perms[permKey{permission.SystemID, permission.PermID}] = permission
	return nil
}
func (f *fakePermissionRepositoryWrite) Delete(ctx context.Context, systemID, permID string) error {
	key := permKey{systemID, permID}
	if _, ok := f.perms[key]; !ok {
		return repository.ErrNotFound
	}
	delete(f.perms, key)
	return nil
}
func (f *fakePermissionRepositoryWrite) ListBySystem(ctx context.Context, systemID string) ([]domain.Permission, error) {
	return nil, nil
}
func (f *fakePermissionRepositoryWrite) CreateAssignment(ctx context.Context, assignment domain.PermissionAssignment) error {
	if _, ok := f.assignments[assignment.ID]; ok {
		return repository.ErrConflict
	}
	f.assignments[assignment.ID] = assignment
	return nil
}
func (f *fakePermissionRepositoryWrite) DeleteAssignment(ctx context.Context, id string) error {
	if _, ok := f.assignments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.assignments, id)
	return nil
}
func (f *fakePermissionRepositoryWrite) AssignmentsForGroups(ctx context.Context, groups []domain.GroupRef) ([]domain.PermissionAssignment, error) {
	return nil, nil
}
func (f *fakePermissionRepositoryWrite) AssignmentsForAPIToken(ctx context.Context, apiTokenID string) ([]domain.PermissionAssignment, error) {
	return nil, nil
}

func TestPermissionUsecaseDeclarePermissionValidation(t *testing.T) {
	uc := NewPermissionUsecase(newFakePermissionRepositoryWrite(), nil)

	err := uc.DeclarePermission(context.Background(), domain.Permission{}, "alice")
	uerr, ok := err.(*Error)
	if !ok || uerr.Key != ErrKeyValidation+".permission.system-perm-required" {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPermissionUsecaseDeclarePermissionDuplicateConflict(t *testing.T) {
	perms := newFakePermissionRepositoryWrite()
	uc := NewPermissionUsecase(perms, nil)
	p := domain.Permission{SystemID: "sys", PermID: "read"}

	if err := uc.DeclarePermission(context.Background(), p, "alice"); err != nil {
		t.Fatalf("unexpected error on first declare: %v", err)
	}
	err := uc.DeclarePermission(context.Background(), p, "alice")
	uerr, ok := err.(*Error)
	if !ok || uerr.Key != ErrKeyConflictDuplicate {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestPermissionUsecaseAssignToGroupRequiresDeclaredPermission(t *testing.T) {
	uc := NewPermissionUsecase(newFakePermissionRepositoryWrite(), nil)

	_, err := uc.AssignToGroup(context.Background(), "sys", "read", domain.GroupRef{ID: "g1", Domain: "d"}, nil, "alice")
	uerr, ok := err.(*Error)
	if !ok || uerr.Key != ErrKeyNotFoundPermission {
		t.Fatalf("expected not-found permission, got %v", err)
	}
}

func TestPermissionUsecaseAssignToGroupSucceeds(t *testing.T) {
	perms := newFakePermissionRepositoryWrite()
	audit := &fakeAuditSink{}
	uc := NewPermissionUsecase(perms, audit)

	p := domain.Permission{SystemID: "sys", PermID: "read"}
	if err := uc.DeclarePermission(context.Background(), p, "alice"); err != nil {
		t.Fatalf("unexpected error declaring permission: %v", err)
	}

	id, err := uc.AssignToGroup(context.Background(), "sys", "read", domain.GroupRef{ID: "g1", Domain: "d"}, nil, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated assignment id")
	}
	if _, ok := perms.assignments[id]; !ok {
		t.Fatal("expected assignment stored")
	}
	if len(audit.entries) != 2 {
		t.Fatalf("expected declare + assign audit entries, got %+v", audit.entries)
	}
}

func TestPermissionUsecaseRevokeAssignmentNotFound(t *testing.T) {
	uc := NewPermissionUsecase(newFakePermissionRepositoryWrite(), nil)

	err := uc.RevokeAssignment(context.Background(), "missing", "alice")
	uerr, ok := err.(*Error)
	if !ok || uerr.Key != ErrKeyNotFoundPermission {
		t.Fatalf("expected not-found, got %v", err)
	}
}
