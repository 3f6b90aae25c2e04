package usecase

import (
	"context"
	"testing"

	"github.com/hiveiam/hive/internal/core/domain"
	"github.com/hiveiam/hive/internal/repository"
)

type fakeTagRepositoryWrite struct {
	tags        map[domain.TagRef]domain.Tag
	assignments map[string]domain.TagAssignment
}

func newFakeTagRepositoryWrite() *fakeTagRepositoryWrite {
	return &fakeTagRepositoryWrite{
		tags:        map[domain.TagRef]domain.Tag{},
		assignments: map[string]domain.TagAssignment{},
	}
}

func (f *fakeTagRepositoryWrite) Create(ctx context.Context, tag domain.Tag) error {
	if _, ok := f.tags[tag.Ref()]; ok {
		return repository.ErrConflict
	}
	f.tags[tag.Ref()] = tag
	return nil
}
func (f *fakeTagRepositoryWrite) GetBySystemAndID(ctx context.Context, systemID, tagID string) (*domain.Tag, error) {
	t, ok := f.tags[domain.TagRef{SystemID: systemID, TagID: tagID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}
func (f *fakeTagRepositoryWrite) Update(ctx context.Context, tag domain.Tag) error {
	f.tags[tag.Ref()] = tag
	return nil
}
func (f *fakeTagRepositoryWrite) Delete(ctx context.Context, systemID, tagID string) error {
	key := domain.TagRef{SystemID: systemID, TagID: tagID}
	if _, ok := f.tags[key]; !ok {
		return repository.ErrNotFound
	}
	delete(f.tags, key)
	return nil
}
func (f *fakeTagRepositoryWrite) ListBySystem(ctx context.Context, systemID string) ([]domain.Tag, error) {
	return nil, nil
}
func (f *fakeTagRepositoryWrite) AddSubtagEdge(ctx context.Context, edge domain.SubtagEdge) error {
	return nil
}
func (f *fakeTagRepositoryWrite) RemoveSubtagEdge(ctx context.Context, parent, child domain.TagRef) error {
	return nil
}
func (f *fakeTagRepositoryWrite) SubtagEdgesByChild(ctx context.Context, child domain.TagRef) ([]domain.SubtagEdge, error) {
	return nil, nil
}
func (f *fakeTagRepositoryWrite) SubtagEdgesByParent(ctx context.Context, parent domain.TagRef) ([]domain.SubtagEdge, error) {
	return nil, nil
}
func (f *fakeTagRepositoryWrite) CreateAssignment(ctx context.Context, assignment domain.TagAssignment) error {
	if _, ok := f.assignments[assignment.ID]; ok {
		return repository.ErrConflict
	}
	f.assignments[assignment.ID] = assignment
	return nil
}
func (f *fakeTagRepositoryWrite) DeleteAssignment(ctx context.Context, id string) error {
	if _, ok := f.assignments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.assignments, id)
	return nil
}
func (f *fakeTagRepositoryWrite) AssignmentsForUser(ctx context.Context, username string) ([]domain.TagAssignment, error) {
	return nil, nil
}
func (f *fakeTagRepositoryWrite) AssignmentsForGroups(ctx context.Context, groups []domain.GroupRef) ([]domain.TagAssignment, error) {
	return nil, nil
}
func (f *fakeTagRepositoryWrite) AssignmentsForTag(ctx context.Context, tag domain.TagRef) ([]domain.TagAssignment, error) {
	return nil, nil
}

func TestTagUsecaseDeclareTagRequiresBearerKind(t *testing.T) {
	uc := NewTagUsecase(newFakeTagRepositoryWrite(), nil)

	err := uc.DeclareTag(context.Background(), domain.Tag{SystemID: "sys", TagID: "vip"}, "alice")
	uerr, ok := err.(*Error)
	if !ok || uerr.Key != ErrKeyValidation+".tag.no-bearer-kind" {
		t.Fatalf("expected no-bearer-kind validation error, got %v", err)
	}
}

func TestTagUsecaseAddSubtagEdgeRejectsContentBearingParent(t *testing.T) {
	tags := newFakeTagRepositoryWrite()
	uc := NewTagUsecase(tags, nil)

	parent := domain.Tag{SystemID: "sys", TagID: "parent", SupportsUsers: true, HasContent: true}
	if err := uc.DeclareTag(context.Background(), parent, "alice"); err != nil {
		t.Fatalf("unexpected error declaring parent: %v", err)
	}

	err := uc.AddSubtagEdge(context.Background(), domain.SubtagEdge{
		Parent: parent.Ref(),
		Child:  domain.TagRef{SystemID: "sys", TagID: "child"},
	}, "alice")
	uerr, ok := err.(*Error)
	if !ok || uerr.Key != ErrKeyValidation+".tag-has-content-parent" {
		t.Fatalf("expected content-bearing-parent rejection, got %v", err)
	}
}

func TestTagUsecaseAssignToUserRequiresContentWhenTagHasContent(t *testing.T) {
	tags := newFakeTagRepositoryWrite()
	uc := NewTagUsecase(tags, nil)

	tag := domain.Tag{SystemID: "sys", TagID: "note", SupportsUsers: true, HasContent: true}
	if err := uc.DeclareTag(context.Background(), tag, "alice"); err != nil {
		t.Fatalf("unexpected error declaring tag: %v", err)
	}

	_, err := uc.AssignToUser(context.Background(), tag.Ref(), "bob", nil, "alice")
	uerr, ok := err.(*Error)
	if !ok || uerr.Key != ErrKeyValidation+".tag.content-required" {
		t.Fatalf("expected content-required validation error, got %v", err)
	}
}

func TestTagUsecaseAssignToUserRejectsUnsupportedBearer(t *testing.T) {
	tags := newFakeTagRepositoryWrite()
	uc := NewTagUsecase(tags, nil)

	tag := domain.Tag{SystemID: "sys", TagID: "group-only", SupportsGroups: true}
	if err := uc.DeclareTag(context.Background(), tag, "alice"); err != nil {
		t.Fatalf("unexpected error declaring tag: %v", err)
	}

	_, err := uc.AssignToUser(context.Background(), tag.Ref(), "bob", nil, "alice")
	uerr, ok := err.(*Error)
	if !ok || uerr.Key != ErrKeyValidation+".tag.unsupported-bearer" {
		t.Fatalf("expected unsupported-bearer validation error, got %v", err)
	}
}

func TestTagUsecaseAssignToUserSucceeds(t *testing.T) {
	tags := newFakeTagRepositoryWrite()
	audit := &fakeAuditSink{}
	uc := NewTagUsecase(tags, audit)

	tag := domain.Tag{SystemID: "sys", TagID: "vip", SupportsUsers: true}
	if err := uc.DeclareTag(context.Background(), tag, "alice"); err != nil {
		t.Fatalf("unexpected error declaring tag: %v", err)
	}

	id, err := uc.AssignToUser(context.Background(), tag.Ref(), "bob", nil, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := tags.assignments[id]; !ok {
		t.Fatal("expected assignment stored")
	}
	if len(audit.entries) != 2 {
		t.Fatalf("expected declare + assign audit entries, got %+v", audit.entries)
	}
}
