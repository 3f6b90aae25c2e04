package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/hiveiam/hive/internal/core/domain"
	"github.com/hiveiam/hive/internal/repository"
	"github.com/hiveiam/hive/internal/usecase"
)

type fakeSystemRepository struct {
	systems map[string]domain.System
}

func newFakeSystemRepository() *fakeSystemRepository {
	return &fakeSystemRepository{systems: map[string]domain.System{}}
}

func (f *fakeSystemRepository) Create(ctx context.Context, system domain.System) error {
	if _, ok := f.systems[system.ID]; ok {
		return repository.ErrConflict
	}
	f.systems[system.ID] = system
	return nil
}

func (f *fakeSystemRepository) GetByID(ctx context.Context, id string) (*domain.System, error) {
	s, ok := f.systems[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (f *fakeSystemRepository) Update(ctx context.Context, system domain.System) error {
	f.systems[system.ID] = system
	return nil
}

func (f *fakeSystemRepository) Delete(ctx context.Context, id string) error {
	if _, ok := f.systems[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.systems, id)
	return nil
}

func (f *fakeSystemRepository) List(ctx context.Context) ([]domain.System, error) {
	out := make([]domain.System, 0, len(f.systems))
	for _, s := range f.systems {
		out = append(out, s)
	}
	return out, nil
}

type fakeAuditSink struct {
	entries []domain.AuditLog
}

func (f *fakeAuditSink) Append(ctx context.Context, entry domain.AuditLog) error {
	f.entries = append(f.entries, entry)
	return nil
}

func TestSystemHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newFakeSystemRepository()
	sink := &fakeAuditSink{}
	h := NewSystemHandler(usecase.NewSystemUsecase(repo, sink))

	r := gin.New()
	r.POST("/api/admin/systems", h.Create)

	body, _ := json.Marshal(SystemRequest{ID: "shop", Description: "shop backend"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/admin/systems", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if _, ok := repo.systems["shop"]; !ok {
		t.Fatalf("expected system to be created")
	}
	if len(sink.entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(sink.entries))
	}
}

func TestSystemHandlerCreateDuplicateConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newFakeSystemRepository()
	repo.systems["shop"] = domain.System{ID: "shop"}
	sink := &fakeAuditSink{}
	h := NewSystemHandler(usecase.NewSystemUsecase(repo, sink))

	r := gin.New()
	r.POST("/api/admin/systems", h.Create)

	body, _ := json.Marshal(SystemRequest{ID: "shop"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/admin/systems", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSystemHandlerDeleteReserved(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newFakeSystemRepository()
	repo.systems[domain.HiveSystemID] = domain.System{ID: domain.HiveSystemID}
	sink := &fakeAuditSink{}
	h := NewSystemHandler(usecase.NewSystemUsecase(repo, sink))

	r := gin.New()
	r.DELETE("/api/admin/systems/:id", h.Delete)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodDelete, "/api/admin/systems/"+domain.HiveSystemID, nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}
