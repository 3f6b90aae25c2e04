package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/hiveiam/hive/internal/core/domain"
	"github.com/hiveiam/hive/internal/repository"
)

type fakeAPITokenRepositoryWrite struct {
	byID map[string]domain.APIToken
}

func newFakeAPITokenRepositoryWrite() *fakeAPITokenRepositoryWrite {
	return &fakeAPITokenRepositoryWrite{byID: map[string]domain.APIToken{}}
}

func (f *fakeAPITokenRepositoryWrite) Create(ctx context.Context, token domain.APIToken) error {
	f.byID[token.ID] = token
	return nil
}
func (f *fakeAPITokenRepositoryWrite) GetByID(ctx context.Context, id string) (*domain.APIToken, error) {
	t, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}
func (f *fakeAPITokenRepositoryWrite) GetBySecretHash(ctx context.Context, secretHash string) (*domain.APIToken, error) {
	for _, t := range f.byID {
		if t.SecretHash == secretHash {
			return &t, nil
		}
	}
	return nil, repository.ErrNotFound
}
func (f *fakeAPITokenRepositoryWrite) Update(ctx context.Context, token domain.APIToken) error {
	f.byID[token.ID] = token
	return nil
}
func (f *fakeAPITokenRepositoryWrite) Delete(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}
func (f *fakeAPITokenRepositoryWrite) ListBySystem(ctx context.Context, systemID string) ([]domain.APIToken, error) {
	return nil, nil
}
func (f *fakeAPITokenRepositoryWrite) Touch(ctx context.Context, id string, at time.Time) error {
	return nil
}

type fakeSystemRepositoryWrite struct {
	byID map[string]domain.System
}

func newFakeSystemRepositoryWrite() *fakeSystemRepositoryWrite {
	return &fakeSystemRepositoryWrite{byID: map[string]domain.System{}}
}

func (f *fakeSystemRepositoryWrite) Create(ctx context.Context, system domain.System) error {
	if _, ok := f.byID[system.ID]; ok {
		return repository.ErrConflict
	}
	f.byID[system.ID] = system
	return nil
}
func (f *fakeSystemRepositoryWrite) GetByID(ctx context.Context, id string) (*domain.System, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}
func (f *fakeSystemRepositoryWrite) Update(ctx context.Context, system domain.System) error {
	f.byID[system.ID] = system
	return nil
}
func (f *fakeSystemRepositoryWrite) Delete(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}
func (f *fakeSystemRepositoryWrite) List(ctx context.Context) ([]domain.System, error) {
	return nil, nil
}

func TestTokenUsecaseCreateTokenRequiresKnownSystem(t *testing.T) {
	uc := NewTokenUsecase(newFakeAPITokenRepositoryWrite(), newFakeSystemRepositoryWrite(), nil)

	_, _, err := uc.CreateToken(context.Background(), "missing-sys", "desc", nil, "alice")
	uerr, ok := err.(*Error)
	if !ok || uerr.Key != ErrKeyNotFoundSystem {
		t.Fatalf("expected not-found system, got %v", err)
	}
}

func TestTokenUsecaseCreateTokenReturnsRawSecretOnce(t *testing.T) {
	systems := newFakeSystemRepositoryWrite()
	systems.byID["sys"] = domain.System{ID: "sys"}
	tokens := newFakeAPITokenRepositoryWrite()
	audit := &fakeAuditSink{}
	uc := NewTokenUsecase(tokens, systems, audit)

	token, secret, err := uc.CreateToken(context.Background(), "sys", "ci token", nil, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token.SecretHash != domain.HashSecret(secret) {
		t.Fatal("expected stored hash to match returned raw secret")
	}
	stored, ok := tokens.byID[token.ID]
	if !ok || stored.SecretHash != token.SecretHash {
		t.Fatal("expected token persisted with matching hash")
	}
	if len(audit.entries) != 1 {
		t.Fatalf("expected one audit entry, got %+v", audit.entries)
	}
}

func TestTokenUsecaseUpdateTokenNotFound(t *testing.T) {
	uc := NewTokenUsecase(newFakeAPITokenRepositoryWrite(), newFakeSystemRepositoryWrite(), nil)

	err := uc.UpdateToken(context.Background(), "missing", "desc", nil, "alice")
	uerr, ok := err.(*Error)
	if !ok || uerr.Key != ErrKeyNotFoundAPIToken {
		t.Fatalf("expected not-found api token, got %v", err)
	}
}

func TestTokenUsecaseDeleteTokenSucceeds(t *testing.T) {
	tokens := newFakeAPITokenRepositoryWrite()
	tokens.byID["tok1"] = domain.APIToken{ID: "tok1", SystemID: "sys"}
	audit := &fakeAuditSink{}
	uc := NewTokenUsecase(tokens, newFakeSystemRepositoryWrite(), audit)

	if err := uc.DeleteToken(context.Background(), "tok1", "alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := tokens.byID["tok1"]; ok {
		t.Fatal("expected token removed")
	}
	if len(audit.entries) != 1 {
		t.Fatalf("expected one audit entry, got %+v", audit.entries)
	}
}
