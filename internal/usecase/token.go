package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hiveiam/hive/internal/core/domain"
	"github.com/hiveiam/hive/internal/core/port"
	"github.com/hiveiam/hive/internal/repository"
)

// TokenUsecase is the write path for API tokens (§3, §4.4). CreateToken
// is the only place a raw bearer secret is generated: it is returned
// once to the caller and never persisted.
type TokenUsecase struct {
	Tokens  port.APITokenRepository
	Systems port.SystemRepository
	Audit   port.AuditSink
}

// NewTokenUsecase constructs a TokenUsecase.
func NewTokenUsecase(tokens port.APITokenRepository, systems port.SystemRepository, audit port.AuditSink) *TokenUsecase {
	return &TokenUsecase{Tokens: tokens, Systems: systems, Audit: audit}
}

// CreateToken mints a new API token for systemID and returns its raw
// secret alongside the stored record.
func (u *TokenUsecase) CreateToken(ctx context.Context, systemID, description string, expiresAt *time.Time, actor string) (domain.APIToken, uuid.UUID, error) {
	if _, err := u.Systems.GetByID(ctx, systemID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.APIToken{}, uuid.Nil, notFound(ErrKeyNotFoundSystem, "system not found")
		}
		return domain.APIToken{}, uuid.Nil, ErrInternal(err)
	}

	secret := uuid.New()
	token := domain.APIToken{
		ID:          uuid.NewString(),
		SecretHash:  domain.HashSecret(secret),
		SystemID:    systemID,
		Description: description,
		ExpiresAt:   expiresAt,
	}

	if err := u.Tokens.Create(ctx, token); err != nil {
		return domain.APIToken{}, uuid.Nil, ErrInternal(err)
	}

	audit(ctx, u.Audit, domain.ActionCreate, domain.TargetAPIToken, token.ID, actor, map[string]any{"system_id": systemID})
	return token, secret, nil
}

// UpdateToken updates a token's description and/or expiry.
func (u *TokenUsecase) UpdateToken(ctx context.Context, id, description string, expiresAt *time.Time, actor string) error {
	existing, err := u.Tokens.GetByID(ctx, id)
	if err != nil {
		return mapTokenNotFound(err)
	}

	existing.Description = description
	existing.ExpiresAt = expiresAt
	if err := u.Tokens.Update(ctx, *existing); err != nil {
		return ErrInternal(err)
	}

	audit(ctx, u.Audit, domain.ActionUpdate, domain.TargetAPIToken, id, actor, nil)
	return nil
}

// DeleteToken revokes an API token.
func (u *TokenUsecase) DeleteToken(ctx context.Context, id, actor string) error {
	if err := u.Tokens.Delete(ctx, id); err != nil {
		return mapTokenNotFound(err)
	}

	audit(ctx, u.Audit, domain.ActionDelete, domain.TargetAPIToken, id, actor, nil)
	return nil
}

func mapTokenNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(ErrKeyNotFoundAPIToken, "api token not found")
	}
	return ErrInternal(err)
}
