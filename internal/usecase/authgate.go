package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hiveiam/hive/internal/core/domain"
	"github.com/hiveiam/hive/internal/core/port"
	"github.com/hiveiam/hive/internal/repository"
	"github.com/hiveiam/hive/internal/resolver"
)

// AuthGate is the authorization gate every API request passes through
// (§4.4): it turns a bearer secret into an authenticated Principal and
// verifies it holds the endpoint's required self-permission.
type AuthGate struct {
	Tokens     port.APITokenRepository
	Touch      port.TokenTouchQueue
	Permission *resolver.PermissionResolver
	TouchMode  domain.TokenTouchMode
	Logger     *zap.Logger
}

// NewAuthGate constructs an AuthGate.
func NewAuthGate(tokens port.APITokenRepository, touch port.TokenTouchQueue, permission *resolver.PermissionResolver, touchMode domain.TokenTouchMode, logger *zap.Logger) *AuthGate {
	return &AuthGate{Tokens: tokens, Touch: touch, Permission: permission, TouchMode: touchMode, Logger: logger}
}

// Authenticate resolves raw bearer secret to the API token it names,
// rejecting unknown or expired tokens. It does not check any permission;
// callers invoke Require for that.
func (g *AuthGate) Authenticate(ctx context.Context, rawSecret string) (*domain.APIToken, error) {
	secret, err := uuid.Parse(rawSecret)
	if err != nil {
		return nil, ErrAPIKeyUnknown()
	}

	token, err := g.Tokens.GetBySecretHash(ctx, domain.HashSecret(secret))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAPIKeyUnknown()
		}
		return nil, ErrInternal(err)
	}

	if !domain.VerifySecretHash(secret, token.SecretHash) {
		return nil, ErrAPIKeyUnknown()
	}

	if token.Expired(now()) {
		return nil, ErrAPIKeyExpired()
	}

	return token, nil
}

// Authorized is what Require hands back to transport once a bearer has
// cleared the gate: the principal to resolve queries against, and the
// relevant system (§6 GLOSSARY) whose permissions and tags those queries
// are scoped to.
type Authorized struct {
	Principal domain.Principal
	SystemID  string
}

// Require authenticates rawSecret and verifies the resulting principal
// holds permID in the hive self-system, then best-effort touches the
// token's last_used_at. The request-ending permission check never
// depends on whether the touch succeeds (§4.4 step 5).
func (g *AuthGate) Require(ctx context.Context, rawSecret, permID string) (Authorized, error) {
	token, err := g.Authenticate(ctx, rawSecret)
	if err != nil {
		return Authorized{}, err
	}

	principal := domain.TokenPrincipal(token.ID)

	ok, err := g.Permission.Has(ctx, principal, domain.HiveSystemID, permID, nil, now())
	if err != nil {
		return Authorized{}, ErrInternal(err)
	}
	if !ok {
		return Authorized{}, ErrForbidden(permID)
	}

	g.touch(ctx, token.ID)
	return Authorized{Principal: principal, SystemID: token.SystemID}, nil
}

func (g *AuthGate) touch(ctx context.Context, tokenID string) {
	at := now()

	var err error
	if g.Touch != nil {
		err = g.Touch.Enqueue(ctx, tokenID, at)
	} else {
		err = g.Tokens.Touch(ctx, tokenID, at)
	}

	if err == nil || g.Logger == nil {
		return
	}

	if g.TouchMode == domain.TokenTouchStrict {
		g.Logger.Warn("api token touch failed", zap.String("api_token_id", tokenID), zap.Error(err))
	} else {
		g.Logger.Info("api token touch failed", zap.String("api_token_id", tokenID), zap.Error(err))
	}
}

