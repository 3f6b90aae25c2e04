package port

import (
	"context"
	"time"

	"github.com/hiveiam/hive/internal/core/domain"
)

// APITokenRepository manages API token records (§3, §4.4). Secrets are
// never stored — only their hash, produced by domain.HashSecret.
type APITokenRepository interface {
	Create(ctx context.Context, token domain.APIToken) error
	GetByID(ctx context.Context, id string) (*domain.APIToken, error)
	// GetBySecretHash looks up the token the authorization gate's bearer
	// secret hashes to (§4.4 step 1).
	GetBySecretHash(ctx context.Context, secretHash string) (*domain.APIToken, error)
	Update(ctx context.Context, token domain.APIToken) error
	Delete(ctx context.Context, id string) error
	ListBySystem(ctx context.Context, systemID string) ([]domain.APIToken, error)

	// Touch best-effort updates last_used_at; failures are handled per
	// the configured domain.TokenTouchMode and never fail the request
	// that triggered them.
	Touch(ctx context.Context, id string, at time.Time) error
}
