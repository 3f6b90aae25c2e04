package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hiveiam/hive/internal/core/domain"
	"github.com/hiveiam/hive/internal/core/port"
	"github.com/hiveiam/hive/internal/repository"
)

// APITokenRepository implements port.APITokenRepository for PostgreSQL.
type APITokenRepository struct {
	pool    *pgxpool.Pool
	builder squirrel.StatementBuilderType
}

// NewAPITokenRepository constructs an APITokenRepository.
func NewAPITokenRepository(pool *pgxpool.Pool) *APITokenRepository {
	return &APITokenRepository{
		pool:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts an API token record. Only the secret hash is stored.
func (r *APITokenRepository) Create(ctx context.Context, token domain.APIToken) error {
	stmt, args, err := r.builder.Insert("hive.api_tokens").
		Columns("id", "secret_hash", "system_id", "description", "expires_at", "last_used_at").
		Values(token.ID, token.SecretHash, token.SystemID, token.Description, token.ExpiresAt, token.LastUsedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert api token sql: %w", err)
	}

	if _, err := r.pool.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert api token: %w", err)
	}

	return nil
}

// GetByID retrieves an API token by id.
func (r *APITokenRepository) GetByID(ctx context.Context, id string) (*domain.APIToken, error) {
	stmt, args, err := r.builder.Select("id", "secret_hash", "system_id", "description", "expires_at", "last_used_at").
		From("hive.api_tokens").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select api token sql: %w", err)
	}

	row := r.pool.QueryRow(ctx, stmt, args...)

	var token domain.APIToken
	if err := row.Scan(&token.ID, &token.SecretHash, &token.SystemID, &token.Description, &token.ExpiresAt, &token.LastUsedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan api token: %w", err)
	}

	return &token, nil
}

// GetBySecretHash looks up a token by its stored secret hash.
func (r *APITokenRepository) GetBySecretHash(ctx context.Context, secretHash string) (*domain.APIToken, error) {
	stmt, args, err := r.builder.Select("id", "secret_hash", "system_id", "description", "expires_at", "last_used_at").
		From("hive.api_tokens").
		Where(squirrel.Eq{"secret_hash": secretHash}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select api token by secret hash sql: %w", err)
	}

	row := r.pool.QueryRow(ctx, stmt, args...)

	var token domain.APIToken
	if err := row.Scan(&token.ID, &token.SecretHash, &token.SystemID, &token.Description, &token.ExpiresAt, &token.LastUsedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan api token: %w", err)
	}

	return &token, nil
}

// Update modifies an API token's description and expiry.
func (r *APITokenRepository) Update(ctx context.Context, token domain.APIToken) error {
	stmt, args, err := r.builder.Update("hive.api_tokens").
		Set("description", token.Description).
		Set("expires_at", token.ExpiresAt).
		Where(squirrel.Eq{"id": token.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update api token sql: %w", err)
	}

	res, err := r.pool.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update api token: %w", err)
	}

	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes an API token (cascades to permission_assignments via FK).
func (r *APITokenRepository) Delete(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Delete("hive.api_tokens").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete api token sql: %w", err)
	}

	res, err := r.pool.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete api token: %w", err)
	}

	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ListBySystem returns every API token belonging to a system.
func (r *APITokenRepository) ListBySystem(ctx context.Context, systemID string) ([]domain.APIToken, error) {
	stmt, args, err := r.builder.Select("id", "secret_hash", "system_id", "description", "expires_at", "last_used_at").
		From("hive.api_tokens").
		Where(squirrel.Eq{"system_id": systemID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list api tokens sql: %w", err)
	}

	rows, err := r.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query api tokens: %w", err)
	}
	defer rows.Close()

	tokens := make([]domain.APIToken, 0)
	for rows.Next() {
		var token domain.APIToken
		if err := rows.Scan(&token.ID, &token.SecretHash, &token.SystemID, &token.Description, &token.ExpiresAt, &token.LastUsedAt); err != nil {
			return nil, fmt.Errorf("scan api token: %w", err)
		}
		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate api tokens: %w", err)
	}

	return tokens, nil
}

// Touch updates last_used_at unconditionally. Its callers log a failure
// here and never fail the request over it; domain.TokenTouchMode only
// picks AuthGate's log level (warn when strict, info when lenient).
func (r *APITokenRepository) Touch(ctx context.Context, id string, at time.Time) error {
	stmt, args, err := r.builder.Update("hive.api_tokens").
		Set("last_used_at", at).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build touch api token sql: %w", err)
	}

	if _, err := r.pool.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("touch api token: %w", err)
	}

	return nil
}

var _ port.APITokenRepository = (*APITokenRepository)(nil)
