package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/belegpilot/extraction-service/internal/domain"
)

// PostgresAPIKeyRepository implements APIKeyRepository using PostgreSQL
type PostgresAPIKeyRepository struct {
	db *pgxpool.Pool
}

// NewPostgresAPIKeyRepository creates a new PostgreSQL API key repository
func NewPostgresAPIKeyRepository(db *pgxpool.Pool) *PostgresAPIKeyRepository {
	return &PostgresAPIKeyRepository{db: db}
}

// CreateKey stores a new API key record
func (r *PostgresAPIKeyRepository) CreateKey(ctx context.Context, key *domain.APIKey) error {
	if key.ID == uuid.Nil {
		key.ID = uuid.New()
	}
	if key.CreatedAt.IsZero() {
		key.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO api_keys (id, name, description, key_hash, key_prefix, is_active, created_at, total_requests)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0)
	`, key.ID, key.Name, key.Description, key.KeyHash, key.KeyPrefix, key.IsActive, key.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert api key: %w", err)
	}

	return nil
}

// ListActiveKeys returns all active keys. Verification happens against the
// bcrypt hash of each candidate; with a small key population this is cheaper
// than maintaining a lookup index on hashes.
func (r *PostgresAPIKeyRepository) ListActiveKeys(ctx context.Context) ([]domain.APIKey, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, description, key_hash, key_prefix, is_active, created_at, last_used_at, total_requests
		FROM api_keys
		WHERE is_active = TRUE
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query api keys: %w", err)
	}
	defer rows.Close()

	keys := []domain.APIKey{}
	for rows.Next() {
		var key domain.APIKey
		if err := rows.Scan(
			&key.ID, &key.Name, &key.Description, &key.KeyHash, &key.KeyPrefix,
			&key.IsActive, &key.CreatedAt, &key.LastUsedAt, &key.TotalRequests,
		); err != nil {
			return nil, fmt.Errorf("failed to scan api key: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating api keys: %w", err)
	}

	return keys, nil
}

// TouchKey updates usage bookkeeping after a successful authentication
func (r *PostgresAPIKeyRepository) TouchKey(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		UPDATE api_keys
		SET last_used_at = $1, total_requests = total_requests + 1
		WHERE id = $2
	`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to touch api key: %w", err)
	}
	return nil
}
