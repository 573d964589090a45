package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgx operations the store needs. Both *pgxpool.Pool
// and pgx.Tx satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides database operations for notification configs.
type Store struct {
	dbtx DBTX
}

// NewStore creates a Store backed by the given database connection.
func NewStore(dbtx DBTX) *Store {
	return &Store{dbtx: dbtx}
}

const configColumns = `secret_token, chat_id, template, updated_at`

// Get returns the config for an account, or nil when none exists. Absence
// is a valid result, not an error.
func (s *Store) Get(ctx context.Context, accountID string) (*Config, error) {
	query := `SELECT ` + configColumns + ` FROM notification_configs WHERE secret_token = $1`
	row := s.dbtx.QueryRow(ctx, query, accountID)

	var c Config
	err := row.Scan(&c.SecretToken, &c.ChatID, &c.Template, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching notification config: %w", err)
	}
	return &c, nil
}

// Upsert writes the config keyed by account id, replacing any prior record.
// Concurrent writers for the same account race last-write-wins; there is
// never more than one row per account.
func (s *Store) Upsert(ctx context.Context, c Config) error {
	query := `INSERT INTO notification_configs (secret_token, chat_id, template, updated_at)
	VALUES ($1, $2, $3, now())
	ON CONFLICT (secret_token) DO UPDATE
	SET chat_id = EXCLUDED.chat_id, template = EXCLUDED.template, updated_at = now()`

	if _, err := s.dbtx.Exec(ctx, query, c.SecretToken, c.ChatID, c.Template); err != nil {
		return fmt.Errorf("upserting notification config: %w", err)
	}
	return nil
}
