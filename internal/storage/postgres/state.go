package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// GetState returns the value stored under key, or def if the key is absent.
func (s *PostgresStorage) GetState(ctx context.Context, key, def string) (string, error) {
	var value string
	err := s.pool.QueryRow(ctx, "SELECT value FROM scan_state WHERE key = $1", key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return def, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read state %s: %w", key, err)
	}
	return value, nil
}

// SetState stores value under key, replacing any prior value.
func (s *PostgresStorage) SetState(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO scan_state (key, value, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write state %s: %w", key, err)
	}
	return nil
}
