package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// GetState returns the value stored under key, or def if the key is absent.
func (s *SQLiteStorage) GetState(ctx context.Context, key, def string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM scan_state WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return def, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read state %s: %w", key, err)
	}
	return value, nil
}

// SetState stores value under key, replacing any prior value.
func (s *SQLiteStorage) SetState(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scan_state (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write state %s: %w", key, err)
	}
	return nil
}
