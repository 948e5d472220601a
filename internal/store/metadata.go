package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SetMetadata upserts a shop-level metadata entry. The admin surface uses
// this to register the deployed function id and related shop settings.
func (s *Store) SetMetadata(ctx context.Context, key, value string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shop_metadata (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, now)
	if err != nil {
		return fmt.Errorf("set metadata: %w", err)
	}
	return nil
}

// GetMetadata returns the value stored under key, or ErrNotFound.
func (s *Store) GetMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM shop_metadata WHERE key = ?`, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get metadata: %w", err)
	}
	return value, nil
}
