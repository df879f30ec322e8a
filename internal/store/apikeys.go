package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"darkchat/internal/models"
)

// CreateAPIKey generates a new key value for the user, persists it encrypted
// when a cipher is configured, and returns the record with the plaintext
// value. The plaintext is only available on creation.
func (s *Store) CreateAPIKey(ctx context.Context, userID int64, name, service string) (*models.APIKey, error) {
	if userID <= 0 {
		return nil, errors.New("invalid user id")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("name is required")
	}
	service = strings.TrimSpace(service)
	if service == "" {
		return nil, errors.New("service is required")
	}

	key := "sk_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	sealed, err := s.sealKey(key)
	if err != nil {
		return nil, fmt.Errorf("seal key: %w", err)
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO api_keys (user_id, name, service, api_key, created_at) VALUES (?, ?, ?, ?, ?)`,
		userID, name, service, sealed, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create api key: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("api key id: %w", err)
	}
	return &models.APIKey{ID: id, UserID: userID, Name: name, Service: service, Key: key, CreatedAt: now}, nil
}

// ListAPIKeys returns the user's keys newest-first with values masked to the
// first eight characters.
func (s *Store) ListAPIKeys(ctx context.Context, userID int64) ([]models.APIKey, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, service, api_key, created_at
		 FROM api_keys WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var keys []models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.UserID, &k.Name, &k.Service, &k.Key, &k.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		k.Key = maskKey(s.openKey(k.Key))
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// DeleteAPIKey removes one of the user's keys.
func (s *Store) DeleteAPIKey(ctx context.Context, userID, keyID int64) error {
	if userID <= 0 || keyID <= 0 {
		return errors.New("invalid id")
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM api_keys WHERE id = ? AND user_id = ?`, keyID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete api key: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return key
	}
	return key[:8] + "..."
}
