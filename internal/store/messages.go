package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"darkchat/internal/models"
)

// AddMessage stores a new message and advances the session's updated_at.
func (s *Store) AddMessage(ctx context.Context, msg models.Message) (*models.Message, error) {
	if msg.SessionID <= 0 {
		return nil, errors.New("session_id is required")
	}
	msg.Content = strings.TrimSpace(msg.Content)
	if msg.Content == "" {
		return nil, errors.New("content cannot be empty")
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (session_id, role, content, model, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.SessionID, msg.Role, msg.Content, msg.Model, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("message id: %w", err)
	}
	if err := s.TouchSession(ctx, msg.SessionID); err != nil {
		return nil, err
	}
	msg.ID = id
	msg.CreatedAt = now
	return &msg, nil
}

// ListMessages returns every message in the session ordered by creation time
// ascending, with the row id as tiebreak so repeated reads are stable.
func (s *Store) ListMessages(ctx context.Context, sessionID int64) ([]*models.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, model, created_at
		 FROM messages WHERE session_id = ? ORDER BY created_at ASC, id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

// ListRecentMessages returns the most recent limit messages for the session,
// reordered oldest-first for prompt assembly.
func (s *Store) ListRecentMessages(ctx context.Context, sessionID int64, limit int) ([]*models.Message, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, model, created_at
		 FROM messages WHERE session_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent messages: %w", err)
	}
	defer rows.Close()
	msgs, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func scanMessages(rows *sql.Rows) ([]*models.Message, error) {
	var msgs []*models.Message
	for rows.Next() {
		m := new(models.Message)
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.Model, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
