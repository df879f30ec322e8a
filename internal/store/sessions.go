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

const (
	defaultSessionTitle = "New Chat"
	defaultSessionModel = "gpt-4"
)

// SessionUpdate carries optional fields for UpdateSession; nil fields are
// left untouched.
type SessionUpdate struct {
	Title       *string `json:"title"`
	Model       *string `json:"model"`
	Temperature *int    `json:"temperature"`
	MaxTokens   *int    `json:"max_tokens"`
}

// CreateSession inserts a new session for the user and returns the record.
func (s *Store) CreateSession(ctx context.Context, userID int64, title, model string) (*models.Session, error) {
	if userID <= 0 {
		return nil, errors.New("user_id is required")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultSessionTitle
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultSessionModel
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (user_id, title, model, temperature, max_tokens, created_at, updated_at)
		 VALUES (?, ?, ?, 0, 0, ?, ?)`,
		userID, title, model, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("session id: %w", err)
	}
	return &models.Session{ID: id, UserID: userID, Title: title, Model: model, CreatedAt: now, UpdatedAt: now}, nil
}

// ListSessions returns all sessions for a user ordered by last activity.
func (s *Store) ListSessions(ctx context.Context, userID int64) ([]models.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, model, temperature, max_tokens, created_at, updated_at
		 FROM sessions WHERE user_id = ? ORDER BY updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var se models.Session
		if err := rows.Scan(&se.ID, &se.UserID, &se.Title, &se.Model, &se.Temperature, &se.MaxTokens, &se.CreatedAt, &se.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, se)
	}
	return sessions, rows.Err()
}

// GetSession returns one session scoped to its owner. A session that does not
// exist or belongs to another user yields sql.ErrNoRows.
func (s *Store) GetSession(ctx context.Context, userID, sessionID int64) (*models.Session, error) {
	var se models.Session
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, model, temperature, max_tokens, created_at, updated_at
		 FROM sessions WHERE id = ? AND user_id = ?`,
		sessionID, userID,
	).Scan(&se.ID, &se.UserID, &se.Title, &se.Model, &se.Temperature, &se.MaxTokens, &se.CreatedAt, &se.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &se, nil
}

// UpdateSession applies the non-nil fields of upd to the owner's session.
func (s *Store) UpdateSession(ctx context.Context, userID, sessionID int64, upd SessionUpdate) (*models.Session, error) {
	if sessionID <= 0 {
		return nil, errors.New("invalid session id")
	}
	sets := make([]string, 0, 4)
	args := make([]any, 0, 6)
	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return nil, errors.New("title cannot be empty")
		}
		sets = append(sets, "title = ?")
		args = append(args, title)
	}
	if upd.Model != nil {
		model := strings.TrimSpace(*upd.Model)
		if model == "" {
			return nil, errors.New("model cannot be empty")
		}
		sets = append(sets, "model = ?")
		args = append(args, model)
	}
	if upd.Temperature != nil {
		if *upd.Temperature < 0 || *upd.Temperature > 100 {
			return nil, errors.New("temperature must be between 0 and 100")
		}
		sets = append(sets, "temperature = ?")
		args = append(args, *upd.Temperature)
	}
	if upd.MaxTokens != nil {
		if *upd.MaxTokens < 0 {
			return nil, errors.New("max_tokens cannot be negative")
		}
		sets = append(sets, "max_tokens = ?")
		args = append(args, *upd.MaxTokens)
	}
	if len(sets) == 0 {
		return s.GetSession(ctx, userID, sessionID)
	}
	args = append(args, sessionID, userID)

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE sessions SET %s WHERE id = ? AND user_id = ?`, strings.Join(sets, ", ")),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("session rows affected: %w", err)
	}
	if affected == 0 {
		return nil, sql.ErrNoRows
	}
	return s.GetSession(ctx, userID, sessionID)
}

// TouchSession advances the session's updated_at timestamp.
func (s *Store) TouchSession(ctx context.Context, sessionID int64) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET updated_at = ? WHERE id = ?`, time.Now().UTC(), sessionID,
	); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

// DeleteSession removes a session and all related messages for the user.
func (s *Store) DeleteSession(ctx context.Context, userID, sessionID int64) error {
	if sessionID <= 0 {
		return errors.New("invalid session id")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ? AND user_id = ?`, sessionID, userID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("session rows affected: %w", err)
	}
	if affected == 0 {
		tx.Rollback()
		return sql.ErrNoRows
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete session: %w", err)
	}
	return nil
}
