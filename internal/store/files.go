package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"darkchat/internal/models"
)

// RecordFile persists metadata for an uploaded blob.
func (s *Store) RecordFile(ctx context.Context, f models.File) (*models.File, error) {
	if f.UserID <= 0 {
		return nil, errors.New("invalid user id")
	}
	if f.Filename == "" || f.Path == "" {
		return nil, errors.New("filename and path are required")
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO files (user_id, filename, path, size, mime_type, public_url, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.UserID, f.Filename, f.Path, f.Size, f.MimeType, f.PublicURL, now,
	)
	if err != nil {
		return nil, fmt.Errorf("record file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("file id: %w", err)
	}
	f.ID = id
	f.CreatedAt = now
	return &f, nil
}

// ListFiles returns the user's files newest-first.
func (s *Store) ListFiles(ctx context.Context, userID int64) ([]models.File, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, filename, path, size, mime_type, public_url, created_at
		 FROM files WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var files []models.File
	for rows.Next() {
		var f models.File
		if err := rows.Scan(&f.ID, &f.UserID, &f.Filename, &f.Path, &f.Size, &f.MimeType, &f.PublicURL, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// GetFile returns one file scoped to its owner.
func (s *Store) GetFile(ctx context.Context, userID, fileID int64) (*models.File, error) {
	var f models.File
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, filename, path, size, mime_type, public_url, created_at
		 FROM files WHERE id = ? AND user_id = ?`,
		fileID, userID,
	).Scan(&f.ID, &f.UserID, &f.Filename, &f.Path, &f.Size, &f.MimeType, &f.PublicURL, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get file: %w", err)
	}
	return &f, nil
}

// DeleteFile removes the metadata row for one of the user's files.
func (s *Store) DeleteFile(ctx context.Context, userID, fileID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM files WHERE id = ? AND user_id = ?`, fileID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
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
