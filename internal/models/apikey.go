package models

import "time"

// APIKey is a user-managed credential for an external service. Key holds the
// plaintext value only on creation; listings return a masked form.
type APIKey struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Service   string    `json:"service"`
	Key       string    `json:"key"`
	CreatedAt time.Time `json:"created_at"`
}
