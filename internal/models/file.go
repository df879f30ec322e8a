package models

import "time"

// File records an uploaded blob and where it is stored.
type File struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Filename  string    `json:"filename"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	MimeType  string    `json:"mime_type"`
	PublicURL string    `json:"public_url"`
	CreatedAt time.Time `json:"created_at"`
}
