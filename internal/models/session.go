package models

import "time"

// Session groups a conversation thread and its generation settings.
// Temperature is stored on a 0-100 integer scale; zero means unset and the
// provider default applies.
type Session struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Title       string    `json:"title"`
	Model       string    `json:"model"`
	Temperature int       `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
