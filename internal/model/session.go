package model

import "time"

// Session is the server-side record behind an opaque cookie value. The
// email and display name are a snapshot taken at session login; the user
// row remains the source of truth and is re-checked on every load.
type Session struct {
	ID          string    `json:"session_id"`
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
