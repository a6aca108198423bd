package model

import "time"

// Auth event names. The audit trail is where rejection causes stay
// distinguishable after the HTTP layer has collapsed them to a generic 401.
const (
	EventRegister       = "register"
	EventLogin          = "login"
	EventLoginFailed    = "login_failed"
	EventRefresh        = "refresh"
	EventRefreshFailed  = "refresh_failed"
	EventSessionLogin   = "session_login"
	EventSessionLogout  = "session_logout"
	EventSessionExpired = "session_expired"
)

type AuthEvent struct {
	OccurredAt time.Time `json:"occurred_at"`
	Event      string    `json:"event"`
	UserID     string    `json:"user_id,omitempty"`
	Email      string    `json:"email,omitempty"`
	ClientIP   string    `json:"client_ip,omitempty"`
	Detail     string    `json:"detail,omitempty"`
}
