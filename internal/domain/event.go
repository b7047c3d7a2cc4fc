package domain

import "time"

// Security event types published after a state change commits.
const (
	EventUserRegistered  = "user.registered"
	EventPasswordChanged = "password.changed"
	EventPasswordReset   = "password.reset"
	EventSessionRevoked  = "session.revoked"
)

type SecurityEvent struct {
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	SessionID  string    `json:"session_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
