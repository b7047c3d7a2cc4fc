package domain

import "time"

// Session is the metadata kept for a login. The ID is minted once at OTP verification
// and survives access-token rotation, so CreatedAt is the original login time.
type Session struct {
	SessionID    string    `json:"session_id"`
	UserID       string    `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// SessionInfo is the client-facing view of the current session.
type SessionInfo struct {
	SessionID    string     `json:"sessionId"`
	LoginTime    time.Time  `json:"loginTime"`
	LastActivity *time.Time `json:"lastActivity,omitempty"`
	CSRFToken    string     `json:"csrfToken,omitempty"`
}

// TokenSet is everything minted for a fresh login.
type TokenSet struct {
	AccessToken     string
	AccessExpiresAt time.Time
	RefreshToken    string
	RefreshExpires  time.Time
	SessionID       string
	CSRFToken       string
	LoginTime       time.Time
}
