package domain

import "time"

// Session is the server-held proof of authentication tied to a client
// cookie. It is never persisted to the relational store.
type Session struct {
	ID        string
	UserID    int64
	IsAdmin   bool
	ExpiresAt time.Time
}

// Expired reports whether the session has passed its absolute expiry.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
