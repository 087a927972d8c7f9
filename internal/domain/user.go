package domain

import "time"

// User is the domain model for accounts that submit maintenance requests.
// Admin accounts carry the same shape with IsAdmin set.
type User struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
}
