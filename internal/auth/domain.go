package auth

import "time"

// User represents an account allowed to operate the inventory.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
}
