package domain

import "time"

// User represents a registered account of the catalog.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
