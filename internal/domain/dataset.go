package domain

import "time"

// Dataset is a named catalog record owned by a single user. Tags keep the
// order they were submitted in.
type Dataset struct {
	ID          string
	Name        string
	Description string
	Tags        []string
	CreatedAt   time.Time
	UserID      string
}
