package auth

import "time"

// User is a registered account. The username doubles as the token subject
// claim, so it is unique alongside the email.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
