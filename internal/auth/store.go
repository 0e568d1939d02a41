package auth

import "context"

// UserStore describes persistence operations required by the auth subsystem.
// Implementations return ErrNotFound for missing rows and ErrAlreadyExists
// (or one of the duplicate rules) on unique constraint violations.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id int64) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}
