package auth

import (
	"context"
	"errors"
	"strings"
	"time"
)

const (
	minPasswordLength = 6
	defaultLoginTTL   = 30 * time.Minute
)

// Service holds the credential store, the token signer and the user lookup
// collaborator together. One instance is built at startup and shared by every
// request; it keeps no per-request state.
type Service struct {
	users    UserStore
	tokens   *Tokens
	loginTTL time.Duration
	now      func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithLoginTTL overrides the lifetime of tokens issued by Login.
func WithLoginTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.loginTTL = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs Service with optional configuration.
func NewService(users UserStore, tokens *Tokens, opts ...ServiceOption) *Service {
	s := &Service{
		users:    users,
		tokens:   tokens,
		loginTTL: defaultLoginTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register validates and creates a new account. Validation failures wrap
// ErrInvalidInput with the specific violated rule.
func (s *Service) Register(ctx context.Context, username, email, password string) (*User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))
	if username == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	if !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}

	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return nil, ErrDuplicateUsername
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks the credentials and issues a bearer token with the configured
// lifetime. Unknown username and wrong password produce the same
// ErrBadCredentials so the response leaks nothing about which part failed.
func (s *Service) Login(ctx context.Context, username, password string) (string, time.Time, *User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", time.Time{}, nil, ErrBadCredentials
	}
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", time.Time{}, nil, ErrBadCredentials
		}
		return "", time.Time{}, nil, err
	}
	if !VerifyPassword(user.PasswordHash, password) {
		return "", time.Time{}, nil, ErrBadCredentials
	}
	token, expiresAt, err := s.tokens.Issue(user.Username, s.loginTTL)
	if err != nil {
		return "", time.Time{}, nil, err
	}
	return token, expiresAt, user, nil
}

// ChangePassword replaces the stored hash for a user. Not reachable from the
// HTTP surface yet, but the store contract allows it.
func (s *Service) ChangePassword(ctx context.Context, userID int64, password string) error {
	if len(password) < minPasswordLength {
		return ErrWeakPassword
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}

// resolve runs the single verification pass shared by both resolution modes:
// extract the bearer token, verify signature and expiry, then resolve the
// subject against the user store. Every rejection wraps ErrUnauthenticated;
// a store failure during lookup propagates as-is so callers can tell bad
// credentials from a dependency being down.
func (s *Service) resolve(ctx context.Context, header string) (*User, error) {
	token, err := bearerToken(header)
	if err != nil {
		return nil, err
	}
	subject, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByUsername(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Signed for an account that no longer exists.
			return nil, ErrUnknownSubject
		}
		return nil, err
	}
	return user, nil
}

// Authenticate resolves the Authorization header in mandatory mode: any
// rejection surfaces to the caller.
func (s *Service) Authenticate(ctx context.Context, header string) (*User, error) {
	return s.resolve(ctx, header)
}

// AuthenticateOptional resolves the Authorization header in optional mode:
// every rejection, including a missing header, collapses to an anonymous
// (nil) identity. Store failures still propagate.
func (s *Service) AuthenticateOptional(ctx context.Context, header string) (*User, error) {
	user, err := s.resolve(ctx, header)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

const bearerScheme = "Bearer "

func bearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingCredential
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearerScheme)) {
		return "", ErrMalformedCredential
	}
	token := strings.TrimSpace(header[len(bearerScheme):])
	if token == "" {
		return "", ErrMalformedCredential
	}
	return token, nil
}
