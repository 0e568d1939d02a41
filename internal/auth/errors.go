package auth

import "errors"

var (
	ErrNotFound      = errors.New("auth: not found")
	ErrAlreadyExists = errors.New("auth: already exists")
	ErrInvalidInput  = errors.New("auth: invalid input")

	// ErrUnauthenticated is the single externally visible authentication
	// failure. Every rejection reason below wraps it, so handlers match on
	// this sentinel while logs keep the precise cause.
	ErrUnauthenticated = errors.New("auth: unauthenticated")

	// ErrForbidden means the caller is known but does not own the resource.
	ErrForbidden = errors.New("auth: forbidden")
)

// Rejection reasons produced by credential resolution. All of them satisfy
// errors.Is(err, ErrUnauthenticated). The reason text is for diagnostics
// only and must never reach the response body.
var (
	ErrMissingCredential   = reject("missing credential")
	ErrMalformedCredential = reject("malformed credential")
	ErrInvalidSignature    = reject("invalid signature")
	ErrTokenExpired        = reject("token expired")
	ErrMissingSubject      = reject("missing subject")
	ErrUnknownSubject      = reject("unknown subject")
	ErrBadCredentials      = reject("bad credentials")
)

// Registration validation failures. All of them satisfy
// errors.Is(err, ErrInvalidInput); the message names the violated rule and
// is safe to return to the caller.
var (
	ErrMissingFields     = invalid("username, email and password are required")
	ErrWeakPassword      = invalid("password must be at least 6 characters long")
	ErrInvalidEmail      = invalid("invalid email format")
	ErrDuplicateUsername = invalid("username already registered")
	ErrDuplicateEmail    = invalid("email already registered")
)

// classified carries a plain message while unwrapping to its sentinel, so
// err.Error() stays presentable and errors.Is still classifies.
type classified struct {
	msg  string
	kind error
}

func (e *classified) Error() string { return e.msg }
func (e *classified) Unwrap() error { return e.kind }

func reject(reason string) error {
	return &classified{msg: reason, kind: ErrUnauthenticated}
}

func invalid(rule string) error {
	return &classified{msg: rule, kind: ErrInvalidInput}
}
