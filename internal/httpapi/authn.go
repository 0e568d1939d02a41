package httpapi

import (
	"errors"
	"net/http"

	"github.com/ZRnown/ChineseLearning/internal/audit"
	"github.com/ZRnown/ChineseLearning/internal/auth"
)

const authHeader = "Authorization"

// genericAuthFailure is the only authentication failure message the API
// returns. The precise rejection reason stays in the audit log so responses
// cannot be used to probe token state.
const genericAuthFailure = "could not validate credentials"

// requireUser resolves the caller identity in mandatory mode. On success it
// returns the user and the request with the identity attached to its
// context; on failure it writes the response and returns ok=false.
func (a *API) requireUser(w http.ResponseWriter, r *http.Request) (*auth.User, *http.Request, bool) {
	user, err := a.auth.Authenticate(r.Context(), r.Header.Get(authHeader))
	if err != nil {
		if errors.Is(err, auth.ErrUnauthenticated) {
			_ = audit.LogEvent(r.Context(), "auth.rejected", map[string]any{"reason": err.Error()})
			unauthenticated(w, r)
		} else {
			writeError(w, r, http.StatusInternalServerError, "authentication error")
		}
		return nil, r, false
	}
	return user, r.WithContext(auth.ContextWithUser(r.Context(), user)), true
}

// optionalUser resolves the caller identity in optional mode: any rejection
// collapses to an anonymous (nil) user and the request proceeds. Only a
// store failure during lookup aborts the request.
func (a *API) optionalUser(w http.ResponseWriter, r *http.Request) (*auth.User, *http.Request, bool) {
	user, err := a.auth.AuthenticateOptional(r.Context(), r.Header.Get(authHeader))
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "authentication error")
		return nil, r, false
	}
	if user != nil {
		r = r.WithContext(auth.ContextWithUser(r.Context(), user))
	}
	return user, r, true
}

func unauthenticated(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, r, http.StatusUnauthorized, genericAuthFailure)
}

// handleAuthzError maps an authorization policy denial onto the wire:
// anonymous callers get 401, known non-owners get 403.
func handleAuthzError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrForbidden):
		writeError(w, r, http.StatusForbidden, "not enough permissions")
	case errors.Is(err, auth.ErrUnauthenticated):
		unauthenticated(w, r)
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
