package auth

// AuthorizeMutation decides whether identity may mutate a resource recorded
// as owned by ownerID. A nil identity is anonymous and yields
// ErrUnauthenticated; a known identity that is not the owner yields
// ErrForbidden. Callers run this after mandatory resolution and before any
// write, so a denial leaves the resource untouched.
func AuthorizeMutation(identity *User, ownerID int64) error {
	if identity == nil {
		return ErrUnauthenticated
	}
	if identity.ID != ownerID {
		return ErrForbidden
	}
	return nil
}
