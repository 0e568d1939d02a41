package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ZRnown/ChineseLearning/internal/audit"
	"github.com/ZRnown/ChineseLearning/internal/catalog"
)

// classicResponse augments a classic with like information. Liked and
// Favorited are only present when the caller presented a valid identity.
type classicResponse struct {
	catalog.Classic
	Likes     int64 `json:"likes"`
	Liked     *bool `json:"liked,omitempty"`
	Favorited *bool `json:"favorited,omitempty"`
}

func (a *API) handleClassicsCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	limit, offset, err := parseListParams(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	classics, err := a.catalog.ListClassics(r.Context(), catalog.ClassicQuery{
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if classics == nil {
		classics = []catalog.Classic{}
	}
	writeJSON(w, http.StatusOK, classics)
}

func (a *API) handleClassicResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/classics/")

	if rest, found := strings.CutSuffix(path, "/like"); found {
		id, err := parseID(rest)
		if err != nil {
			writeError(w, r, http.StatusNotFound, "classic not found")
			return
		}
		a.handleLike(w, r, id)
		return
	}
	if rest, found := strings.CutSuffix(path, "/favorite"); found {
		id, err := parseID(rest)
		if err != nil {
			writeError(w, r, http.StatusNotFound, "classic not found")
			return
		}
		a.handleFavorite(w, r, id)
		return
	}

	if strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	id, err := parseID(path)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "classic not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getClassic(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet)
	}
}

// getClassic serves a single classic. Resolution runs in optional mode: an
// anonymous caller gets the plain record, a known caller additionally gets
// their own like state.
func (a *API) getClassic(w http.ResponseWriter, r *http.Request, id int64) {
	user, r, ok := a.optionalUser(w, r)
	if !ok {
		return
	}

	classic, err := a.catalog.GetClassic(r.Context(), id)
	if err != nil {
		handleCatalogError(w, r, err, "classic not found")
		return
	}
	likes, err := a.catalog.LikeCount(r.Context(), id)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	resp := classicResponse{Classic: classic, Likes: likes}
	if user != nil {
		liked, err := a.catalog.Liked(r.Context(), user.ID, id)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "internal error")
			return
		}
		favorited, err := a.catalog.Favorited(r.Context(), user.ID, id)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "internal error")
			return
		}
		resp.Liked = &liked
		resp.Favorited = &favorited
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleLike toggles the caller's like. Method is checked before identity so
// an unsupported verb is 405 whether or not a token came along.
func (a *API) handleLike(w http.ResponseWriter, r *http.Request, classicID int64) {
	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodPost, http.MethodDelete)
		return
	}
	user, r, ok := a.requireUser(w, r)
	if !ok {
		return
	}

	var err error
	var event string
	if r.Method == http.MethodPost {
		err = a.catalog.Like(r.Context(), user.ID, classicID)
		event = "classic.liked"
	} else {
		err = a.catalog.Unlike(r.Context(), user.ID, classicID)
		event = "classic.unliked"
	}
	if err != nil {
		handleCatalogError(w, r, err, "classic not found")
		return
	}

	_ = audit.LogEvent(r.Context(), event, map[string]any{"classic_id": classicID})
	likes, err := a.catalog.LikeCount(r.Context(), classicID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	liked := r.Method == http.MethodPost
	writeJSON(w, http.StatusOK, map[string]any{"likes": likes, "liked": liked})
}

func (a *API) handleFavorite(w http.ResponseWriter, r *http.Request, classicID int64) {
	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodPost, http.MethodDelete)
		return
	}
	user, r, ok := a.requireUser(w, r)
	if !ok {
		return
	}

	var err error
	var event string
	if r.Method == http.MethodPost {
		err = a.catalog.Favorite(r.Context(), user.ID, classicID)
		event = "classic.favorited"
	} else {
		err = a.catalog.Unfavorite(r.Context(), user.ID, classicID)
		event = "classic.unfavorited"
	}
	if err != nil {
		handleCatalogError(w, r, err, "classic not found")
		return
	}

	_ = audit.LogEvent(r.Context(), event, map[string]any{"classic_id": classicID})
	writeJSON(w, http.StatusOK, map[string]any{"favorited": r.Method == http.MethodPost})
}

func handleCatalogError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, r, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, catalog.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, "invalid input")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
