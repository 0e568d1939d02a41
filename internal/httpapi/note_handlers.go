package httpapi

import (
	"net/http"
	"strings"

	"github.com/ZRnown/ChineseLearning/internal/audit"
	"github.com/ZRnown/ChineseLearning/internal/auth"
	"github.com/ZRnown/ChineseLearning/internal/catalog"
)

type noteRequest struct {
	Content   string `json:"content"`
	ClassicID int64  `json:"classic_id,omitempty"`
}

func (a *API) handleNotesCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listNotes(w, r)
	case http.MethodPost:
		a.createNote(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// listNotes is a read with optional identity: anonymous callers get the same
// listing, nothing here is personalized yet.
func (a *API) listNotes(w http.ResponseWriter, r *http.Request) {
	_, r, ok := a.optionalUser(w, r)
	if !ok {
		return
	}

	limit, offset, err := parseListParams(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	var classicID int64
	if raw := r.URL.Query().Get("classic_id"); raw != "" {
		classicID, err = parseID(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "classic_id must be a positive integer")
			return
		}
	}

	notes, err := a.catalog.ListNotes(r.Context(), catalog.NoteQuery{
		ClassicID: classicID,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if notes == nil {
		notes = []catalog.Note{}
	}
	writeJSON(w, http.StatusOK, notes)
}

func (a *API) createNote(w http.ResponseWriter, r *http.Request) {
	user, r, ok := a.requireUser(w, r)
	if !ok {
		return
	}

	var req noteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, r, http.StatusBadRequest, "content is required")
		return
	}
	if req.ClassicID <= 0 {
		writeError(w, r, http.StatusBadRequest, "classic_id is required")
		return
	}
	if _, err := a.catalog.GetClassic(r.Context(), req.ClassicID); err != nil {
		handleCatalogError(w, r, err, "classic not found")
		return
	}

	note := catalog.Note{
		ClassicID: req.ClassicID,
		UserID:    user.ID,
		Content:   req.Content,
	}
	if err := a.catalog.CreateNote(r.Context(), &note); err != nil {
		handleCatalogError(w, r, err, "classic not found")
		return
	}

	_ = audit.LogEvent(r.Context(), "note.created", map[string]any{
		"note_id":    note.ID,
		"classic_id": note.ClassicID,
	})
	writeJSON(w, http.StatusOK, note)
}

func (a *API) handleNoteResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/notes/")
	if strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	id, err := parseID(path)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "note not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getNote(w, r, id)
	case http.MethodPut:
		a.updateNote(w, r, id)
	case http.MethodDelete:
		a.deleteNote(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) getNote(w http.ResponseWriter, r *http.Request, id int64) {
	note, err := a.catalog.GetNote(r.Context(), id)
	if err != nil {
		handleCatalogError(w, r, err, "note not found")
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (a *API) updateNote(w http.ResponseWriter, r *http.Request, id int64) {
	user, r, ok := a.requireUser(w, r)
	if !ok {
		return
	}

	var req noteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, r, http.StatusBadRequest, "content is required")
		return
	}

	// Load first: the ownership check needs the recorded owner, and a denial
	// must leave the row untouched.
	note, err := a.catalog.GetNote(r.Context(), id)
	if err != nil {
		handleCatalogError(w, r, err, "note not found")
		return
	}
	if err := auth.AuthorizeMutation(user, note.UserID); err != nil {
		handleAuthzError(w, r, err)
		return
	}

	updated, err := a.catalog.UpdateNote(r.Context(), id, req.Content)
	if err != nil {
		handleCatalogError(w, r, err, "note not found")
		return
	}

	_ = audit.LogEvent(r.Context(), "note.updated", map[string]any{"note_id": id})
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) deleteNote(w http.ResponseWriter, r *http.Request, id int64) {
	user, r, ok := a.requireUser(w, r)
	if !ok {
		return
	}

	note, err := a.catalog.GetNote(r.Context(), id)
	if err != nil {
		handleCatalogError(w, r, err, "note not found")
		return
	}
	if err := auth.AuthorizeMutation(user, note.UserID); err != nil {
		handleAuthzError(w, r, err)
		return
	}

	if err := a.catalog.DeleteNote(r.Context(), id); err != nil {
		handleCatalogError(w, r, err, "note not found")
		return
	}

	_ = audit.LogEvent(r.Context(), "note.deleted", map[string]any{"note_id": id})
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}
