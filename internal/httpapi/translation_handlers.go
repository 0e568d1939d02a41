package httpapi

import (
	"net/http"
	"strings"

	"github.com/ZRnown/ChineseLearning/internal/audit"
	"github.com/ZRnown/ChineseLearning/internal/auth"
	"github.com/ZRnown/ChineseLearning/internal/catalog"
)

type translationRequest struct {
	Content   string `json:"content"`
	Language  string `json:"language,omitempty"`
	ClassicID int64  `json:"classic_id,omitempty"`
}

func (a *API) handleTranslationsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listTranslations(w, r)
	case http.MethodPost:
		a.createTranslation(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listTranslations(w http.ResponseWriter, r *http.Request) {
	_, r, ok := a.optionalUser(w, r)
	if !ok {
		return
	}

	limit, offset, err := parseListParams(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	q := catalog.TranslationQuery{
		Language: strings.TrimSpace(r.URL.Query().Get("language")),
		Limit:    limit,
		Offset:   offset,
	}
	if raw := r.URL.Query().Get("classic_id"); raw != "" {
		q.ClassicID, err = parseID(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "classic_id must be a positive integer")
			return
		}
	}

	translations, err := a.catalog.ListTranslations(r.Context(), q)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if translations == nil {
		translations = []catalog.Translation{}
	}
	writeJSON(w, http.StatusOK, translations)
}

func (a *API) createTranslation(w http.ResponseWriter, r *http.Request) {
	user, r, ok := a.requireUser(w, r)
	if !ok {
		return
	}

	var req translationRequest
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
	language := strings.TrimSpace(req.Language)
	if language == "" {
		language = "zh-Hans"
	}
	if _, err := a.catalog.GetClassic(r.Context(), req.ClassicID); err != nil {
		handleCatalogError(w, r, err, "classic not found")
		return
	}

	tr := catalog.Translation{
		ClassicID: req.ClassicID,
		UserID:    user.ID,
		Content:   req.Content,
		Language:  language,
	}
	if err := a.catalog.CreateTranslation(r.Context(), &tr); err != nil {
		handleCatalogError(w, r, err, "classic not found")
		return
	}

	_ = audit.LogEvent(r.Context(), "translation.created", map[string]any{
		"translation_id": tr.ID,
		"classic_id":     tr.ClassicID,
		"language":       tr.Language,
	})
	writeJSON(w, http.StatusOK, tr)
}

func (a *API) handleTranslationResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/translations/")
	if strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	id, err := parseID(path)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "translation not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getTranslation(w, r, id)
	case http.MethodPut:
		a.updateTranslation(w, r, id)
	case http.MethodDelete:
		a.deleteTranslation(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) getTranslation(w http.ResponseWriter, r *http.Request, id int64) {
	tr, err := a.catalog.GetTranslation(r.Context(), id)
	if err != nil {
		handleCatalogError(w, r, err, "translation not found")
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

func (a *API) updateTranslation(w http.ResponseWriter, r *http.Request, id int64) {
	user, r, ok := a.requireUser(w, r)
	if !ok {
		return
	}

	var req translationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, r, http.StatusBadRequest, "content is required")
		return
	}

	tr, err := a.catalog.GetTranslation(r.Context(), id)
	if err != nil {
		handleCatalogError(w, r, err, "translation not found")
		return
	}
	if err := auth.AuthorizeMutation(user, tr.UserID); err != nil {
		handleAuthzError(w, r, err)
		return
	}

	updated, err := a.catalog.UpdateTranslation(r.Context(), id, req.Content)
	if err != nil {
		handleCatalogError(w, r, err, "translation not found")
		return
	}

	_ = audit.LogEvent(r.Context(), "translation.updated", map[string]any{"translation_id": id})
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) deleteTranslation(w http.ResponseWriter, r *http.Request, id int64) {
	user, r, ok := a.requireUser(w, r)
	if !ok {
		return
	}

	tr, err := a.catalog.GetTranslation(r.Context(), id)
	if err != nil {
		handleCatalogError(w, r, err, "translation not found")
		return
	}
	if err := auth.AuthorizeMutation(user, tr.UserID); err != nil {
		handleAuthzError(w, r, err)
		return
	}

	if err := a.catalog.DeleteTranslation(r.Context(), id); err != nil {
		handleCatalogError(w, r, err, "translation not found")
		return
	}

	_ = audit.LogEvent(r.Context(), "translation.deleted", map[string]any{"translation_id": id})
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}
