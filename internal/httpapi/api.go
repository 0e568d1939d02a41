package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/ZRnown/ChineseLearning/internal/auth"
	"github.com/ZRnown/ChineseLearning/internal/catalog"
	"github.com/ZRnown/ChineseLearning/internal/obs"
)

// ReadyProbe reports whether the backing store is reachable.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer. One instance holds the auth service and catalog
// store for the whole process; all per-request state lives in the request
// context.
type API struct {
	mux        *http.ServeMux
	auth       *auth.Service
	catalog    catalog.Store
	readyProbe ReadyProbe
	version    string

	rateBurst  int
	ratePerSec int
}

func New(rp ReadyProbe, version string, authSvc *auth.Service, store catalog.Store) *API {
	a := &API{
		mux:        http.NewServeMux(),
		auth:       authSvc,
		catalog:    store,
		readyProbe: rp,
		version:    version,
		rateBurst:  20,
		ratePerSec: 10,
	}

	a.mux.HandleFunc("/healthz", a.healthz)
	a.mux.HandleFunc("/readyz", a.ready)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/api/auth/register", a.handleRegister)
	a.mux.HandleFunc("/api/auth/token", a.handleLogin)
	a.mux.HandleFunc("/api/auth/login", a.handleLogin) // alias kept from the original API
	a.mux.HandleFunc("/api/auth/me", a.handleMe)

	a.mux.HandleFunc("/api/classics", a.handleClassicsCollection)
	a.mux.HandleFunc("/api/classics/", a.handleClassicResource)
	a.mux.HandleFunc("/api/notes", a.handleNotesCollection)
	a.mux.HandleFunc("/api/notes/", a.handleNoteResource)
	a.mux.HandleFunc("/api/translations", a.handleTranslationsCollection)
	a.mux.HandleFunc("/api/translations/", a.handleTranslationResource)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the full middleware stack around the mux.
func (a *API) Handler() http.Handler {
	var h http.Handler = obs.Instrument(a.mux)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return h
}

func (a *API) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "classics-api",
		"version": a.version,
	})
}

func (a *API) ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
