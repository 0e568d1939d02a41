package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/ZRnown/ChineseLearning/internal/auth"
	"github.com/ZRnown/ChineseLearning/internal/catalog"
)

type apiClient struct {
	baseURL string
	client  *http.Client
	t       *testing.T
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()

	tokens, err := auth.NewTokens([]byte("test-secret"), "classics-api")
	if err != nil {
		t.Fatalf("new tokens: %v", err)
	}
	svc := auth.NewService(auth.NewInMemoryUsers(), tokens)

	store := catalog.NewInMemory()
	seedClassic(t, store)

	api := New(ReadyProbe{}, "test", svc, store)
	api.rateBurst = 1000
	api.ratePerSec = 1000

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &apiClient{
		baseURL: srv.URL,
		client:  srv.Client(),
		t:       t,
	}
}

func seedClassic(t *testing.T, store *catalog.InMemory) {
	t.Helper()
	c := catalog.Classic{
		Title:   "道德经",
		Author:  "老子",
		Dynasty: "春秋",
		Content: "道可道，非常道。名可名，非常名。",
	}
	if err := store.CreateClassic(context.Background(), &c); err != nil {
		t.Fatalf("seed classic: %v", err)
	}
}

func (c *apiClient) do(method, path string, body any, headers map[string]string) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func (c *apiClient) post(path string, body any, headers map[string]string) *http.Response {
	return c.do(http.MethodPost, path, body, headers)
}

func (c *apiClient) put(path string, body any, headers map[string]string) *http.Response {
	return c.do(http.MethodPut, path, body, headers)
}

func (c *apiClient) del(path string, headers map[string]string) *http.Response {
	return c.do(http.MethodDelete, path, nil, headers)
}

func (c *apiClient) get(path string, params url.Values, headers map[string]string) *http.Response {
	c.t.Helper()
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		c.t.Fatalf("parse url: %v", err)
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}
	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("get request: %v", err)
	}
	return resp
}

// signup registers a user and returns a bearer header for them.
func (c *apiClient) signup(username, email, password string) map[string]string {
	c.t.Helper()
	resp := c.post("/api/auth/register", map[string]any{
		"username": username,
		"email":    email,
		"password": password,
	}, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("register %s: unexpected status %d", username, resp.StatusCode)
	}

	resp = c.post("/api/auth/token", map[string]any{
		"username": username,
		"password": password,
	}, nil)
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("login %s: unexpected status %d", username, resp.StatusCode)
	}
	payload := decode[tokenResponse](c.t, resp)
	if payload.AccessToken == "" {
		c.t.Fatalf("empty token issued")
	}
	if payload.TokenType != "bearer" {
		c.t.Fatalf("unexpected token type %q", payload.TokenType)
	}
	return map[string]string{"Authorization": "Bearer " + payload.AccessToken}
}

func decode[T any](t *testing.T, r *http.Response) T {
	t.Helper()
	defer r.Body.Close()
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func errorMessage(t *testing.T, r *http.Response) string {
	t.Helper()
	body := decode[map[string]any](t, r)
	msg, _ := body["error"].(string)
	return msg
}

func TestRegisterValidation(t *testing.T) {
	api := newTestAPI(t)
	api.signup("scholar1", "s1@example.com", "classics1")

	cases := []struct {
		name     string
		username string
		email    string
		password string
		wantMsg  string
	}{
		{"short password", "bob", "bob@example.com", "12345", "password must be at least 6 characters long"},
		{"bad email", "bob", "not-an-email", "classics1", "invalid email format"},
		{"duplicate username", "scholar1", "other@example.com", "classics1", "username already registered"},
		{"duplicate email", "other", "s1@example.com", "classics1", "email already registered"},
		{"empty username", "", "x@example.com", "classics1", "username, email and password are required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := api.post("/api/auth/register", map[string]any{
				"username": tc.username,
				"email":    tc.email,
				"password": tc.password,
			}, nil)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("unexpected status: %d", resp.StatusCode)
			}
			if got := errorMessage(t, resp); got != tc.wantMsg {
				t.Fatalf("error = %q, want %q", got, tc.wantMsg)
			}
		})
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	api := newTestAPI(t)
	api.signup("scholar1", "s1@example.com", "classics1")

	for _, body := range []map[string]any{
		{"username": "scholar1", "password": "wrong-password"},
		{"username": "nobody", "password": "classics1"},
	} {
		resp := api.post("/api/auth/token", body, nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("unexpected status: %d", resp.StatusCode)
		}
		if got := resp.Header.Get("WWW-Authenticate"); got != "Bearer" {
			t.Fatalf("WWW-Authenticate = %q", got)
		}
		if got := errorMessage(t, resp); got != genericAuthFailure {
			t.Fatalf("error = %q, want generic failure", got)
		}
	}
}

func TestMeEndpoint(t *testing.T) {
	api := newTestAPI(t)
	header := api.signup("scholar1", "s1@example.com", "classics1")

	resp := api.get("/api/auth/me", nil, header)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	me := decode[userPayload](t, resp)
	if me.Username != "scholar1" || me.Email != "s1@example.com" {
		t.Fatalf("unexpected identity: %+v", me)
	}

	// No token: mandatory mode rejects with the generic message.
	resp = api.get("/api/auth/me", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	if got := errorMessage(t, resp); got != genericAuthFailure {
		t.Fatalf("error = %q", got)
	}

	// Garbage token gets the same answer as a missing one.
	resp = api.get("/api/auth/me", nil, map[string]string{"Authorization": "Bearer garbage"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	if got := errorMessage(t, resp); got != genericAuthFailure {
		t.Fatalf("error = %q", got)
	}
}

func TestNoteOwnershipFlow(t *testing.T) {
	api := newTestAPI(t)
	owner := api.signup("scholar1", "s1@example.com", "classics1")
	other := api.signup("scholar2", "s2@example.com", "classics2")

	resp := api.post("/api/notes", map[string]any{
		"classic_id": 1,
		"content":    "上善若水。",
	}, owner)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create note: unexpected status %d", resp.StatusCode)
	}
	note := decode[catalog.Note](t, resp)
	if note.ID == 0 || note.ClassicID != 1 {
		t.Fatalf("unexpected note: %+v", note)
	}

	// Anonymous listing is allowed.
	resp = api.get("/api/notes", url.Values{"classic_id": {"1"}}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list notes: unexpected status %d", resp.StatusCode)
	}
	notes := decode[[]catalog.Note](t, resp)
	if len(notes) != 1 {
		t.Fatalf("expected 1 note, got %d", len(notes))
	}

	// Unauthenticated mutation is a 401, not a 403.
	resp = api.del("/api/notes/1", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("delete without token: unexpected status %d", resp.StatusCode)
	}
	resp.Body.Close()

	// A different authenticated user is a 403.
	resp = api.del("/api/notes/1", other)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("delete as non-owner: unexpected status %d", resp.StatusCode)
	}
	if got := errorMessage(t, resp); got != "not enough permissions" {
		t.Fatalf("error = %q", got)
	}

	// Non-owner update is also refused and leaves the row untouched.
	resp = api.put("/api/notes/1", map[string]any{"content": "changed"}, other)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("update as non-owner: unexpected status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.get("/api/notes/1", nil, nil)
	got := decode[catalog.Note](t, resp)
	if got.Content != "上善若水。" {
		t.Fatalf("note mutated by denied request: %+v", got)
	}

	// Owner may update and delete.
	resp = api.put("/api/notes/1", map[string]any{"content": "天下莫柔弱于水。"}, owner)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update as owner: unexpected status %d", resp.StatusCode)
	}
	updated := decode[catalog.Note](t, resp)
	if updated.Content != "天下莫柔弱于水。" {
		t.Fatalf("unexpected content: %q", updated.Content)
	}

	resp = api.del("/api/notes/1", owner)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete as owner: unexpected status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.get("/api/notes/1", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("deleted note still present: %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestNoteRequiresExistingClassic(t *testing.T) {
	api := newTestAPI(t)
	header := api.signup("scholar1", "s1@example.com", "classics1")

	resp := api.post("/api/notes", map[string]any{
		"classic_id": 999,
		"content":    "orphan",
	}, header)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestTranslationOwnershipFlow(t *testing.T) {
	api := newTestAPI(t)
	owner := api.signup("scholar1", "s1@example.com", "classics1")
	other := api.signup("scholar2", "s2@example.com", "classics2")

	resp := api.post("/api/translations", map[string]any{
		"classic_id": 1,
		"language":   "en",
		"content":    "The way that can be spoken of is not the constant way.",
	}, owner)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create translation: unexpected status %d", resp.StatusCode)
	}
	tr := decode[catalog.Translation](t, resp)
	if tr.Language != "en" {
		t.Fatalf("unexpected language: %q", tr.Language)
	}

	resp = api.put("/api/translations/1", map[string]any{"content": "rewrite"}, other)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("update as non-owner: unexpected status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.del("/api/translations/1", owner)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete as owner: unexpected status %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Language filter on the listing.
	resp = api.get("/api/translations", url.Values{"language": {"en"}}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list translations: unexpected status %d", resp.StatusCode)
	}
	if got := decode[[]catalog.Translation](t, resp); len(got) != 0 {
		t.Fatalf("expected empty listing, got %d", len(got))
	}
}

func TestClassicReadsAndLikes(t *testing.T) {
	api := newTestAPI(t)
	header := api.signup("scholar1", "s1@example.com", "classics1")

	// Anonymous read: no liked field, zero likes.
	resp := api.get("/api/classics/1", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	anon := decode[map[string]any](t, resp)
	if _, present := anon["liked"]; present {
		t.Fatalf("liked leaked to an anonymous caller: %v", anon)
	}
	if _, present := anon["favorited"]; present {
		t.Fatalf("favorited leaked to an anonymous caller: %v", anon)
	}

	// An expired or garbage token on a read degrades to anonymous.
	resp = api.get("/api/classics/1", nil, map[string]string{"Authorization": "Bearer nonsense"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("optional mode rejected the request: %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Liking requires identity.
	resp = api.post("/api/classics/1/like", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("like without token: unexpected status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.post("/api/classics/1/like", nil, header)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("like: unexpected status %d", resp.StatusCode)
	}
	liked := decode[map[string]any](t, resp)
	if liked["likes"].(float64) != 1 || liked["liked"] != true {
		t.Fatalf("unexpected like state: %v", liked)
	}

	// The authenticated read is personalized.
	resp = api.get("/api/classics/1", nil, header)
	personal := decode[map[string]any](t, resp)
	if personal["liked"] != true {
		t.Fatalf("expected liked=true, got %v", personal)
	}

	resp = api.del("/api/classics/1/like", header)
	unliked := decode[map[string]any](t, resp)
	if unliked["likes"].(float64) != 0 || unliked["liked"] != false {
		t.Fatalf("unexpected unlike state: %v", unliked)
	}
}

func TestClassicFavorites(t *testing.T) {
	api := newTestAPI(t)
	header := api.signup("scholar1", "s1@example.com", "classics1")

	// Favoriting requires identity.
	resp := api.post("/api/classics/1/favorite", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("favorite without token: unexpected status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.post("/api/classics/1/favorite", nil, header)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("favorite: unexpected status %d", resp.StatusCode)
	}
	favorited := decode[map[string]any](t, resp)
	if favorited["favorited"] != true {
		t.Fatalf("unexpected favorite state: %v", favorited)
	}

	// The authenticated read carries the flag; the like flag stays
	// independent.
	resp = api.get("/api/classics/1", nil, header)
	personal := decode[map[string]any](t, resp)
	if personal["favorited"] != true {
		t.Fatalf("expected favorited=true, got %v", personal)
	}
	if personal["liked"] != false {
		t.Fatalf("favoriting must not set liked: %v", personal)
	}

	resp = api.del("/api/classics/1/favorite", header)
	unfavorited := decode[map[string]any](t, resp)
	if unfavorited["favorited"] != false {
		t.Fatalf("unexpected unfavorite state: %v", unfavorited)
	}

	// Missing classic is a 404 for a known caller.
	resp = api.post("/api/classics/999/favorite", nil, header)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("favorite missing classic: unexpected status %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLikeUnsupportedMethodIs405(t *testing.T) {
	api := newTestAPI(t)

	// Method discipline comes before identity: no token and a GET must be
	// 405, not 401.
	for _, path := range []string{"/api/classics/1/like", "/api/classics/1/favorite"} {
		resp := api.get(path, nil, nil)
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Fatalf("GET %s: unexpected status %d", path, resp.StatusCode)
		}
		if got := resp.Header.Get("Allow"); got == "" {
			t.Fatalf("GET %s: expected Allow header", path)
		}
		resp.Body.Close()
	}
}

func TestClassicsSearch(t *testing.T) {
	api := newTestAPI(t)

	resp := api.get("/api/classics", url.Values{"search": {"老子"}}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	hits := decode[[]catalog.Classic](t, resp)
	if len(hits) != 1 || hits[0].Author != "老子" {
		t.Fatalf("unexpected search result: %+v", hits)
	}

	resp = api.get("/api/classics", url.Values{"search": {"莊子"}}, nil)
	if got := decode[[]catalog.Classic](t, resp); len(got) != 0 {
		t.Fatalf("expected no hits, got %+v", got)
	}
}

func TestUnknownRoutes(t *testing.T) {
	api := newTestAPI(t)

	resp := api.get("/api/unknown", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.get("/api/notes/not-a-number", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	resp.Body.Close()
}
