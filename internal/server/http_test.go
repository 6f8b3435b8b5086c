package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	healthhandler "foodbridge/backend/internal/health/handler"
	"foodbridge/backend/internal/security"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("token provider: %v", err)
	}
	return NewRouter(Deps{
		Health: healthhandler.New(nil),
		Tokens: tokens,
	})
}

func get(h http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_HealthIsPublic(t *testing.T) {
	h := newTestRouter(t)
	if rec := get(h, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("/healthz status = %d", rec.Code)
	}
	if rec := get(h, "/readyz", ""); rec.Code != http.StatusOK {
		t.Fatalf("/readyz status = %d", rec.Code)
	}
}

func TestRouter_ProtectedRouteRequiresToken(t *testing.T) {
	h := newTestRouter(t)
	rec := get(h, "/api/listing/requests", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRouter_RejectsGarbageToken(t *testing.T) {
	h := newTestRouter(t)
	rec := get(h, "/api/listing/requests", "not-a-jwt")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRouter_ValidTokenPassesMiddleware(t *testing.T) {
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("token provider: %v", err)
	}
	h := NewRouter(Deps{Health: healthhandler.New(nil), Tokens: tokens})
	token, _, _, err := tokens.IssueAccess("session-1", "user-1")
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}
	// No listing handler mounted, so reaching the router's 404 (not 401)
	// proves the middleware accepted the token.
	rec := get(h, "/api/listing/requests", token)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestRouter_PublicPathsSkipAuth(t *testing.T) {
	h := newTestRouter(t)
	// No auth handler mounted; a 404 (not 401) shows the request passed the
	// middleware without a token.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/identity/login", nil)
	h.ServeHTTP(rec, req)
	if rec.Code == http.StatusUnauthorized {
		t.Fatalf("login should be reachable without a token, got %d", rec.Code)
	}
}
