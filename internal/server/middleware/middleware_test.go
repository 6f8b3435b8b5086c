package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"foodbridge/backend/internal/security"
)

func TestIdentityContextRoundtrip(t *testing.T) {
	ctx := WithIdentity(context.Background(), "user-1", "session-1")
	if got, ok := GetUserID(ctx); !ok || got != "user-1" {
		t.Fatalf("GetUserID = %q, %v", got, ok)
	}
	if got, ok := GetSessionID(ctx); !ok || got != "session-1" {
		t.Fatalf("GetSessionID = %q, %v", got, ok)
	}
	if _, ok := GetUserID(context.Background()); ok {
		t.Fatal("GetUserID should report absent on an empty context")
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.1.2.3:54321"
	if got := ClientIP(r); got != "10.1.2.3" {
		t.Fatalf("ClientIP = %q, want 10.1.2.3", got)
	}
	r.Header.Set("X-Forwarded-For", "198.51.100.7")
	if got := ClientIP(r); got != "198.51.100.7" {
		t.Fatalf("ClientIP = %q, want forwarded address", got)
	}
}

func TestAuthMiddleware_SetsClientIPForPublicRequests(t *testing.T) {
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("token provider: %v", err)
	}
	var gotIP string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIP, _ = GetClientIP(r.Context())
	})
	h := AuthMiddleware(tokens, func(*http.Request) bool { return true })(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.9:1234"
	h.ServeHTTP(httptest.NewRecorder(), req)
	if gotIP != "192.0.2.9" {
		t.Fatalf("client ip in context = %q, want 192.0.2.9", gotIP)
	}
}

func TestAuthMiddleware_SetsIdentityAndClientIP(t *testing.T) {
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("token provider: %v", err)
	}
	token, _, _, err := tokens.IssueAccess("session-1", "user-1")
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}
	var gotUser, gotIP string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = GetUserID(r.Context())
		gotIP, _ = GetClientIP(r.Context())
	})
	h := AuthMiddleware(tokens, nil)(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.9:1234"
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if gotUser != "user-1" {
		t.Fatalf("user id in context = %q, want user-1", gotUser)
	}
	if gotIP != "192.0.2.9" {
		t.Fatalf("client ip in context = %q, want 192.0.2.9", gotIP)
	}
}

func TestAuthMiddleware_RejectsMissingToken(t *testing.T) {
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("token provider: %v", err)
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	})
	h := AuthMiddleware(tokens, nil)(next)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
