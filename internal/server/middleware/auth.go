package middleware

import (
	"net"
	"net/http"
	"strings"

	"foodbridge/backend/internal/platform/httpx"
	"foodbridge/backend/internal/security"
)

const bearerPrefix = "bearer "

// AuthMiddleware validates the Bearer (access) token from the Authorization
// header and sets user_id and session_id in the request context for protected
// routes. public reports whether a request may pass through without a token
// (e.g. register and login).
func AuthMiddleware(tokens *security.TokenProvider, public func(r *http.Request) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r = r.WithContext(WithClientIP(r.Context(), ClientIP(r)))
			token := extractBearer(r)

			if token == "" {
				if public != nil && public(r) {
					next.ServeHTTP(w, r)
					return
				}
				httpx.Error(w, http.StatusUnauthorized, "missing or invalid authorization")
				return
			}

			sessionID, userID, err := tokens.ValidateAccess(token)
			if err != nil {
				if public != nil && public(r) {
					next.ServeHTTP(w, r)
					return
				}
				httpx.Error(w, http.StatusUnauthorized, "missing or invalid authorization")
				return
			}

			ctx := WithIdentity(r.Context(), userID, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientIP returns the client address for the request, preferring
// X-Forwarded-For when a proxy set it.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// extractBearer returns the Bearer token from the request, or "" if missing or malformed.
func extractBearer(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
