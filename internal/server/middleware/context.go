// Package middleware holds the HTTP middleware and the request context
// accessors shared by the handlers. It sits below the server wiring so
// handler packages can import it without importing the router.
package middleware

import "context"

type contextKey struct{ name string }

var (
	userIDKey    = contextKey{"user_id"}
	sessionIDKey = contextKey{"session_id"}
	clientIPKey  = contextKey{"client_ip"}
)

// WithIdentity returns a context with user_id and session_id set.
// Handlers and services can read these via GetUserID and GetSessionID.
func WithIdentity(ctx context.Context, userID, sessionID string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	ctx = context.WithValue(ctx, sessionIDKey, sessionID)
	return ctx
}

// GetUserID returns the user_id from context and true if set; otherwise "", false.
func GetUserID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userIDKey).(string)
	return v, ok
}

// GetSessionID returns the session_id from context and true if set; otherwise "", false.
func GetSessionID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(sessionIDKey).(string)
	return v, ok
}

// WithClientIP returns a context carrying the client IP for the request.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// GetClientIP returns the client IP from context and true if set; otherwise "", false.
func GetClientIP(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(clientIPKey).(string)
	return v, ok
}
