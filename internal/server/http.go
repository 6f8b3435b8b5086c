// Package server wires the HTTP router and the middleware stack around it.
package server

import (
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	applicationhandler "foodbridge/backend/internal/application/handler"
	authhandler "foodbridge/backend/internal/auth/handler"
	healthhandler "foodbridge/backend/internal/health/handler"
	joinrequesthandler "foodbridge/backend/internal/joinrequest/handler"
	listinghandler "foodbridge/backend/internal/listing/handler"
	membershiphandler "foodbridge/backend/internal/membership/handler"
	organizationhandler "foodbridge/backend/internal/organization/handler"
	"foodbridge/backend/internal/platform/httpx"
	"foodbridge/backend/internal/security"
	"foodbridge/backend/internal/server/middleware"
)

// Deps holds the handlers and shared services the router mounts.
type Deps struct {
	Auth          *authhandler.Handler
	Organizations *organizationhandler.Handler
	Memberships   *membershiphandler.Handler
	Applications  *applicationhandler.Handler
	JoinRequests  *joinrequesthandler.Handler
	Donations     *listinghandler.DonationHandler
	Requests      *listinghandler.RequestHandler
	Health        *healthhandler.Handler

	// Tokens validates access tokens for protected routes.
	Tokens *security.TokenProvider
	// Logger logs one line per request. If nil, request logging is skipped.
	Logger *log.Logger
	// MediaDir, when set, is served read-only under /media/ (listing pictures).
	MediaDir string
}

// publicPaths are reachable without an access token.
var publicPaths = map[string]struct{}{
	"/api/identity/register": {},
	"/api/identity/login":    {},
	"/api/identity/refresh":  {},
}

func isPublic(r *http.Request) bool {
	if _, ok := publicPaths[r.URL.Path]; ok {
		return true
	}
	return r.URL.Path == "/healthz" || r.URL.Path == "/readyz"
}

// NewRouter builds the full HTTP handler: routes, auth middleware,
// request logging, panic recovery, and response compression.
func NewRouter(deps Deps) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		httpx.Error(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		httpx.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	if deps.Health != nil {
		deps.Health.Register(r)
	}

	identity := r.PathPrefix("/api/identity").Subrouter()
	if deps.Auth != nil {
		deps.Auth.Register(identity)
	}
	if deps.Organizations != nil {
		deps.Organizations.Register(identity)
	}
	if deps.Memberships != nil {
		deps.Memberships.Register(identity)
	}
	if deps.Applications != nil {
		deps.Applications.Register(identity)
	}
	if deps.JoinRequests != nil {
		deps.JoinRequests.Register(identity)
	}

	listing := r.PathPrefix("/api/listing").Subrouter()
	if deps.Donations != nil {
		deps.Donations.Register(listing)
	}
	if deps.Requests != nil {
		deps.Requests.Register(listing)
	}

	if deps.MediaDir != "" {
		fs := http.StripPrefix("/media/", http.FileServer(http.Dir(deps.MediaDir)))
		r.PathPrefix("/media/").Handler(onlyGET(fs)).Methods(http.MethodGet)
	}

	var h http.Handler = r
	if deps.Tokens != nil {
		h = middleware.AuthMiddleware(deps.Tokens, isPublic)(h)
	}
	if deps.Logger != nil {
		h = middleware.NewLoggingMiddleware(deps.Logger)(h)
	}
	h = handlers.CompressHandler(h)
	h = handlers.RecoveryHandler(handlers.PrintRecoveryStack(false))(h)
	return h
}

func onlyGET(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			httpx.Error(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		// Keep directory listings off the media root.
		if strings.HasSuffix(r.URL.Path, "/") {
			httpx.Error(w, http.StatusNotFound, "not found")
			return
		}
		next.ServeHTTP(w, r)
	})
}
