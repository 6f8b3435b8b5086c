// server runs the HTTP API: identity, organizations, memberships,
// applications, join requests, and listings.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	applicationhandler "foodbridge/backend/internal/application/handler"
	applicationrepo "foodbridge/backend/internal/application/repository"
	"foodbridge/backend/internal/audit"
	auditrepo "foodbridge/backend/internal/audit/repository"
	authhandler "foodbridge/backend/internal/auth/handler"
	authservice "foodbridge/backend/internal/auth/service"
	"foodbridge/backend/internal/config"
	"foodbridge/backend/internal/db"
	healthhandler "foodbridge/backend/internal/health/handler"
	joinrequesthandler "foodbridge/backend/internal/joinrequest/handler"
	joinrequestrepo "foodbridge/backend/internal/joinrequest/repository"
	joinrequestservice "foodbridge/backend/internal/joinrequest/service"
	listinghandler "foodbridge/backend/internal/listing/handler"
	listingrepo "foodbridge/backend/internal/listing/repository"
	membershiphandler "foodbridge/backend/internal/membership/handler"
	membershiprepo "foodbridge/backend/internal/membership/repository"
	organizationhandler "foodbridge/backend/internal/organization/handler"
	organizationrepo "foodbridge/backend/internal/organization/repository"
	"foodbridge/backend/internal/security"
	"foodbridge/backend/internal/server"
	"foodbridge/backend/internal/server/middleware"
	sessionrepo "foodbridge/backend/internal/session/repository"
	"foodbridge/backend/internal/storage"
	userrepo "foodbridge/backend/internal/user/repository"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "foodbridge",
	})
	if os.Getenv("APP_ENV") != "production" {
		logger.SetLevel(log.DebugLevel)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", "err", err)
	}
	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database", "err", err)
	}
	defer database.Close()

	privateKey, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		logger.Fatal("jwt private key", "err", err)
	}
	publicKey, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		logger.Fatal("jwt public key", "err", err)
	}
	tokens := security.NewTokenProvider(privateKey, publicKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL(), cfg.RefreshTTL())
	hasher := security.NewHasher(cfg.BcryptCost)

	users := userrepo.NewPostgresRepository(database)
	orgs := organizationrepo.NewPostgresRepository(database)
	memberships := membershiprepo.NewPostgresRepository(database)
	sessions := sessionrepo.NewPostgresRepository(database)
	applications := applicationrepo.NewPostgresRepository(database)
	joinRequests := joinrequestrepo.NewPostgresRepository(database)
	listings := listingrepo.NewPostgresRepository(database)
	auditor := audit.NewLogger(auditrepo.NewPostgresRepository(database), func(ctx context.Context) string {
		ip, _ := middleware.GetClientIP(ctx)
		return ip
	})

	store := storage.NewLocalStorage(cfg.UploadDir)

	authSvc := authservice.NewAuthService(users, sessions, memberships, orgs, hasher, tokens, cfg.RefreshTTL())
	joinRequestSvc := joinrequestservice.New(joinRequests, memberships, orgs)

	router := server.NewRouter(server.Deps{
		Auth:          authhandler.New(authSvc, auditor),
		Organizations: organizationhandler.New(orgs, memberships, auditor),
		Memberships:   membershiphandler.New(memberships, users, orgs, auditor),
		Applications:  applicationhandler.New(applications, auditor),
		JoinRequests:  joinrequesthandler.New(joinRequestSvc, joinRequests, orgs, auditor),
		Donations:     listinghandler.NewDonationHandler(listings, orgs, store, auditor),
		Requests:      listinghandler.NewRequestHandler(listings, orgs, auditor),
		Health:        healthhandler.New(database),
		Tokens:        tokens,
		Logger:        logger,
		MediaDir:      cfg.UploadDir,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("serve", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown", "err", err)
	}
	logger.Info("stopped")
}
