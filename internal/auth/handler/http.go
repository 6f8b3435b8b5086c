// Package handler serves the auth endpoints: register, login, refresh,
// logout, and account info.
package handler

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"foodbridge/backend/internal/audit"
	"foodbridge/backend/internal/auth/service"
	"foodbridge/backend/internal/platform/httpx"
	"foodbridge/backend/internal/server/middleware"
)

// Handler serves auth HTTP endpoints.
type Handler struct {
	svc     *service.AuthService
	auditor audit.AuditLogger
}

// New returns an auth handler. auditor may be nil.
func New(svc *service.AuthService, auditor audit.AuditLogger) *Handler {
	return &Handler{svc: svc, auditor: auditor}
}

// Register mounts the auth routes on the given router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/register", h.RegisterUser).Methods(http.MethodPost)
	r.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/refresh", h.Refresh).Methods(http.MethodPost)
	r.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)
	r.HandleFunc("/info", h.Info).Methods(http.MethodGet)
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first"`
	LastName  string `json:"last"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RegisterUser creates a new account.
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := h.svc.Register(r.Context(), in.Email, in.Password, in.FirstName, in.LastName)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if h.auditor != nil {
		h.auditor.LogEvent(r.Context(), "", user.ID, "user.register", "user:"+user.ID, "")
	}
	httpx.JSON(w, http.StatusCreated, map[string]string{
		"id":    user.ID,
		"email": user.Email,
		"first": user.FirstName,
		"last":  user.LastName,
	})
}

// Login authenticates and returns access and refresh tokens.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.svc.Login(r.Context(), in.Email, in.Password, middleware.ClientIP(r))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httpx.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		httpx.Error(w, http.StatusInternalServerError, "login failed")
		return
	}
	if h.auditor != nil {
		h.auditor.LogEvent(r.Context(), "", res.UserID, "user.login", "user:"+res.UserID, "")
	}
	httpx.JSON(w, http.StatusOK, map[string]string{
		"token":         res.AccessToken,
		"refresh_token": res.RefreshToken,
		"user_id":       res.UserID,
		"email":         res.Email,
	})
}

// Refresh rotates the refresh token and returns a new token pair.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.svc.Refresh(r.Context(), in.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRefreshToken), errors.Is(err, service.ErrRefreshTokenReuse):
			httpx.Error(w, http.StatusUnauthorized, err.Error())
		default:
			httpx.Error(w, http.StatusInternalServerError, "refresh failed")
		}
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{
		"token":         res.AccessToken,
		"refresh_token": res.RefreshToken,
	})
}

// Logout revokes the current session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	_ = httpx.Decode(r, &in) // body is optional
	sessionID, _ := middleware.GetSessionID(r.Context())
	if err := h.svc.Logout(r.Context(), in.RefreshToken, sessionID); err != nil {
		httpx.Error(w, http.StatusInternalServerError, "logout failed")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

type infoOrgPayload struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	URL     string `json:"url"`
	Status  string `json:"status"`
}

type infoResponse struct {
	ID           string          `json:"id"`
	Email        string          `json:"email"`
	FirstName    string          `json:"first"`
	LastName     string          `json:"last"`
	Organization *infoOrgPayload `json:"organization"`
	IsAdmin      bool            `json:"is_admin"`
}

// Info returns the caller's user record, org (null when unaffiliated), and role.
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "missing or invalid authorization")
		return
	}
	res, err := h.svc.Info(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			httpx.Error(w, http.StatusNotFound, err.Error())
			return
		}
		httpx.Error(w, http.StatusInternalServerError, "failed to fetch account info")
		return
	}
	out := infoResponse{
		ID:        res.User.ID,
		Email:     res.User.Email,
		FirstName: res.User.FirstName,
		LastName:  res.User.LastName,
		IsAdmin:   res.IsAdmin,
	}
	if res.Org != nil {
		out.Organization = &infoOrgPayload{
			ID:      res.Org.ID,
			Name:    res.Org.Name,
			Address: res.Org.Address,
			Email:   res.Org.Email,
			Phone:   res.Org.Phone,
			URL:     res.Org.URL,
			Status:  string(res.Org.Status),
		}
	}
	httpx.JSON(w, http.StatusOK, out)
}
