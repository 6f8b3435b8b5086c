// Package handler serves the org application endpoints.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"foodbridge/backend/internal/application/domain"
	"foodbridge/backend/internal/application/repository"
	"foodbridge/backend/internal/audit"
	"foodbridge/backend/internal/platform/httpx"
	"foodbridge/backend/internal/server/middleware"
)

// Handler serves org application HTTP endpoints.
type Handler struct {
	repo    repository.Repository
	auditor audit.AuditLogger
}

// New returns an application handler. auditor may be nil.
func New(repo repository.Repository, auditor audit.AuditLogger) *Handler {
	return &Handler{repo: repo, auditor: auditor}
}

// Register mounts the application routes on the given router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/application", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/application", h.List).Methods(http.MethodGet)
	r.HandleFunc("/application/{id}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/application/{id}", h.Patch).Methods(http.MethodPatch)
}

type applicationPayload struct {
	ID      string `json:"id"`
	UserID  string `json:"user_id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	URL     string `json:"url"`
	Status  string `json:"status"`
}

type patchRequest struct {
	Status string `json:"status"`
}

func toPayload(a *domain.OrgApplication) applicationPayload {
	return applicationPayload{
		ID:      a.ID,
		UserID:  a.UserID,
		Name:    a.Name,
		Address: a.Address,
		Phone:   a.Phone,
		Email:   a.Email,
		URL:     a.URL,
		Status:  string(a.Status),
	}
}

// Create submits a pending application for the caller.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "missing or invalid authorization")
		return
	}
	var in applicationPayload
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	now := time.Now().UTC()
	app := &domain.OrgApplication{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      in.Name,
		Address:   in.Address,
		Phone:     in.Phone,
		Email:     in.Email,
		URL:       in.URL,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := app.Validate(); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.repo.Create(r.Context(), app); err != nil {
		if errors.Is(err, repository.ErrDuplicatePending) {
			httpx.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		httpx.Error(w, http.StatusInternalServerError, "failed to create application")
		return
	}
	if h.auditor != nil {
		h.auditor.LogEvent(r.Context(), "", userID, "application.create", "application:"+app.ID, "")
	}
	httpx.JSON(w, http.StatusCreated, toPayload(app))
}

// List returns applications, optionally filtered by status.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var status *domain.Status
	if s := r.URL.Query().Get("status"); s != "" {
		parsed, ok := domain.ParseStatus(s)
		if !ok {
			httpx.Error(w, http.StatusBadRequest, "Invalid status parameter value")
			return
		}
		status = &parsed
	}
	apps, err := h.repo.List(r.Context(), status)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to list applications")
		return
	}
	out := make([]applicationPayload, len(apps))
	for i, a := range apps {
		out[i] = toPayload(a)
	}
	httpx.JSON(w, http.StatusOK, out)
}

// Get returns one application by id.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.ParseID(mux.Vars(r)["id"])
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "Invalid id parameter value")
		return
	}
	app, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to fetch application")
		return
	}
	if app == nil {
		httpx.Error(w, http.StatusNotFound, "application not found")
		return
	}
	httpx.JSON(w, http.StatusOK, toPayload(app))
}

// Patch moves the application out of pending. Only the applicant may do so,
// and only to withdrawn; approval and denial happen in the operator workflow.
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "missing or invalid authorization")
		return
	}
	id, ok := httpx.ParseID(mux.Vars(r)["id"])
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "Invalid id parameter value")
		return
	}
	var in patchRequest
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	next, ok := domain.ParseStatus(in.Status)
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "Invalid status parameter value")
		return
	}
	app, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to fetch application")
		return
	}
	if app == nil {
		httpx.Error(w, http.StatusNotFound, "application not found")
		return
	}
	if app.UserID != userID {
		httpx.Error(w, http.StatusUnauthorized, "only the applicant may modify this application")
		return
	}
	if next != domain.StatusWithdrawn {
		httpx.Error(w, http.StatusBadRequest, "applicants may only withdraw an application")
		return
	}
	if !app.Status.CanTransitionTo(next) {
		httpx.Error(w, http.StatusBadRequest, "application status is final")
		return
	}
	if err := h.repo.UpdateStatus(r.Context(), id, next); err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to update application")
		return
	}
	if h.auditor != nil {
		h.auditor.LogEvent(r.Context(), "", userID, "application.withdraw", "application:"+id, "")
	}
	app.Status = next
	httpx.JSON(w, http.StatusOK, toPayload(app))
}
