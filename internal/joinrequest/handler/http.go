// Package handler serves the join request endpoints.
package handler

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"foodbridge/backend/internal/audit"
	"foodbridge/backend/internal/joinrequest/domain"
	"foodbridge/backend/internal/joinrequest/repository"
	"foodbridge/backend/internal/joinrequest/service"
	"foodbridge/backend/internal/platform/httpx"
	"foodbridge/backend/internal/server/middleware"
)

// Handler serves join request HTTP endpoints.
type Handler struct {
	svc     *service.Service
	repo    repository.Repository
	orgs    service.OrgRepo
	auditor audit.AuditLogger
}

// New returns a join request handler. auditor may be nil.
func New(svc *service.Service, repo repository.Repository, orgs service.OrgRepo, auditor audit.AuditLogger) *Handler {
	return &Handler{svc: svc, repo: repo, orgs: orgs, auditor: auditor}
}

// Register mounts the join request routes on the given router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/joinrequests", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/joinrequests", h.List).Methods(http.MethodGet)
	r.HandleFunc("/joinrequests/{id}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/joinrequests/{id}", h.Patch).Methods(http.MethodPatch)
	r.HandleFunc("/joinrequests/{id}", h.Delete).Methods(http.MethodDelete)
}

type createRequest struct {
	Organization string `json:"organization"`
	Note         string `json:"note"`
}

type patchRequest struct {
	Status string `json:"status"`
}

type orgPayload struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	URL     string `json:"url"`
	Status  string `json:"status"`
}

type joinRequestPayload struct {
	ID           string      `json:"id"`
	UserID       string      `json:"user_id"`
	Organization interface{} `json:"organization"`
	Note         string      `json:"note"`
	Status       string      `json:"status"`
}

func (h *Handler) toPayload(r *http.Request, jr *domain.JoinRequest) joinRequestPayload {
	out := joinRequestPayload{
		ID:     jr.ID,
		UserID: jr.UserID,
		Note:   jr.Note,
		Status: string(jr.Status),
	}
	org, err := h.orgs.GetByID(r.Context(), jr.OrgID)
	if err == nil && org != nil {
		out.Organization = orgPayload{
			ID:      org.ID,
			Name:    org.Name,
			Address: org.Address,
			Email:   org.Email,
			Phone:   org.Phone,
			URL:     org.URL,
			Status:  string(org.Status),
		}
	} else {
		out.Organization = jr.OrgID
	}
	return out
}

// Create submits a pending join request for the caller.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "missing or invalid authorization")
		return
	}
	var in createRequest
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	orgID, ok := httpx.ParseID(in.Organization)
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "Invalid organization parameter value")
		return
	}
	jr, err := h.svc.Submit(r.Context(), userID, orgID, in.Note)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrgNotFound):
			httpx.Error(w, http.StatusBadRequest, "Invalid organization parameter value")
		case errors.Is(err, repository.ErrDuplicatePending):
			httpx.Error(w, http.StatusBadRequest, err.Error())
		default:
			httpx.Error(w, http.StatusInternalServerError, "failed to create join request")
		}
		return
	}
	if h.auditor != nil {
		h.auditor.LogEvent(r.Context(), orgID, userID, "joinrequest.create", "joinrequest:"+jr.ID, "")
	}
	httpx.JSON(w, http.StatusCreated, h.toPayload(r, jr))
}

// List returns join requests, filtered by status and organization.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var f repository.Filter
	if s := r.URL.Query().Get("status"); s != "" {
		parsed, ok := domain.ParseStatus(s)
		if !ok {
			httpx.Error(w, http.StatusBadRequest, "Invalid status parameter value")
			return
		}
		f.Status = &parsed
	}
	if o := r.URL.Query().Get("organization"); o != "" {
		orgID, ok := httpx.ParseID(o)
		if !ok {
			httpx.Error(w, http.StatusBadRequest, "Invalid organization parameter value")
			return
		}
		org, err := h.orgs.GetByID(r.Context(), orgID)
		if err != nil {
			httpx.Error(w, http.StatusInternalServerError, "failed to resolve organization")
			return
		}
		if org == nil {
			httpx.Error(w, http.StatusBadRequest, "Invalid organization parameter value")
			return
		}
		f.OrgID = &orgID
	}
	list, err := h.repo.List(r.Context(), f)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to list join requests")
		return
	}
	out := make([]joinRequestPayload, len(list))
	for i, jr := range list {
		out[i] = h.toPayload(r, jr)
	}
	httpx.JSON(w, http.StatusOK, out)
}

// Get returns one join request by id.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.ParseID(mux.Vars(r)["id"])
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "Invalid id parameter value")
		return
	}
	jr, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to fetch join request")
		return
	}
	if jr == nil {
		httpx.Error(w, http.StatusNotFound, "join request not found")
		return
	}
	httpx.JSON(w, http.StatusOK, h.toPayload(r, jr))
}

// Patch transitions the request: the requester may withdraw, an admin of the
// target org may approve or deny.
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
	jr, err := h.svc.Transition(r.Context(), userID, id, next)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRequestNotFound):
			httpx.Error(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotAllowed):
			httpx.Error(w, http.StatusUnauthorized, err.Error())
		case errors.Is(err, service.ErrStatusFinal), errors.Is(err, service.ErrInvalidTransition):
			httpx.Error(w, http.StatusBadRequest, err.Error())
		default:
			httpx.Error(w, http.StatusInternalServerError, "failed to update join request")
		}
		return
	}
	if h.auditor != nil {
		h.auditor.LogEvent(r.Context(), jr.OrgID, userID, "joinrequest."+string(next), "joinrequest:"+id, "")
	}
	httpx.JSON(w, http.StatusOK, h.toPayload(r, jr))
}

// Delete removes the caller's own join request.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
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
	if err := h.svc.Delete(r.Context(), userID, id); err != nil {
		switch {
		case errors.Is(err, service.ErrRequestNotFound):
			httpx.Error(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotAllowed):
			httpx.Error(w, http.StatusUnauthorized, err.Error())
		default:
			httpx.Error(w, http.StatusInternalServerError, "failed to delete join request")
		}
		return
	}
	httpx.JSON(w, http.StatusNoContent, nil)
}
