package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"foodbridge/backend/internal/audit"
	"foodbridge/backend/internal/listing/domain"
	"foodbridge/backend/internal/listing/repository"
	"foodbridge/backend/internal/platform/httpx"
	"foodbridge/backend/internal/server/middleware"
)

// RequestHandler serves request listing HTTP endpoints.
type RequestHandler struct {
	repo    repository.RequestRepository
	orgs    OrgGetter
	auditor audit.AuditLogger
}

// NewRequestHandler returns a request handler. auditor may be nil.
func NewRequestHandler(repo repository.RequestRepository, orgs OrgGetter, auditor audit.AuditLogger) *RequestHandler {
	return &RequestHandler{repo: repo, orgs: orgs, auditor: auditor}
}

// Register mounts the request routes on the given router.
func (h *RequestHandler) Register(r *mux.Router) {
	r.HandleFunc("/requests", h.List).Methods(http.MethodGet)
	r.HandleFunc("/requests", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/requests", h.Delete).Methods(http.MethodDelete)
}

type requestPayload struct {
	RequestID      string  `json:"request_id"`
	OrganizationID string  `json:"organization_id"`
	Description    string  `json:"description"`
	Traits         []int   `json:"traits"`
	DeactivatedAt  *string `json:"deactivated_at"`
}

func requestToPayload(req *domain.Request) requestPayload {
	return requestPayload{
		RequestID:      req.ID,
		OrganizationID: req.OrgID,
		Description:    req.Description,
		Traits:         traitsToInts(req.Traits),
		DeactivatedAt:  formatTime(req.DeactivatedAt),
	}
}

// List returns requests filtered by org and active status.
// An empty filtered result is 204 with no body.
func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	f, ok := parseListFilter(w, r, h.orgs)
	if !ok {
		return
	}
	requests, err := h.repo.ListRequests(r.Context(), f)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to list requests")
		return
	}
	if len(requests) == 0 {
		httpx.JSON(w, http.StatusNoContent, nil)
		return
	}
	out := make([]requestPayload, len(requests))
	for i, req := range requests {
		out[i] = requestToPayload(req)
	}
	httpx.JSON(w, http.StatusOK, map[string]interface{}{"requests": out})
}

// Create records a new request listing for an organization.
func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in struct {
		OrgID       string `json:"org_id"`
		Description string `json:"description"`
		Traits      []int  `json:"traits"`
	}
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	orgID, ok := httpx.ParseID(in.OrgID)
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "for key org_id invalid organization id")
		return
	}
	org, err := h.orgs.GetByID(r.Context(), orgID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to resolve organization")
		return
	}
	if org == nil {
		httpx.Error(w, http.StatusBadRequest, "for key org_id organization does not exist")
		return
	}

	traits := make([]domain.Trait, 0, len(in.Traits))
	for _, n := range in.Traits {
		t, ok := domain.ParseTrait(n)
		if !ok {
			httpx.Error(w, http.StatusBadRequest, "for key traits invalid trait value")
			return
		}
		traits = append(traits, t)
	}

	req := &domain.Request{
		ID:          uuid.New().String(),
		OrgID:       orgID,
		Description: in.Description,
		Traits:      domain.DedupeTraits(traits),
		CreatedAt:   time.Now().UTC(),
	}
	if err := req.Validate(); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.repo.CreateRequest(r.Context(), req); err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to create request")
		return
	}
	if h.auditor != nil {
		userID, _ := middleware.GetUserID(r.Context())
		h.auditor.LogEvent(r.Context(), orgID, userID, "request.create", "request:"+req.ID, "")
	}
	httpx.JSON(w, http.StatusCreated, map[string]string{"request_id": req.ID})
}

// Delete soft-deletes the request named by request_id in the body.
func (h *RequestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var in struct {
		RequestID string `json:"request_id"`
	}
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id, ok := httpx.ParseID(in.RequestID)
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "Invalid request_id parameter value")
		return
	}
	orgID, err := h.repo.DeactivateRequest(r.Context(), id)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to deactivate request")
		return
	}
	if orgID == "" {
		httpx.Error(w, http.StatusBadRequest, "Invalid request_id parameter value")
		return
	}
	if h.auditor != nil {
		userID, _ := middleware.GetUserID(r.Context())
		h.auditor.LogEvent(r.Context(), orgID, userID, "request.deactivate", "request:"+id, "")
	}
	httpx.JSON(w, http.StatusOK, nil)
}
