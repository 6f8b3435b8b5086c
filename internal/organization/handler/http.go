// Package handler serves the organization endpoints: list active orgs,
// fetch one, and create.
package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"foodbridge/backend/internal/audit"
	membershipdomain "foodbridge/backend/internal/membership/domain"
	membershiprepo "foodbridge/backend/internal/membership/repository"
	"foodbridge/backend/internal/organization/domain"
	"foodbridge/backend/internal/organization/repository"
	"foodbridge/backend/internal/platform/httpx"
	"foodbridge/backend/internal/server/middleware"
)

// Handler serves organization HTTP endpoints.
type Handler struct {
	repo        repository.Repository
	memberships membershiprepo.Repository
	auditor     audit.AuditLogger
}

// New returns an organization handler. auditor may be nil.
func New(repo repository.Repository, memberships membershiprepo.Repository, auditor audit.AuditLogger) *Handler {
	return &Handler{repo: repo, memberships: memberships, auditor: auditor}
}

// Register mounts the organization routes on the given router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/organization", h.List).Methods(http.MethodGet)
	r.HandleFunc("/organization", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/organization/{id}", h.Get).Methods(http.MethodGet)
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

func toPayload(o *domain.Org) orgPayload {
	return orgPayload{
		ID:      o.ID,
		Name:    o.Name,
		Address: o.Address,
		Email:   o.Email,
		Phone:   o.Phone,
		URL:     o.URL,
		Status:  string(o.Status),
	}
}

// List returns all active organizations.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.repo.ListByStatus(r.Context(), domain.OrgStatusActive)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to list organizations")
		return
	}
	out := make([]orgPayload, len(orgs))
	for i, o := range orgs {
		out[i] = toPayload(o)
	}
	httpx.JSON(w, http.StatusOK, out)
}

// Get returns one active organization by id.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.ParseID(mux.Vars(r)["id"])
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "Invalid id parameter value")
		return
	}
	org, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to fetch organization")
		return
	}
	if org == nil || org.Status != domain.OrgStatusActive {
		httpx.Error(w, http.StatusNotFound, "organization not found")
		return
	}
	httpx.JSON(w, http.StatusOK, toPayload(org))
}

// Create creates an organization and makes the caller its admin member.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var in orgPayload
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	now := time.Now().UTC()
	org := &domain.Org{
		ID:        uuid.New().String(),
		Name:      in.Name,
		Address:   in.Address,
		Email:     in.Email,
		Phone:     in.Phone,
		URL:       in.URL,
		Status:    domain.OrgStatusActive,
		CreatedAt: now,
	}
	if err := org.Validate(); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.repo.Create(r.Context(), org); err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to create organization")
		return
	}

	// The creator administers the new org; without this no member endpoint
	// would ever be reachable for it.
	m := &membershipdomain.Membership{
		ID:        uuid.New().String(),
		UserID:    userID,
		OrgID:     org.ID,
		Role:      membershipdomain.RoleAdmin,
		CreatedAt: now,
	}
	if err := h.memberships.Upsert(r.Context(), m); err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to assign creator membership")
		return
	}

	if h.auditor != nil {
		h.auditor.LogEvent(r.Context(), org.ID, userID, "organization.create", "organization:"+org.ID, "")
	}
	httpx.JSON(w, http.StatusCreated, toPayload(org))
}
