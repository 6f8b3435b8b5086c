// Package handler serves the org member endpoints: list members partitioned
// by role, assign a member, and remove one.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"foodbridge/backend/internal/audit"
	"foodbridge/backend/internal/membership/domain"
	"foodbridge/backend/internal/membership/repository"
	orgdomain "foodbridge/backend/internal/organization/domain"
	"foodbridge/backend/internal/platform/httpx"
	"foodbridge/backend/internal/platform/rbac"
	userrepo "foodbridge/backend/internal/user/repository"
)

// OrgGetter resolves an organization by id, returning nil when absent.
type OrgGetter interface {
	GetByID(ctx context.Context, id string) (*orgdomain.Org, error)
}

// Handler serves membership HTTP endpoints.
type Handler struct {
	repo    repository.Repository
	users   userrepo.Repository
	orgs    OrgGetter
	auditor audit.AuditLogger
}

// New returns a membership handler. auditor may be nil.
func New(repo repository.Repository, users userrepo.Repository, orgs OrgGetter, auditor audit.AuditLogger) *Handler {
	return &Handler{repo: repo, users: users, orgs: orgs, auditor: auditor}
}

// Register mounts the member routes on the given router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/org/{org_id}/members", h.List).Methods(http.MethodGet)
	r.HandleFunc("/org/{org_id}/members", h.Put).Methods(http.MethodPut)
	r.HandleFunc("/org/{org_id}/members", h.Delete).Methods(http.MethodDelete)
}

type memberPayload struct {
	UserID    string `json:"user_id"`
	FirstName string `json:"first"`
	LastName  string `json:"last"`
}

type memberListResponse struct {
	Admins  []memberPayload `json:"admins"`
	Members []memberPayload `json:"members"`
}

type putMemberRequest struct {
	UserID  string `json:"user_id"`
	IsAdmin bool   `json:"is_admin"`
}

type deleteMemberRequest struct {
	UserID string `json:"user_id"`
}

// resolveOrg parses the org_id path variable and confirms the org exists.
// On failure it writes the response and reports false.
func (h *Handler) resolveOrg(w http.ResponseWriter, r *http.Request) (string, bool) {
	orgID, ok := httpx.ParseID(mux.Vars(r)["org_id"])
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "Invalid org_id parameter value")
		return "", false
	}
	org, err := h.orgs.GetByID(r.Context(), orgID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to resolve organization")
		return "", false
	}
	if org == nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid org_id parameter value")
		return "", false
	}
	return orgID, true
}

func (h *Handler) writeAuthError(w http.ResponseWriter, orgID string, err error) {
	switch {
	case errors.Is(err, rbac.ErrMembershipLookup):
		httpx.Error(w, http.StatusInternalServerError, "failed to resolve membership")
	default:
		httpx.Error(w, http.StatusUnauthorized, "You are not an admin of org "+orgID)
	}
}

// List returns the org's members partitioned into admins and members.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.resolveOrg(w, r)
	if !ok {
		return
	}
	if _, err := rbac.RequireOrgAdmin(r.Context(), h.repo, orgID); err != nil {
		h.writeAuthError(w, orgID, err)
		return
	}
	memberships, err := h.repo.ListMembershipsByOrg(r.Context(), orgID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	out := memberListResponse{Admins: []memberPayload{}, Members: []memberPayload{}}
	for _, m := range memberships {
		user, err := h.users.GetByID(r.Context(), m.UserID)
		if err != nil {
			httpx.Error(w, http.StatusInternalServerError, "failed to resolve member")
			return
		}
		if user == nil {
			continue
		}
		p := memberPayload{UserID: user.ID, FirstName: user.FirstName, LastName: user.LastName}
		if m.Role == domain.RoleAdmin {
			out.Admins = append(out.Admins, p)
		} else {
			out.Members = append(out.Members, p)
		}
	}
	httpx.JSON(w, http.StatusOK, out)
}

// Put assigns the target user to the org with the requested role. An existing
// membership anywhere is replaced.
func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.resolveOrg(w, r)
	if !ok {
		return
	}
	callerID, err := rbac.RequireOrgAdmin(r.Context(), h.repo, orgID)
	if err != nil {
		h.writeAuthError(w, orgID, err)
		return
	}
	var in putMemberRequest
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	targetID, ok := httpx.ParseID(in.UserID)
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "Invalid user_id parameter value")
		return
	}
	target, err := h.users.GetByID(r.Context(), targetID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to resolve user")
		return
	}
	if target == nil {
		httpx.Error(w, http.StatusBadRequest, "user not found")
		return
	}
	m := &domain.Membership{
		ID:        uuid.New().String(),
		UserID:    targetID,
		OrgID:     orgID,
		Role:      domain.RoleFromAdminFlag(in.IsAdmin),
		CreatedAt: time.Now().UTC(),
	}
	if err := h.repo.Upsert(r.Context(), m); err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to assign member")
		return
	}
	if h.auditor != nil {
		h.auditor.LogEvent(r.Context(), orgID, callerID, "member.put", "user:"+targetID, string(m.Role))
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"user_id": targetID, "role": string(m.Role)})
}

// Delete removes the target user's membership. An org admin may remove any
// member; a user may always remove themself.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.resolveOrg(w, r)
	if !ok {
		return
	}
	var in deleteMemberRequest
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	targetID, ok := httpx.ParseID(in.UserID)
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "Invalid user_id parameter value")
		return
	}
	existing, err := h.repo.GetMembershipByUser(r.Context(), targetID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to resolve membership")
		return
	}
	if existing == nil || existing.OrgID != orgID {
		httpx.Error(w, http.StatusBadRequest, "user is not a member of org "+orgID)
		return
	}
	callerID, err := rbac.RequireAdminOrSelf(r.Context(), h.repo, targetID, orgID)
	if err != nil {
		h.writeAuthError(w, orgID, err)
		return
	}
	if _, err := h.repo.DeleteByUser(r.Context(), targetID); err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to remove member")
		return
	}
	if h.auditor != nil {
		h.auditor.LogEvent(r.Context(), orgID, callerID, "member.delete", "user:"+targetID, "")
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"user_id": targetID})
}
