// Package handler serves the listing endpoints: donations and requests.
package handler

import (
	"context"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"foodbridge/backend/internal/audit"
	"foodbridge/backend/internal/listing/domain"
	"foodbridge/backend/internal/listing/repository"
	orgdomain "foodbridge/backend/internal/organization/domain"
	"foodbridge/backend/internal/platform/httpx"
	"foodbridge/backend/internal/server/middleware"
	"foodbridge/backend/internal/storage"
)

// maxUploadBytes caps donation picture uploads.
const maxUploadBytes = 32 << 20

// OrgGetter resolves organizations for listing validation.
type OrgGetter interface {
	GetByID(ctx context.Context, id string) (*orgdomain.Org, error)
}

// DonationHandler serves donation listing HTTP endpoints.
type DonationHandler struct {
	repo    repository.DonationRepository
	orgs    OrgGetter
	store   storage.Storage
	auditor audit.AuditLogger
}

// NewDonationHandler returns a donation handler. auditor may be nil.
func NewDonationHandler(repo repository.DonationRepository, orgs OrgGetter, store storage.Storage, auditor audit.AuditLogger) *DonationHandler {
	return &DonationHandler{repo: repo, orgs: orgs, store: store, auditor: auditor}
}

// Register mounts the donation routes on the given router.
func (h *DonationHandler) Register(r *mux.Router) {
	r.HandleFunc("/donations", h.List).Methods(http.MethodGet)
	r.HandleFunc("/donations", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/donations", h.Delete).Methods(http.MethodDelete)
}

type donationPayload struct {
	DonationID     string  `json:"donation_id"`
	OrganizationID string  `json:"organization_id"`
	Description    string  `json:"description"`
	Picture        string  `json:"picture"`
	ExpirationDate *string `json:"expiration_date"`
	Traits         []int   `json:"traits"`
	DeactivatedAt  *string `json:"deactivated_at"`
}

func donationToPayload(d *domain.Donation) donationPayload {
	return donationPayload{
		DonationID:     d.ID,
		OrganizationID: d.OrgID,
		Description:    d.Description,
		Picture:        d.Picture,
		ExpirationDate: formatDate(d.ExpirationDate),
		Traits:         traitsToInts(d.Traits),
		DeactivatedAt:  formatTime(d.DeactivatedAt),
	}
}

// List returns donations filtered by org and active status.
// An empty filtered result is 204 with no body.
func (h *DonationHandler) List(w http.ResponseWriter, r *http.Request) {
	f, ok := parseListFilter(w, r, h.orgs)
	if !ok {
		return
	}
	donations, err := h.repo.ListDonations(r.Context(), f)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to list donations")
		return
	}
	if len(donations) == 0 {
		httpx.JSON(w, http.StatusNoContent, nil)
		return
	}
	out := make([]donationPayload, len(donations))
	for i, d := range donations {
		out[i] = donationToPayload(d)
	}
	httpx.JSON(w, http.StatusOK, map[string]interface{}{"donations": out})
}

// Create accepts a multipart form with org_id, description, expiration_date,
// repeated traits, and a required picture file.
func (h *DonationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	orgID, ok := httpx.ParseID(r.FormValue("org_id"))
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

	var expiration *time.Time
	if v := r.FormValue("expiration_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			httpx.Error(w, http.StatusBadRequest, "for key expiration_date invalid date value")
			return
		}
		expiration = &t
	}

	traits, ok := parseTraits(r.Form["traits"])
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "for key traits invalid trait value")
		return
	}

	file, header, err := r.FormFile("picture")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "for key picture this field is required")
		return
	}
	defer file.Close()

	id := uuid.New().String()
	key := "donations/" + id + filepath.Ext(header.Filename)
	if _, err := h.store.Put(key, file); err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to store picture")
		return
	}

	d := &domain.Donation{
		ID:             id,
		OrgID:          orgID,
		Description:    r.FormValue("description"),
		Picture:        "/media/" + key,
		ExpirationDate: expiration,
		Traits:         domain.DedupeTraits(traits),
		CreatedAt:      time.Now().UTC(),
	}
	if err := d.Validate(); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.repo.CreateDonation(r.Context(), d); err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to create donation")
		return
	}
	if h.auditor != nil {
		userID, _ := middleware.GetUserID(r.Context())
		h.auditor.LogEvent(r.Context(), orgID, userID, "donation.create", "donation:"+d.ID, "")
	}
	httpx.JSON(w, http.StatusCreated, map[string]string{"donation_id": d.ID})
}

// Delete soft-deletes the donation named by donation_id in the body.
// The row stays fetchable with status inactive.
func (h *DonationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var in struct {
		DonationID string `json:"donation_id"`
	}
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id, ok := httpx.ParseID(in.DonationID)
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "Invalid donation_id parameter value")
		return
	}
	orgID, err := h.repo.DeactivateDonation(r.Context(), id)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to deactivate donation")
		return
	}
	if orgID == "" {
		httpx.Error(w, http.StatusBadRequest, "Invalid donation_id parameter value")
		return
	}
	if h.auditor != nil {
		userID, _ := middleware.GetUserID(r.Context())
		h.auditor.LogEvent(r.Context(), orgID, userID, "donation.deactivate", "donation:"+id, "")
	}
	httpx.JSON(w, http.StatusOK, nil)
}

func parseListFilter(w http.ResponseWriter, r *http.Request, orgs OrgGetter) (repository.Filter, bool) {
	var f repository.Filter
	if v := r.URL.Query().Get("org_id"); v != "" {
		orgID, ok := httpx.ParseID(v)
		if !ok {
			httpx.Error(w, http.StatusBadRequest, "Invalid org_id parameter value")
			return f, false
		}
		org, err := orgs.GetByID(r.Context(), orgID)
		if err != nil {
			httpx.Error(w, http.StatusInternalServerError, "failed to resolve organization")
			return f, false
		}
		if org == nil {
			httpx.Error(w, http.StatusBadRequest, "Invalid org_id parameter value")
			return f, false
		}
		f.OrgID = &orgID
	}
	if v := r.URL.Query().Get("status"); v != "" {
		switch v {
		case "active":
			active := true
			f.Active = &active
		case "inactive":
			active := false
			f.Active = &active
		default:
			httpx.Error(w, http.StatusBadRequest, "Invalid status parameter value")
			return f, false
		}
	}
	return f, true
}

func parseTraits(values []string) ([]domain.Trait, bool) {
	out := make([]domain.Trait, 0, len(values))
	for _, v := range values {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, false
		}
		t, ok := domain.ParseTrait(n)
		if !ok {
			return nil, false
		}
		out = append(out, t)
	}
	return out, true
}

func traitsToInts(traits []domain.Trait) []int {
	out := make([]int, len(traits))
	for i, t := range traits {
		out[i] = int(t)
	}
	return out
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
