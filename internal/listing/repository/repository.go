package repository

import (
	"context"

	"foodbridge/backend/internal/listing/domain"
)

// Filter narrows List calls. Nil fields are unconstrained. Active true keeps
// listings with deactivated_at IS NULL, false the opposite.
type Filter struct {
	OrgID  *string
	Active *bool
}

// DonationRepository defines persistence for donation listings.
type DonationRepository interface {
	GetDonationByID(ctx context.Context, id string) (*domain.Donation, error)
	// ListDonations returns donations newest first with traits attached.
	ListDonations(ctx context.Context, f Filter) ([]*domain.Donation, error)
	// CreateDonation persists the donation and its traits. Repeated traits
	// are stored once.
	CreateDonation(ctx context.Context, d *domain.Donation) error
	// DeactivateDonation soft-deletes. Returns the owning org id, or ""
	// when no active row matched.
	DeactivateDonation(ctx context.Context, id string) (string, error)
}

// RequestRepository defines persistence for request listings.
type RequestRepository interface {
	GetRequestByID(ctx context.Context, id string) (*domain.Request, error)
	ListRequests(ctx context.Context, f Filter) ([]*domain.Request, error)
	CreateRequest(ctx context.Context, r *domain.Request) error
	// DeactivateRequest soft-deletes. Returns the owning org id, or ""
	// when no active row matched.
	DeactivateRequest(ctx context.Context, id string) (string, error)
}
