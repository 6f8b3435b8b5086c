package repository

import (
	"context"
	"errors"

	"foodbridge/backend/internal/joinrequest/domain"
)

// ErrDuplicatePending is returned by Create when the user already has a
// pending request for the same organization. Enforced by a partial unique
// index so concurrent submissions cannot race past it.
var ErrDuplicatePending = errors.New("user already has a pending request for this organization")

// Filter narrows List. Nil fields are unconstrained.
type Filter struct {
	Status *domain.Status
	OrgID  *string
}

// Repository defines persistence for join requests.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.JoinRequest, error)
	// List returns join requests newest first matching the filter.
	List(ctx context.Context, f Filter) ([]*domain.JoinRequest, error)
	Create(ctx context.Context, j *domain.JoinRequest) error
	UpdateStatus(ctx context.Context, id string, status domain.Status) error
	Delete(ctx context.Context, id string) (bool, error)
}
