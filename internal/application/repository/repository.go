package repository

import (
	"context"
	"errors"

	"foodbridge/backend/internal/application/domain"
)

// ErrDuplicatePending is returned by Create when the user already has a
// pending application. Enforced by a partial unique index, not by a
// check-then-insert, so concurrent submissions cannot race past it.
var ErrDuplicatePending = errors.New("user already has a pending application")

// Repository defines persistence for org applications.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.OrgApplication, error)
	// List returns applications newest first, optionally filtered by status.
	List(ctx context.Context, status *domain.Status) ([]*domain.OrgApplication, error)
	Create(ctx context.Context, a *domain.OrgApplication) error
	UpdateStatus(ctx context.Context, id string, status domain.Status) error
}
