package repository

import (
	"context"

	"foodbridge/backend/internal/organization/domain"
)

// Repository defines persistence for organizations.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Org, error)
	ListByStatus(ctx context.Context, status domain.OrgStatus) ([]*domain.Org, error)
	Create(ctx context.Context, o *domain.Org) error
}
