package repository

import (
	"context"

	"foodbridge/backend/internal/membership/domain"
)

// Repository defines persistence for memberships.
type Repository interface {
	GetMembershipByUser(ctx context.Context, userID string) (*domain.Membership, error)
	ListMembershipsByOrg(ctx context.Context, orgID string) ([]*domain.Membership, error)
	// Upsert assigns (orgID, role) to the user, replacing any existing
	// membership in one atomic statement.
	Upsert(ctx context.Context, m *domain.Membership) error
	DeleteByUser(ctx context.Context, userID string) (bool, error)
}
