// Package rbac holds the organization role checks gating member and workflow mutations.
package rbac

import (
	"context"
	"errors"

	"foodbridge/backend/internal/membership/domain"
	"foodbridge/backend/internal/server/middleware"
)

// Sentinel errors; handlers map ErrUnauthenticated and ErrNotOrgAdmin to HTTP
// 401 and ErrMembershipLookup to 500.
var (
	ErrUnauthenticated  = errors.New("user context required")
	ErrNotOrgAdmin      = errors.New("organization admin required")
	ErrMembershipLookup = errors.New("failed to resolve membership")
)

// OrgMembershipGetter returns a user's membership, or nil when the user is
// unaffiliated. Used to resolve the caller's role.
type OrgMembershipGetter interface {
	GetMembershipByUser(ctx context.Context, userID string) (*domain.Membership, error)
}

// RequireOrgAdmin ensures the caller is authenticated and holds the admin role
// in the given org. A caller with no membership at all is denied the same way
// as a member of another org.
func RequireOrgAdmin(ctx context.Context, getter OrgMembershipGetter, orgID string) (userID string, err error) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok || userID == "" {
		return "", ErrUnauthenticated
	}
	m, err := getter.GetMembershipByUser(ctx, userID)
	if err != nil {
		return "", ErrMembershipLookup
	}
	if m == nil || m.OrgID != orgID || m.Role != domain.RoleAdmin {
		return "", ErrNotOrgAdmin
	}
	return userID, nil
}
