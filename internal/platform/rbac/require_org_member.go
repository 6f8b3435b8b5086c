package rbac

import (
	"context"
	"errors"

	"foodbridge/backend/internal/server/middleware"
)

// ErrNotAdminOrSelf is returned when a caller is neither an org admin for the
// target's org nor the target themself.
var ErrNotAdminOrSelf = errors.New("organization admin or self required")

// RequireAdminOrSelf authorizes removal-style operations: the caller must
// either be the target user (self-service exception, no role needed) or an
// admin of targetOrgID. targetOrgID may be empty when the target has no
// membership; then only self passes.
func RequireAdminOrSelf(ctx context.Context, getter OrgMembershipGetter, targetUserID, targetOrgID string) (userID string, err error) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok || userID == "" {
		return "", ErrUnauthenticated
	}
	if userID == targetUserID {
		return userID, nil
	}
	if targetOrgID == "" {
		return "", ErrNotAdminOrSelf
	}
	if _, err := RequireOrgAdmin(ctx, getter, targetOrgID); err != nil {
		if errors.Is(err, ErrMembershipLookup) {
			return "", err
		}
		return "", ErrNotAdminOrSelf
	}
	return userID, nil
}
