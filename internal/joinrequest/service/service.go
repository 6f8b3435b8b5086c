// Package service coordinates the join request workflow: submission,
// withdrawal by the requester, and approval or denial by an org admin.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"foodbridge/backend/internal/joinrequest/domain"
	"foodbridge/backend/internal/joinrequest/repository"
	membershipdomain "foodbridge/backend/internal/membership/domain"
	orgdomain "foodbridge/backend/internal/organization/domain"
)

// Sentinel errors; handler maps them to HTTP statuses.
var (
	ErrOrgNotFound       = errors.New("organization not found")
	ErrRequestNotFound   = errors.New("join request not found")
	ErrStatusFinal       = errors.New("join request status is final")
	ErrNotAllowed        = errors.New("not allowed to perform this transition")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// MembershipRepo is the minimal membership repository needed by the service.
type MembershipRepo interface {
	GetMembershipByUser(ctx context.Context, userID string) (*membershipdomain.Membership, error)
	Upsert(ctx context.Context, m *membershipdomain.Membership) error
}

// OrgRepo is the minimal organization repository needed by the service.
type OrgRepo interface {
	GetByID(ctx context.Context, id string) (*orgdomain.Org, error)
}

// Service implements the join request workflow.
type Service struct {
	repo        repository.Repository
	memberships MembershipRepo
	orgs        OrgRepo
}

// New returns a join request service.
func New(repo repository.Repository, memberships MembershipRepo, orgs OrgRepo) *Service {
	return &Service{repo: repo, memberships: memberships, orgs: orgs}
}

// Submit creates a pending join request from the user to the org.
func (s *Service) Submit(ctx context.Context, userID, orgID, note string) (*domain.JoinRequest, error) {
	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil || org.Status != orgdomain.OrgStatusActive {
		return nil, ErrOrgNotFound
	}
	now := time.Now().UTC()
	jr := &domain.JoinRequest{
		ID:        uuid.New().String(),
		UserID:    userID,
		OrgID:     orgID,
		Note:      note,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := jr.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, jr); err != nil {
		return nil, err
	}
	return jr, nil
}

// Transition moves the request out of pending. The requester may withdraw;
// an admin of the target org may approve or deny. Approval makes the
// requester a member of the org, replacing any membership they held.
func (s *Service) Transition(ctx context.Context, callerID, id string, next domain.Status) (*domain.JoinRequest, error) {
	jr, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if jr == nil {
		return nil, ErrRequestNotFound
	}
	if jr.Status.Terminal() {
		return nil, ErrStatusFinal
	}
	if !jr.Status.CanTransitionTo(next) {
		return nil, ErrInvalidTransition
	}
	switch next {
	case domain.StatusWithdrawn:
		if callerID != jr.UserID {
			return nil, ErrNotAllowed
		}
	case domain.StatusApproved, domain.StatusDenied:
		admin, err := s.memberships.GetMembershipByUser(ctx, callerID)
		if err != nil {
			return nil, err
		}
		if admin == nil || admin.OrgID != jr.OrgID || admin.Role != membershipdomain.RoleAdmin {
			return nil, ErrNotAllowed
		}
	default:
		return nil, ErrInvalidTransition
	}
	if next == domain.StatusApproved {
		m := &membershipdomain.Membership{
			ID:        uuid.New().String(),
			UserID:    jr.UserID,
			OrgID:     jr.OrgID,
			Role:      membershipdomain.RoleMember,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.memberships.Upsert(ctx, m); err != nil {
			return nil, err
		}
	}
	if err := s.repo.UpdateStatus(ctx, id, next); err != nil {
		return nil, err
	}
	jr.Status = next
	return jr, nil
}

// Delete removes the request. Only the requester may delete their own.
func (s *Service) Delete(ctx context.Context, callerID, id string) error {
	jr, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if jr == nil {
		return ErrRequestNotFound
	}
	if jr.UserID != callerID {
		return ErrNotAllowed
	}
	_, err = s.repo.Delete(ctx, id)
	return err
}
