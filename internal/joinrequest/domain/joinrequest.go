// Package domain holds the join request entity: a user asking to become a
// member of an existing organization.
package domain

import (
	"errors"
	"time"
)

// JoinRequest is a user's request to join an organization.
type JoinRequest struct {
	ID        string
	UserID    string
	OrgID     string
	Note      string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Status is the join request workflow state. Pending is the only state that
// allows a transition.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusDenied    Status = "denied"
	StatusWithdrawn Status = "withdrawn"
)

// ParseStatus validates a status literal from a query or body.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusDenied, StatusWithdrawn:
		return Status(s), true
	}
	return "", false
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s != StatusPending
}

// CanTransitionTo reports whether the workflow allows moving to next.
func (s Status) CanTransitionTo(next Status) bool {
	if s.Terminal() {
		return false
	}
	switch next {
	case StatusApproved, StatusDenied, StatusWithdrawn:
		return true
	}
	return false
}

// Validate validates the join request for persistence.
func (j *JoinRequest) Validate() error {
	if j.UserID == "" {
		return errors.New("user is required")
	}
	if j.OrgID == "" {
		return errors.New("organization is required")
	}
	if j.Status == "" {
		j.Status = StatusPending
	}
	return nil
}
