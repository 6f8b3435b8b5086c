// Package domain holds the org application entity: a user asking for a new
// organization to be created on their behalf.
package domain

import (
	"errors"
	"time"
)

// OrgApplication is a user's request to found a new organization.
type OrgApplication struct {
	ID        string
	UserID    string
	Name      string
	Address   string
	Phone     string
	Email     string
	URL       string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Status is the application workflow state. Pending is the only state that
// allows a transition; the rest are terminal.
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

// Validate validates the application for persistence.
func (a *OrgApplication) Validate() error {
	if a.UserID == "" {
		return errors.New("user is required")
	}
	if a.Name == "" {
		return errors.New("name is required")
	}
	if a.Status == "" {
		a.Status = StatusPending
	}
	return nil
}
