package domain

import (
	"errors"
	"time"
)

// Org represents an organization coordinating donations.
type Org struct {
	ID        string
	Name      string
	Address   string
	Email     string
	Phone     string
	URL       string
	Status    OrgStatus
	CreatedAt time.Time
}

type OrgStatus string

const (
	OrgStatusActive   OrgStatus = "active"
	OrgStatusInactive OrgStatus = "inactive"
)

// Validate validates the organization for persistence. Returns an error describing the first validation failure.
func (o *Org) Validate() error {
	if o.Name == "" {
		return errors.New("name is required")
	}
	if o.Status == "" {
		o.Status = OrgStatusActive
	}
	return nil
}
