package domain

import "time"

// AuditLog is one recorded platform event: who did what to which resource.
// Action is dotted entity.verb ("organization.create", "donation.deactivate",
// "joinrequest.approved"); Resource is "entity:id". Metadata is free-form JSON
// and may be empty.
type AuditLog struct {
	ID        string
	OrgID     string
	UserID    string
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
