// Package domain holds the listing entities: donations offered by an org and
// requests for goods an org needs.
package domain

import (
	"errors"
	"time"
)

// Trait tags a listing with the kind of goods involved.
type Trait int

const (
	TraitCans       Trait = 0
	TraitPerishable Trait = 1
)

// ParseTrait validates a trait literal.
func ParseTrait(n int) (Trait, bool) {
	switch Trait(n) {
	case TraitCans, TraitPerishable:
		return Trait(n), true
	}
	return 0, false
}

// DedupeTraits drops repeated trait values, preserving first-seen order.
func DedupeTraits(traits []Trait) []Trait {
	seen := make(map[Trait]bool, len(traits))
	out := make([]Trait, 0, len(traits))
	for _, t := range traits {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// Donation is goods an organization offers to give away.
// DeactivatedAt nil means the listing is active.
type Donation struct {
	ID             string
	OrgID          string
	Description    string
	Picture        string
	ExpirationDate *time.Time
	Traits         []Trait
	CreatedAt      time.Time
	DeactivatedAt  *time.Time
}

// Active reports whether the donation is still listed.
func (d *Donation) Active() bool {
	return d.DeactivatedAt == nil
}

// Validate validates the donation for persistence.
func (d *Donation) Validate() error {
	if d.OrgID == "" {
		return errors.New("organization is required")
	}
	if d.Picture == "" {
		return errors.New("picture is required")
	}
	return nil
}

// Request is goods an organization asks for.
// DeactivatedAt nil means the listing is active.
type Request struct {
	ID            string
	OrgID         string
	Description   string
	Traits        []Trait
	CreatedAt     time.Time
	DeactivatedAt *time.Time
}

// Active reports whether the request is still listed.
func (r *Request) Active() bool {
	return r.DeactivatedAt == nil
}

// Validate validates the request for persistence.
func (r *Request) Validate() error {
	if r.OrgID == "" {
		return errors.New("organization is required")
	}
	return nil
}
