package domain

import (
	"time"

	"github.com/google/uuid"
)

// LeadScore is the derived readiness ranking of a client for one agent.
// TotalScore always equals the sum of the three components.
type LeadScore struct {
	ID                    uuid.UUID
	ClientID              uuid.UUID
	AgentID               uuid.UUID
	TotalScore            int
	PrequalificationScore int
	PropertyMatchScore    int
	EngagementScore       int
	LastCalculatedAt      time.Time
}

// ClientProfile carries the prequalification facts and area preferences
// owned by the profile store.
type ClientProfile struct {
	ClientID         uuid.UUID
	Prequalified     bool
	PrequalAmount    *float64
	PrequalLender    *string
	PrequalExpiresOn *time.Time
	PreferredAreas   []string
}

// PrequalValidAt reports whether the prequalification is still in force at now.
// The expiry date is the first instant the letter no longer applies; a
// missing expiry never lapses.
func (p ClientProfile) PrequalValidAt(now time.Time) bool {
	if !p.Prequalified {
		return false
	}
	if p.PrequalExpiresOn == nil {
		return true
	}
	return now.Before(*p.PrequalExpiresOn)
}

// HasLenderDetails reports whether both an amount and a lender are on file.
func (p ClientProfile) HasLenderDetails() bool {
	return p.PrequalAmount != nil && *p.PrequalAmount > 0 &&
		p.PrequalLender != nil && *p.PrequalLender != ""
}

// Property is the slice of a listing that scoring needs.
type Property struct {
	ID   uuid.UUID
	City string
}
