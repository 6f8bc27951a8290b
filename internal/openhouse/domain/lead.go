// Package domain holds the open-house lead registry types.
package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// FollowUpStatus tracks how far the agent got with a registered visitor.
type FollowUpStatus string

const (
	StatusPending       FollowUpStatus = "pending"
	StatusContacted     FollowUpStatus = "contacted"
	StatusNotInterested FollowUpStatus = "not-interested"
)

// ErrUnknownStatus is returned by ParseFollowUpStatus.
var ErrUnknownStatus = errors.New("unknown follow-up status")

func (s FollowUpStatus) Valid() bool {
	switch s {
	case StatusPending, StatusContacted, StatusNotInterested:
		return true
	}
	return false
}

func ParseFollowUpStatus(raw string) (FollowUpStatus, error) {
	s := FollowUpStatus(raw)
	if !s.Valid() {
		return "", ErrUnknownStatus
	}
	return s, nil
}

// OpenHouse is the read-only slice of a listing's open house this registry
// needs: who hosts it and which property it shows.
type OpenHouse struct {
	ID         uuid.UUID
	AgentID    uuid.UUID
	PropertyID uuid.UUID
}

// Lead is one visitor registration.
type Lead struct {
	ID                  uuid.UUID
	OpenHouseID         uuid.UUID
	ClientID            *uuid.UUID
	Name                string
	Email               string
	Phone               string
	Notes               *string
	InterestedInSimilar bool
	Prequalified        *bool
	RegistrationDate    time.Time
	FollowUpStatus      FollowUpStatus
}

// NewLead is a sanitized registration ready to store.
type NewLead struct {
	OpenHouseID         uuid.UUID
	ClientID            *uuid.UUID
	Name                string
	Email               string
	Phone               string
	Notes               *string
	InterestedInSimilar bool
	Prequalified        *bool
}
