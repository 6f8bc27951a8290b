// Package domain holds the lead-tracking entities shared by storage,
// scoring, followup and HTTP layers. It has no dependencies on them.
package domain

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// ActivityType classifies a client engagement event.
type ActivityType string

const (
	ActivityPropertyView          ActivityType = "property_view"
	ActivityBookingRequest        ActivityType = "booking_request"
	ActivityOpenHouseRegistration ActivityType = "open_house_registration"
	ActivityReturnVisit           ActivityType = "return_visit"
	ActivityContactAgent          ActivityType = "contact_agent"
)

// ErrUnknownActivityType is returned by ParseActivityType.
var ErrUnknownActivityType = errors.New("unknown activity type")

// ActivityTypes lists every accepted activity type.
var ActivityTypes = []ActivityType{
	ActivityPropertyView,
	ActivityBookingRequest,
	ActivityOpenHouseRegistration,
	ActivityReturnVisit,
	ActivityContactAgent,
}

// Valid reports whether t is one of the known activity types.
func (t ActivityType) Valid() bool {
	return slices.Contains(ActivityTypes, t)
}

// IsUrgent reports whether the activity signals the client wants outreach now.
func (t ActivityType) IsUrgent() bool {
	return t == ActivityContactAgent || t == ActivityBookingRequest
}

// RefersToProperty reports whether the activity counts toward property matching.
func (t ActivityType) RefersToProperty() bool {
	switch t {
	case ActivityPropertyView, ActivityBookingRequest, ActivityReturnVisit:
		return true
	default:
		return false
	}
}

// ParseActivityType converts raw input into an ActivityType.
func ParseActivityType(raw string) (ActivityType, error) {
	t := ActivityType(raw)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownActivityType, raw)
	}
	return t, nil
}

// Activity is one immutable entry of the engagement log.
type Activity struct {
	ID         uuid.UUID
	ClientID   uuid.UUID
	AgentID    uuid.UUID
	Type       ActivityType
	PropertyID *uuid.UUID
	Metadata   map[string]any
	CreatedAt  time.Time
}

// ActivityInput is what callers supply when appending an activity. The
// store assigns ID and CreatedAt.
type ActivityInput struct {
	ClientID   uuid.UUID
	AgentID    uuid.UUID
	Type       ActivityType
	PropertyID *uuid.UUID
	Metadata   map[string]any
}

// Validate checks that the input identifies both parties and has a known type.
func (in ActivityInput) Validate() error {
	if in.ClientID == uuid.Nil {
		return errors.New("clientId is required")
	}
	if in.AgentID == uuid.Nil {
		return errors.New("agentId is required")
	}
	if !in.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownActivityType, string(in.Type))
	}
	return nil
}
