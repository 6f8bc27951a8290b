// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"estate_portal_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Lead Tracking Domain Events
// =============================================================================

// ActivityTracked is published after an activity has been appended to the log.
type ActivityTracked struct {
	BaseEvent
	ActivityID   uuid.UUID  `json:"activityId"`
	ClientID     uuid.UUID  `json:"clientId"`
	AgentID      uuid.UUID  `json:"agentId"`
	ActivityType string     `json:"activityType"`
	PropertyID   *uuid.UUID `json:"propertyId,omitempty"`
}

func (e ActivityTracked) EventName() string { return "leadtracking.activity.tracked" }

// LeadScoreUpdated is published after a score has been recomputed and stored.
type LeadScoreUpdated struct {
	BaseEvent
	ClientID      uuid.UUID `json:"clientId"`
	AgentID       uuid.UUID `json:"agentId"`
	PreviousTotal int       `json:"previousTotal"`
	TotalScore    int       `json:"totalScore"`
}

func (e LeadScoreUpdated) EventName() string { return "leadtracking.score.updated" }

// FollowupCreated is published when the scheduler creates a pending followup.
type FollowupCreated struct {
	BaseEvent
	FollowupID   uuid.UUID `json:"followupId"`
	ClientID     uuid.UUID `json:"clientId"`
	AgentID      uuid.UUID `json:"agentId"`
	Reason       string    `json:"reason"`
	ScheduledFor time.Time `json:"scheduledFor"`
}

func (e FollowupCreated) EventName() string { return "leadtracking.followup.created" }

// FollowupCompleted is published when an agent completes a followup.
type FollowupCompleted struct {
	BaseEvent
	FollowupID uuid.UUID `json:"followupId"`
	AgentID    uuid.UUID `json:"agentId"`
}

func (e FollowupCompleted) EventName() string { return "leadtracking.followup.completed" }

// FollowupDue is published by the reminder worker when a still-pending
// followup reaches its scheduled time.
type FollowupDue struct {
	BaseEvent
	FollowupID   uuid.UUID `json:"followupId"`
	ClientID     uuid.UUID `json:"clientId"`
	AgentID      uuid.UUID `json:"agentId"`
	Reason       string    `json:"reason"`
	ScheduledFor time.Time `json:"scheduledFor"`
}

func (e FollowupDue) EventName() string { return "leadtracking.followup.due" }

// =============================================================================
// Open House Domain Events
// =============================================================================

// OpenHouseLeadRegistered is published when a visitor registers at an open house.
type OpenHouseLeadRegistered struct {
	BaseEvent
	LeadID      uuid.UUID  `json:"leadId"`
	OpenHouseID uuid.UUID  `json:"openHouseId"`
	AgentID     uuid.UUID  `json:"agentId"`
	ClientID    *uuid.UUID `json:"clientId,omitempty"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
}

func (e OpenHouseLeadRegistered) EventName() string { return "openhouse.lead.registered" }
