package domain

import (
	"time"

	"github.com/google/uuid"
)

// FollowupStatus is the lifecycle state of a Followup.
type FollowupStatus string

const (
	FollowupPending   FollowupStatus = "pending"
	FollowupCompleted FollowupStatus = "completed"
)

// FollowupReason records why a followup was scheduled.
type FollowupReason string

const (
	ReasonContactAgent   FollowupReason = FollowupReason(ActivityContactAgent)
	ReasonBookingRequest FollowupReason = FollowupReason(ActivityBookingRequest)
	ReasonHotLead        FollowupReason = "hot_lead"
)

// Followup is an outreach task for an agent. It only leaves pending through
// an explicit completion.
type Followup struct {
	ID           uuid.UUID
	AgentID      uuid.UUID
	ClientID     uuid.UUID
	ScheduledFor time.Time
	Reason       FollowupReason
	Status       FollowupStatus
	CreatedAt    time.Time
	CompletedAt  *time.Time
}

// NewFollowup is the insert shape for a pending followup.
type NewFollowup struct {
	AgentID      uuid.UUID
	ClientID     uuid.UUID
	ScheduledFor time.Time
	Reason       FollowupReason
}
