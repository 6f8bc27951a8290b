package transport

import (
	"time"

	"estate_portal_backend/internal/leadtracking/domain"
	"estate_portal_backend/platform/validator"

	playground "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ActivityTypeTag validates that a string names a known activity type.
const ActivityTypeTag = "activity_type"

// RegisterValidations adds the lead-tracking rules to val.
func RegisterValidations(val *validator.Validator) error {
	return val.RegisterValidation(ActivityTypeTag, func(fl playground.FieldLevel) bool {
		return domain.ActivityType(fl.Field().String()).Valid()
	})
}

type TrackActivityRequest struct {
	ClientID     uuid.UUID      `json:"clientId" validate:"required"`
	AgentID      uuid.UUID      `json:"agentId" validate:"required"`
	ActivityType string         `json:"activityType" validate:"required,activity_type"`
	PropertyID   *uuid.UUID     `json:"propertyId,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

type ListActivitiesRequest struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=200"`
}

// RecomputeRequest optionally names the recorded activity whose processing
// failed.
type RecomputeRequest struct {
	ActivityID string `form:"activityId" validate:"omitempty,uuid"`
}

type ActivityResponse struct {
	ID           uuid.UUID      `json:"id"`
	ClientID     uuid.UUID      `json:"clientId"`
	AgentID      uuid.UUID      `json:"agentId"`
	ActivityType string         `json:"activityType"`
	PropertyID   *uuid.UUID     `json:"propertyId,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
}

type LeadScoreResponse struct {
	ID                    uuid.UUID `json:"id"`
	ClientID              uuid.UUID `json:"clientId"`
	AgentID               uuid.UUID `json:"agentId"`
	TotalScore            int       `json:"totalScore"`
	PrequalificationScore int       `json:"prequalificationScore"`
	PropertyMatchScore    int       `json:"propertyMatchScore"`
	EngagementScore       int       `json:"engagementScore"`
	LastCalculatedAt      time.Time `json:"lastCalculatedAt"`
}

type FollowupResponse struct {
	ID           uuid.UUID  `json:"id"`
	AgentID      uuid.UUID  `json:"agentId"`
	ClientID     uuid.UUID  `json:"clientId"`
	ScheduledFor time.Time  `json:"scheduledFor"`
	Reason       string     `json:"reason"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

type TrackActivityResponse struct {
	Activity ActivityResponse  `json:"activity"`
	Score    LeadScoreResponse `json:"score"`
	Followup *FollowupResponse `json:"followup,omitempty"`
}

type RecomputeResponse struct {
	Score    LeadScoreResponse `json:"score"`
	Followup *FollowupResponse `json:"followup,omitempty"`
}

type ListActivitiesResponse struct {
	Items []ActivityResponse `json:"items"`
}

type ListLeadScoresResponse struct {
	Items []LeadScoreResponse `json:"items"`
}

type ListFollowupsResponse struct {
	Items []FollowupResponse `json:"items"`
}

func ToActivityResponse(a domain.Activity) ActivityResponse {
	return ActivityResponse{
		ID:           a.ID,
		ClientID:     a.ClientID,
		AgentID:      a.AgentID,
		ActivityType: string(a.Type),
		PropertyID:   a.PropertyID,
		Metadata:     a.Metadata,
		CreatedAt:    a.CreatedAt,
	}
}

func ToLeadScoreResponse(s domain.LeadScore) LeadScoreResponse {
	return LeadScoreResponse(s)
}

func ToFollowupResponse(f domain.Followup) FollowupResponse {
	return FollowupResponse{
		ID:           f.ID,
		AgentID:      f.AgentID,
		ClientID:     f.ClientID,
		ScheduledFor: f.ScheduledFor,
		Reason:       string(f.Reason),
		Status:       string(f.Status),
		CreatedAt:    f.CreatedAt,
		CompletedAt:  f.CompletedAt,
	}
}

// ToFollowupResponsePtr maps an optional followup.
func ToFollowupResponsePtr(f *domain.Followup) *FollowupResponse {
	if f == nil {
		return nil
	}
	out := ToFollowupResponse(*f)
	return &out
}
