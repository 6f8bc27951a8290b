package repository

import (
	"context"
	"errors"
	"iter"
	"time"

	"estate_portal_backend/internal/leadtracking/domain"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidReference is returned when a write names an unknown agent or client.
	ErrInvalidReference = errors.New("invalid agent or client reference")
	// ErrPendingFollowupExists is returned when the pair already has a pending followup.
	ErrPendingFollowupExists = errors.New("pending followup already exists")
)

// =====================================
// Segregated Interfaces
// =====================================

// ActivityStore is the append-only engagement log.
type ActivityStore interface {
	Append(ctx context.Context, in domain.ActivityInput) (domain.Activity, error)
	// ListForAgent yields the agent's activities, most recent first. Each
	// range over the returned sequence runs a fresh query.
	ListForAgent(ctx context.Context, agentID uuid.UUID) iter.Seq2[domain.Activity, error]
	ListForPair(ctx context.Context, clientID, agentID uuid.UUID) ([]domain.Activity, error)
}

// ScoreStore persists one LeadScore per (client, agent) pair.
type ScoreStore interface {
	UpsertScore(ctx context.Context, score domain.LeadScore) (domain.LeadScore, error)
	GetScore(ctx context.Context, clientID, agentID uuid.UUID) (domain.LeadScore, error)
	ListScoresForAgent(ctx context.Context, agentID uuid.UUID) ([]domain.LeadScore, error)
}

// FollowupStore persists followups and enforces one pending row per pair.
type FollowupStore interface {
	CreatePendingFollowup(ctx context.Context, in domain.NewFollowup) (domain.Followup, error)
	// CompleteFollowup moves a pending followup owned by agentID to completed.
	// It returns ErrNotFound for unknown, foreign or already completed ids.
	CompleteFollowup(ctx context.Context, agentID, followupID uuid.UUID, completedAt time.Time) (domain.Followup, error)
	GetFollowup(ctx context.Context, followupID uuid.UUID) (domain.Followup, error)
	ListPendingFollowups(ctx context.Context, agentID uuid.UUID) ([]domain.Followup, error)
	// ListDueFollowups returns pending followups of every agent scheduled at or before dueBy.
	ListDueFollowups(ctx context.Context, dueBy time.Time) ([]domain.Followup, error)
}

// ProfileReader reads prequalification facts from the profile store.
// It returns ErrNotFound when the client has no profile.
type ProfileReader interface {
	GetClientProfile(ctx context.Context, clientID uuid.UUID) (domain.ClientProfile, error)
}

// PropertyReader resolves listings referenced by activities. Unknown ids
// are omitted from the result.
type PropertyReader interface {
	GetProperties(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Property, error)
}

// AgentContact is the addressing information used for agent notifications.
type AgentContact struct {
	ID    uuid.UUID
	Name  string
	Email string
}

// AgentDirectory reads agent contact details.
type AgentDirectory interface {
	GetAgentContact(ctx context.Context, agentID uuid.UUID) (AgentContact, error)
}

// ScoringInputs is everything the scoring engine reads.
type ScoringInputs interface {
	ActivityStore
	ProfileReader
	PropertyReader
}

// LeadTrackingRepository is the full storage surface of the module.
type LeadTrackingRepository interface {
	ActivityStore
	ScoreStore
	FollowupStore
	ProfileReader
	PropertyReader
	AgentDirectory
}
