// Package service exposes lead tracking to the HTTP layer: it records
// activities, keeps scores current and surfaces followups to agents.
package service

import (
	"context"
	"errors"
	"time"

	"estate_portal_backend/internal/events"
	"estate_portal_backend/internal/leadtracking/domain"
	"estate_portal_backend/internal/leadtracking/followups"
	"estate_portal_backend/internal/leadtracking/repository"
	"estate_portal_backend/platform/apperr"
	"estate_portal_backend/platform/logger"
	"estate_portal_backend/platform/metrics"

	"github.com/google/uuid"
)

const (
	DefaultActivityLimit = 50
	MaxActivityLimit     = 200
)

// ScoreComputer recomputes and persists the score of a pair. ScoreBefore
// rebuilds the score the pair had just before one of its activities.
type ScoreComputer interface {
	ComputeScore(ctx context.Context, clientID, agentID uuid.UUID) (domain.LeadScore, error)
	ScoreBefore(ctx context.Context, clientID, agentID, activityID uuid.UUID) (domain.LeadScore, domain.Activity, error)
}

// FollowupManager is the followup surface the tracker drives.
type FollowupManager interface {
	Evaluate(ctx context.Context, in followups.EvaluateInput) (*domain.Followup, error)
	Complete(ctx context.Context, agentID, followupID uuid.UUID) error
	ListPending(ctx context.Context, agentID uuid.UUID) ([]domain.Followup, error)
}

// ScoreCache holds recently computed scores.
type ScoreCache interface {
	Get(ctx context.Context, clientID, agentID uuid.UUID) (domain.LeadScore, bool)
	Set(ctx context.Context, score domain.LeadScore)
}

// Store is the storage the tracker reads and appends to directly.
type Store interface {
	repository.ActivityStore
	repository.ScoreStore
}

// Deps groups the tracker's collaborators. Cache, Bus and Metrics are optional.
type Deps struct {
	Store     Store
	Scorer    ScoreComputer
	Followups FollowupManager
	Cache     ScoreCache
	Bus       events.Bus
	Metrics   *metrics.Metrics
	Log       *logger.Logger
}

// Tracker orchestrates append, recompute and followup evaluation.
type Tracker struct {
	store     Store
	scorer    ScoreComputer
	followups FollowupManager
	cache     ScoreCache
	bus       events.Bus
	metrics   *metrics.Metrics
	log       *logger.Logger
}

// New creates a Tracker.
func New(d Deps) *Tracker {
	if d.Cache == nil {
		d.Cache = noopCache{}
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	return &Tracker{
		store:     d.Store,
		scorer:    d.Scorer,
		followups: d.Followups,
		cache:     d.Cache,
		bus:       d.Bus,
		metrics:   d.Metrics,
		log:       d.Log,
	}
}

// TrackActivityInput is one client engagement event to record.
type TrackActivityInput struct {
	ClientID   uuid.UUID
	AgentID    uuid.UUID
	Type       domain.ActivityType
	PropertyID *uuid.UUID
	Metadata   map[string]any
}

// TrackResult is what TrackActivity achieved. When an error is returned
// alongside a non-nil Activity, the activity is recorded and only the
// downstream steps failed; RecomputeScore is the retry path.
type TrackResult struct {
	Activity *domain.Activity
	Score    *domain.LeadScore
	Followup *domain.Followup
}

// TrackActivity appends the activity, recomputes the pair's score and
// evaluates whether a followup is due.
func (t *Tracker) TrackActivity(ctx context.Context, in TrackActivityInput) (TrackResult, error) {
	activityIn := domain.ActivityInput{
		ClientID:   in.ClientID,
		AgentID:    in.AgentID,
		Type:       in.Type,
		PropertyID: in.PropertyID,
		Metadata:   in.Metadata,
	}
	if err := activityIn.Validate(); err != nil {
		return TrackResult{}, apperr.Wrap(apperr.KindValidation, err.Error(), err).WithOp("tracker.TrackActivity")
	}

	previous, err := t.previousScore(ctx, in.ClientID, in.AgentID)
	if err != nil {
		return TrackResult{}, err
	}

	activity, err := t.store.Append(ctx, activityIn)
	if err != nil {
		msg := "could not record activity"
		if errors.Is(err, repository.ErrInvalidReference) {
			msg = "agent or client does not exist"
		}
		return TrackResult{}, apperr.Persistence(msg, err).WithOp("tracker.TrackActivity")
	}
	result := TrackResult{Activity: &activity}

	t.metrics.RecordActivity(string(activity.Type))
	t.publish(ctx, events.ActivityTracked{
		BaseEvent:    events.NewBaseEvent(),
		ActivityID:   activity.ID,
		ClientID:     activity.ClientID,
		AgentID:      activity.AgentID,
		ActivityType: string(activity.Type),
		PropertyID:   activity.PropertyID,
	})

	score, err := t.compute(ctx, in.ClientID, in.AgentID, previous.TotalScore)
	if err != nil {
		return result, markRecorded(err, activity.ID)
	}
	result.Score = &score

	followup, err := t.followups.Evaluate(ctx, followups.EvaluateInput{
		ClientID: in.ClientID,
		AgentID:  in.AgentID,
		Previous: previous,
		New:      score,
		Trigger:  activity.Type,
	})
	if err != nil {
		return result, markRecorded(err, activity.ID)
	}
	result.Followup = followup

	return result, nil
}

// RecomputeInput names the pair to refresh. ActivityID is the recorded
// activity whose processing failed, as reported in the error details of
// TrackActivity.
type RecomputeInput struct {
	ClientID   uuid.UUID
	AgentID    uuid.UUID
	ActivityID *uuid.UUID
}

// RecomputeScore refreshes a pair's score from the full log, for callers
// retrying after a downstream failure. With an ActivityID the followup rules
// run as they would have for that activity: it is the trigger and the score
// before it is the baseline. Without one only a crossing since the stored
// score is evaluated. The followup returned is nil when none was created.
func (t *Tracker) RecomputeScore(ctx context.Context, in RecomputeInput) (domain.LeadScore, *domain.Followup, error) {
	previous, err := t.previousScore(ctx, in.ClientID, in.AgentID)
	if err != nil {
		return domain.LeadScore{}, nil, err
	}

	var trigger domain.ActivityType
	if in.ActivityID != nil {
		baseline, activity, err := t.scorer.ScoreBefore(ctx, in.ClientID, in.AgentID, *in.ActivityID)
		if err != nil {
			return domain.LeadScore{}, nil, err
		}
		previous = baseline
		trigger = activity.Type
	}

	score, err := t.compute(ctx, in.ClientID, in.AgentID, previous.TotalScore)
	if err != nil {
		return domain.LeadScore{}, nil, err
	}

	followup, err := t.followups.Evaluate(ctx, followups.EvaluateInput{
		ClientID: in.ClientID,
		AgentID:  in.AgentID,
		Previous: previous,
		New:      score,
		Trigger:  trigger,
	})
	if err != nil {
		return score, nil, err
	}
	return score, followup, nil
}

// GetFollowups returns the agent's pending followups, earliest due first.
func (t *Tracker) GetFollowups(ctx context.Context, agentID uuid.UUID) ([]domain.Followup, error) {
	return t.followups.ListPending(ctx, agentID)
}

// CompleteFollowup completes one of the agent's pending followups.
func (t *Tracker) CompleteFollowup(ctx context.Context, agentID, followupID uuid.UUID) error {
	return t.followups.Complete(ctx, agentID, followupID)
}

// GetLeadScore returns the pair's stored score, preferring the cache.
func (t *Tracker) GetLeadScore(ctx context.Context, clientID, agentID uuid.UUID) (domain.LeadScore, error) {
	if score, ok := t.cache.Get(ctx, clientID, agentID); ok {
		return score, nil
	}

	score, err := t.store.GetScore(ctx, clientID, agentID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.LeadScore{}, apperr.NotFound("lead score not found").WithOp("tracker.GetLeadScore")
	}
	if err != nil {
		return domain.LeadScore{}, apperr.Persistence("could not load lead score", err).WithOp("tracker.GetLeadScore")
	}
	t.cache.Set(ctx, score)
	return score, nil
}

// ListLeadScores ranks the agent's clients by total score, highest first.
func (t *Tracker) ListLeadScores(ctx context.Context, agentID uuid.UUID) ([]domain.LeadScore, error) {
	scores, err := t.store.ListScoresForAgent(ctx, agentID)
	if err != nil {
		return nil, apperr.Persistence("could not list lead scores", err).WithOp("tracker.ListLeadScores")
	}
	return scores, nil
}

// ListActivities returns up to limit of the agent's most recent activities.
func (t *Tracker) ListActivities(ctx context.Context, agentID uuid.UUID, limit int) ([]domain.Activity, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	limit = min(limit, MaxActivityLimit)

	out := make([]domain.Activity, 0, limit)
	for activity, err := range t.store.ListForAgent(ctx, agentID) {
		if err != nil {
			return nil, apperr.Persistence("could not list activities", err).WithOp("tracker.ListActivities")
		}
		out = append(out, activity)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (t *Tracker) previousScore(ctx context.Context, clientID, agentID uuid.UUID) (domain.LeadScore, error) {
	score, err := t.store.GetScore(ctx, clientID, agentID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.LeadScore{ClientID: clientID, AgentID: agentID}, nil
	}
	if err != nil {
		return domain.LeadScore{}, apperr.Persistence("could not read current lead score", err).WithOp("tracker.previousScore")
	}
	return score, nil
}

func (t *Tracker) compute(ctx context.Context, clientID, agentID uuid.UUID, previousTotal int) (domain.LeadScore, error) {
	start := time.Now()
	score, err := t.scorer.ComputeScore(ctx, clientID, agentID)
	t.metrics.RecordScoreComputation(err, time.Since(start))
	if err != nil {
		return domain.LeadScore{}, err
	}

	t.cache.Set(ctx, score)
	t.publish(ctx, events.LeadScoreUpdated{
		BaseEvent:     events.NewBaseEvent(),
		ClientID:      clientID,
		AgentID:       agentID,
		PreviousTotal: previousTotal,
		TotalScore:    score.TotalScore,
	})
	return score, nil
}

func (t *Tracker) publish(ctx context.Context, e events.Event) {
	if t.bus != nil {
		t.bus.Publish(ctx, e)
	}
}

// markRecorded tags a downstream failure so callers can tell the activity
// itself was stored.
func markRecorded(err error, activityID uuid.UUID) error {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		appErr = apperr.Wrap(apperr.KindInternal, "activity recorded but processing failed", err)
	}
	return appErr.
		WithDetail("activityId", activityID.String()).
		WithDetail("recorded", true)
}

type noopCache struct{}

func (noopCache) Get(context.Context, uuid.UUID, uuid.UUID) (domain.LeadScore, bool) {
	return domain.LeadScore{}, false
}

func (noopCache) Set(context.Context, domain.LeadScore) {}
