// Package scoring turns a client's activity history and prequalification
// facts into a LeadScore for one agent.
package scoring

import (
	"context"
	"errors"
	"slices"
	"time"

	"estate_portal_backend/internal/leadtracking/domain"
	"estate_portal_backend/internal/leadtracking/repository"
	"estate_portal_backend/platform/apperr"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Engine recomputes and persists lead scores. It always reads the full
// activity log and replaces the stored row; it never adjusts a stored score.
type Engine struct {
	inputs  repository.ScoringInputs
	scores  repository.ScoreStore
	weights Weights
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithWeights replaces DefaultWeights.
func WithWeights(w Weights) Option {
	return func(e *Engine) { e.weights = w }
}

// WithClock sets the time source used for expiry checks and LastCalculatedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an engine reading from inputs and writing to scores.
func NewEngine(inputs repository.ScoringInputs, scores repository.ScoreStore, opts ...Option) *Engine {
	e := &Engine{
		inputs:  inputs,
		scores:  scores,
		weights: DefaultWeights(),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Weights returns the constants in use.
func (e *Engine) Weights() Weights {
	return e.weights
}

// ComputeScore recomputes the (client, agent) score and upserts it.
// Input read failures return a score computation error and persist nothing;
// a failed upsert returns a persistence error.
func (e *Engine) ComputeScore(ctx context.Context, clientID, agentID uuid.UUID) (domain.LeadScore, error) {
	in, err := e.loadInputs(ctx, clientID, agentID)
	if err != nil {
		return domain.LeadScore{}, apperr.ScoreComputation("could not read scoring inputs", err).WithOp("scoring.ComputeScore")
	}

	now := e.now()
	b := Compute(in, e.weights, now)

	stored, err := e.scores.UpsertScore(ctx, domain.LeadScore{
		ClientID:              clientID,
		AgentID:               agentID,
		TotalScore:            b.Total(),
		PrequalificationScore: b.Prequalification,
		PropertyMatchScore:    b.PropertyMatch,
		EngagementScore:       b.Engagement,
		LastCalculatedAt:      now,
	})
	if err != nil {
		return domain.LeadScore{}, apperr.Persistence("could not store lead score", err).WithOp("scoring.ComputeScore")
	}
	return stored, nil
}

// ScoreBefore scores the pair from the log as it stood just before
// activityID was appended and returns that activity. Nothing is persisted.
// An activity outside the pair's log is a not found error.
func (e *Engine) ScoreBefore(ctx context.Context, clientID, agentID, activityID uuid.UUID) (domain.LeadScore, domain.Activity, error) {
	in, err := e.loadInputs(ctx, clientID, agentID)
	if err != nil {
		return domain.LeadScore{}, domain.Activity{}, apperr.ScoreComputation("could not read scoring inputs", err).WithOp("scoring.ScoreBefore")
	}

	// the log is newest first, so everything older follows the activity
	idx := slices.IndexFunc(in.Activities, func(a domain.Activity) bool { return a.ID == activityID })
	if idx < 0 {
		return domain.LeadScore{}, domain.Activity{}, apperr.NotFound("activity not found for this lead").WithOp("scoring.ScoreBefore")
	}
	activity := in.Activities[idx]
	in.Activities = in.Activities[idx+1:]

	now := e.now()
	b := Compute(in, e.weights, now)
	return domain.LeadScore{
		ClientID:              clientID,
		AgentID:               agentID,
		TotalScore:            b.Total(),
		PrequalificationScore: b.Prequalification,
		PropertyMatchScore:    b.PropertyMatch,
		EngagementScore:       b.Engagement,
		LastCalculatedAt:      now,
	}, activity, nil
}

// loadInputs reads history and profile concurrently, then resolves the
// listings the history refers to. A missing profile is not an error.
func (e *Engine) loadInputs(ctx context.Context, clientID, agentID uuid.UUID) (Inputs, error) {
	var in Inputs

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		activities, err := e.inputs.ListForPair(gctx, clientID, agentID)
		if err != nil {
			return err
		}
		in.Activities = activities
		return nil
	})
	g.Go(func() error {
		profile, err := e.inputs.GetClientProfile(gctx, clientID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		in.Profile = &profile
		return nil
	})
	if err := g.Wait(); err != nil {
		return Inputs{}, err
	}

	ids := propertyIDs(in.Activities)
	if len(ids) == 0 || in.Profile == nil || len(in.Profile.PreferredAreas) == 0 {
		return in, nil
	}
	properties, err := e.inputs.GetProperties(ctx, ids)
	if err != nil {
		return Inputs{}, err
	}
	in.Properties = properties
	return in, nil
}
