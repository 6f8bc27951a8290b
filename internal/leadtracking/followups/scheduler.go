// Package followups decides when an agent must reach out to a client and
// tracks the resulting tasks until the agent completes them.
package followups

import (
	"context"
	"errors"
	"time"

	"estate_portal_backend/internal/events"
	"estate_portal_backend/internal/leadtracking/domain"
	"estate_portal_backend/internal/leadtracking/repository"
	"estate_portal_backend/platform/apperr"
	"estate_portal_backend/platform/logger"
	"estate_portal_backend/platform/metrics"

	"github.com/google/uuid"
)

const (
	DefaultHotLeadThreshold = 60
	DefaultHotLeadDelay     = 24 * time.Hour
)

// ReminderScheduler arranges a notification at the followup's ScheduledFor.
type ReminderScheduler interface {
	ScheduleFollowupReminder(ctx context.Context, f domain.Followup) error
}

// Config holds the rule constants.
type Config struct {
	// HotLeadThreshold is the total score a lead must reach, from below, to
	// become hot.
	HotLeadThreshold int
	// HotLeadDelay is how long after the crossing the followup is due,
	// before weekend rollover.
	HotLeadDelay time.Duration
}

// EvaluateInput carries the score change caused by one activity. Previous
// is the zero score when the pair had none.
type EvaluateInput struct {
	ClientID uuid.UUID
	AgentID  uuid.UUID
	Previous domain.LeadScore
	New      domain.LeadScore
	Trigger  domain.ActivityType
}

// Scheduler creates and completes followups.
type Scheduler struct {
	store     repository.FollowupStore
	bus       events.Bus
	reminders ReminderScheduler
	metrics   *metrics.Metrics
	log       *logger.Logger
	cfg       Config
	now       func() time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithReminders enqueues a reminder for every followup created.
func WithReminders(r ReminderScheduler) Option {
	return func(s *Scheduler) { s.reminders = r }
}

// WithMetrics records created and completed followups.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New creates a scheduler. Zero config values fall back to the defaults.
func New(store repository.FollowupStore, bus events.Bus, log *logger.Logger, cfg Config, opts ...Option) *Scheduler {
	if cfg.HotLeadThreshold <= 0 {
		cfg.HotLeadThreshold = DefaultHotLeadThreshold
	}
	if cfg.HotLeadDelay <= 0 {
		cfg.HotLeadDelay = DefaultHotLeadDelay
	}
	if log == nil {
		log = logger.Nop()
	}
	s := &Scheduler{
		store: store,
		bus:   bus,
		log:   log,
		cfg:   cfg,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluate creates a followup when the trigger is an urgent signal or the
// score crossed the hot-lead threshold upward. Urgent signals win when both
// apply. It returns nil, nil when no followup is due or one is already
// pending for the pair.
func (s *Scheduler) Evaluate(ctx context.Context, in EvaluateInput) (*domain.Followup, error) {
	reason, due, ok := s.decide(in)
	if !ok {
		return nil, nil
	}

	created, err := s.store.CreatePendingFollowup(ctx, domain.NewFollowup{
		AgentID:      in.AgentID,
		ClientID:     in.ClientID,
		ScheduledFor: due,
		Reason:       reason,
	})
	if errors.Is(err, repository.ErrPendingFollowupExists) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Persistence("could not create followup", err).WithOp("followups.Evaluate")
	}

	s.metrics.RecordFollowupCreated(string(created.Reason))
	s.scheduleReminder(ctx, created)
	if s.bus != nil {
		s.bus.Publish(ctx, events.FollowupCreated{
			BaseEvent:    events.NewBaseEvent(),
			FollowupID:   created.ID,
			ClientID:     created.ClientID,
			AgentID:      created.AgentID,
			Reason:       string(created.Reason),
			ScheduledFor: created.ScheduledFor,
		})
	}
	return &created, nil
}

func (s *Scheduler) decide(in EvaluateInput) (domain.FollowupReason, time.Time, bool) {
	now := s.now()
	if in.Trigger.IsUrgent() {
		return domain.FollowupReason(in.Trigger), now, true
	}
	if crossedUpward(in.Previous.TotalScore, in.New.TotalScore, s.cfg.HotLeadThreshold) {
		return domain.ReasonHotLead, NextBusinessTime(now.Add(s.cfg.HotLeadDelay)), true
	}
	return "", time.Time{}, false
}

func (s *Scheduler) scheduleReminder(ctx context.Context, f domain.Followup) {
	if s.reminders == nil {
		return
	}
	if err := s.reminders.ScheduleFollowupReminder(ctx, f); err != nil {
		s.log.WithContext(ctx).Warn("followup reminder not scheduled", "followupId", f.ID, "error", err)
	}
}

// Complete marks a pending followup of agentID as completed. Unknown ids,
// another agent's followup and already completed followups are all
// reported as not found.
func (s *Scheduler) Complete(ctx context.Context, agentID, followupID uuid.UUID) error {
	completed, err := s.store.CompleteFollowup(ctx, agentID, followupID, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("followup not found or already completed").WithOp("followups.Complete")
	}
	if err != nil {
		return apperr.Persistence("could not complete followup", err).WithOp("followups.Complete")
	}

	s.metrics.RecordFollowupCompleted()
	if s.bus != nil {
		s.bus.Publish(ctx, events.FollowupCompleted{
			BaseEvent:  events.NewBaseEvent(),
			FollowupID: completed.ID,
			AgentID:    completed.AgentID,
		})
	}
	return nil
}

// ListPending returns the agent's pending followups, earliest due first.
func (s *Scheduler) ListPending(ctx context.Context, agentID uuid.UUID) ([]domain.Followup, error) {
	items, err := s.store.ListPendingFollowups(ctx, agentID)
	if err != nil {
		return nil, apperr.Persistence("could not list followups", err).WithOp("followups.ListPending")
	}
	return items, nil
}

// Get returns one followup regardless of status.
func (s *Scheduler) Get(ctx context.Context, followupID uuid.UUID) (domain.Followup, error) {
	f, err := s.store.GetFollowup(ctx, followupID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Followup{}, apperr.NotFound("followup not found").WithOp("followups.Get")
	}
	if err != nil {
		return domain.Followup{}, apperr.Persistence("could not load followup", err).WithOp("followups.Get")
	}
	return f, nil
}

// ListDue returns pending followups of all agents due at or before dueBy.
func (s *Scheduler) ListDue(ctx context.Context, dueBy time.Time) ([]domain.Followup, error) {
	items, err := s.store.ListDueFollowups(ctx, dueBy)
	if err != nil {
		return nil, apperr.Persistence("could not list due followups", err).WithOp("followups.ListDue")
	}
	return items, nil
}

func crossedUpward(previous, current, threshold int) bool {
	return previous < threshold && current >= threshold
}

// NextBusinessTime moves t to the following Monday, keeping the clock time,
// when it falls on a Saturday or Sunday.
func NextBusinessTime(t time.Time) time.Time {
	switch t.Weekday() {
	case time.Saturday:
		return t.AddDate(0, 0, 2)
	case time.Sunday:
		return t.AddDate(0, 0, 1)
	default:
		return t
	}
}
