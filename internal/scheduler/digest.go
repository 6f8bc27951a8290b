package scheduler

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"estate_portal_backend/internal/email"
	"estate_portal_backend/internal/leadtracking/domain"
	"estate_portal_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// DueLister lists pending followups of every agent due by a given time.
type DueLister interface {
	ListDue(ctx context.Context, dueBy time.Time) ([]domain.Followup, error)
}

// DigestNotifier mails one agent their due followups.
type DigestNotifier interface {
	SendDigest(ctx context.Context, agentID uuid.UUID, items []email.DigestItem) error
}

// Digest mails every agent with due followups a summary on a cron schedule.
type Digest struct {
	schedule string
	due      DueLister
	notifier DigestNotifier
	log      *logger.Logger
	now      func() time.Time
}

// NewDigest validates schedule as a standard five-field cron expression.
func NewDigest(schedule string, due DueLister, notifier DigestNotifier, log *logger.Logger) (*Digest, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid digest schedule %q: %w", schedule, err)
	}
	return &Digest{
		schedule: schedule,
		due:      due,
		notifier: notifier,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Run blocks until ctx is cancelled, sending the digest on schedule.
func (d *Digest) Run(ctx context.Context) {
	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(d.schedule, func() {
		if err := d.RunOnce(ctx); err != nil {
			d.log.Warn("followup digest incomplete", "error", err)
		}
	}); err != nil {
		d.log.Error("followup digest not scheduled", "error", err)
		return
	}
	c.Start()
	d.log.Info("followup digest scheduled", "schedule", d.schedule)

	<-ctx.Done()
	<-c.Stop().Done()
}

// RunOnce sends one digest per agent with followups due now. Per-agent
// failures are collected and do not stop the remaining agents.
func (d *Digest) RunOnce(ctx context.Context) error {
	due, err := d.due.ListDue(ctx, d.now())
	if err != nil {
		return err
	}

	byAgent := make(map[uuid.UUID][]email.DigestItem)
	for _, f := range due {
		byAgent[f.AgentID] = append(byAgent[f.AgentID], email.DigestItem{
			ClientID:     f.ClientID.String(),
			Reason:       string(f.Reason),
			ScheduledFor: f.ScheduledFor,
		})
	}

	agents := make([]uuid.UUID, 0, len(byAgent))
	for id := range byAgent {
		agents = append(agents, id)
	}
	slices.SortFunc(agents, func(a, b uuid.UUID) int { return cmp.Compare(a.String(), b.String()) })

	var errs []error
	for _, agentID := range agents {
		if err := d.notifier.SendDigest(ctx, agentID, byAgent[agentID]); err != nil {
			errs = append(errs, fmt.Errorf("agent %s: %w", agentID, err))
		}
	}
	if len(agents) > 0 {
		d.log.Info("followup digest sent", "agents", len(agents), "followups", len(due), "failed", len(errs))
	}
	return errors.Join(errs...)
}
