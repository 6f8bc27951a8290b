package followups

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"estate_portal_backend/internal/events"
	"estate_portal_backend/internal/leadtracking/domain"
	"estate_portal_backend/internal/leadtracking/memstore"
	"estate_portal_backend/internal/leadtracking/repository"
	"estate_portal_backend/platform/apperr"
	"estate_portal_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday
var testNow = time.Date(2026, 5, 6, 15, 30, 0, 0, time.UTC)

type recordingReminders struct {
	mu    sync.Mutex
	items []domain.Followup
	err   error
}

func (r *recordingReminders) ScheduleFollowupReminder(_ context.Context, f domain.Followup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, f)
	return r.err
}

type fixture struct {
	store     *memstore.Store
	bus       *events.InMemoryBus
	reminders *recordingReminders
	scheduler *Scheduler
	agentID   uuid.UUID
	clientID  uuid.UUID
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	f := &fixture{
		store:     memstore.New(),
		bus:       events.NewInMemoryBus(logger.Nop()),
		reminders: &recordingReminders{},
		agentID:   uuid.New(),
		clientID:  uuid.New(),
	}
	f.store.PutAgent(repository.AgentContact{ID: f.agentID})
	f.store.PutClient(f.clientID)
	f.scheduler = New(f.store, f.bus, logger.Nop(), Config{HotLeadThreshold: 60, HotLeadDelay: 24 * time.Hour},
		WithReminders(f.reminders),
		WithClock(func() time.Time { return now }),
	)
	return f
}

func (f *fixture) input(prev, next int, trigger domain.ActivityType) EvaluateInput {
	return EvaluateInput{
		ClientID: f.clientID,
		AgentID:  f.agentID,
		Previous: domain.LeadScore{TotalScore: prev},
		New:      domain.LeadScore{TotalScore: next},
		Trigger:  trigger,
	}
}

func TestEvaluateUrgentSignalSchedulesNow(t *testing.T) {
	for _, trigger := range []domain.ActivityType{domain.ActivityContactAgent, domain.ActivityBookingRequest} {
		t.Run(string(trigger), func(t *testing.T) {
			f := newFixture(t, testNow)
			got, err := f.scheduler.Evaluate(context.Background(), f.input(5, 10, trigger))
			require.NoError(t, err)
			require.NotNil(t, got)

			assert.Equal(t, testNow, got.ScheduledFor)
			assert.Equal(t, domain.FollowupReason(trigger), got.Reason)
			assert.Equal(t, domain.FollowupPending, got.Status)
			assert.Len(t, f.reminders.items, 1)
		})
	}
}

func TestEvaluateHotLeadCrossing(t *testing.T) {
	f := newFixture(t, testNow)

	got, err := f.scheduler.Evaluate(context.Background(), f.input(55, 61, domain.ActivityPropertyView))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.ReasonHotLead, got.Reason)
	assert.Equal(t, testNow.Add(24*time.Hour), got.ScheduledFor)
}

func TestEvaluateNoCrossingNoFollowup(t *testing.T) {
	cases := []struct {
		name       string
		prev, next int
	}{
		{"below threshold", 10, 59},
		{"already hot", 60, 75},
		{"falling", 70, 40},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, testNow)
			got, err := f.scheduler.Evaluate(context.Background(), f.input(tc.prev, tc.next, domain.ActivityReturnVisit))
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestEvaluateUrgentWinsOverHotLead(t *testing.T) {
	f := newFixture(t, testNow)
	got, err := f.scheduler.Evaluate(context.Background(), f.input(50, 65, domain.ActivityContactAgent))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.ReasonContactAgent, got.Reason)
	assert.Equal(t, testNow, got.ScheduledFor)
}

func TestEvaluateHotLeadRollsPastWeekend(t *testing.T) {
	friday := time.Date(2026, 5, 8, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, friday)

	got, err := f.scheduler.Evaluate(context.Background(), f.input(0, 80, domain.ActivityPropertyView))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, time.Monday, got.ScheduledFor.Weekday())
	assert.Equal(t, time.Date(2026, 5, 11, 9, 0, 0, 0, time.UTC), got.ScheduledFor)
}

func TestEvaluateSecondUrgentSignalCreatesNothing(t *testing.T) {
	f := newFixture(t, testNow)
	ctx := context.Background()

	first, err := f.scheduler.Evaluate(ctx, f.input(0, 12, domain.ActivityContactAgent))
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := f.scheduler.Evaluate(ctx, f.input(12, 22, domain.ActivityBookingRequest))
	require.NoError(t, err)
	assert.Nil(t, second)

	pending, err := f.scheduler.ListPending(ctx, f.agentID)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestEvaluateReminderFailureDoesNotFail(t *testing.T) {
	f := newFixture(t, testNow)
	f.reminders.err = errors.New("redis down")

	got, err := f.scheduler.Evaluate(context.Background(), f.input(0, 12, domain.ActivityContactAgent))
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestEvaluatePublishesFollowupCreated(t *testing.T) {
	f := newFixture(t, testNow)
	received := make(chan events.FollowupCreated, 1)
	f.bus.Subscribe(events.FollowupCreated{}.EventName(), events.HandlerFunc(func(_ context.Context, e events.Event) error {
		received <- e.(events.FollowupCreated)
		return nil
	}))

	got, err := f.scheduler.Evaluate(context.Background(), f.input(0, 12, domain.ActivityContactAgent))
	require.NoError(t, err)
	f.bus.Wait()

	select {
	case e := <-received:
		assert.Equal(t, got.ID, e.FollowupID)
	default:
		t.Fatal("FollowupCreated not published")
	}
}

func TestCompleteTwiceFailsWithNotFound(t *testing.T) {
	f := newFixture(t, testNow)
	ctx := context.Background()
	created, err := f.scheduler.Evaluate(ctx, f.input(0, 12, domain.ActivityContactAgent))
	require.NoError(t, err)

	require.NoError(t, f.scheduler.Complete(ctx, f.agentID, created.ID))

	stored, err := f.scheduler.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FollowupCompleted, stored.Status)

	err = f.scheduler.Complete(ctx, f.agentID, created.ID)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	err = f.scheduler.Complete(ctx, f.agentID, uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCompleteAllowsANewPendingFollowup(t *testing.T) {
	f := newFixture(t, testNow)
	ctx := context.Background()
	first, err := f.scheduler.Evaluate(ctx, f.input(0, 12, domain.ActivityContactAgent))
	require.NoError(t, err)
	require.NoError(t, f.scheduler.Complete(ctx, f.agentID, first.ID))

	second, err := f.scheduler.Evaluate(ctx, f.input(12, 24, domain.ActivityContactAgent))
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestNextBusinessTime(t *testing.T) {
	sat := time.Date(2026, 5, 9, 14, 0, 0, 0, time.UTC)
	sun := time.Date(2026, 5, 10, 14, 0, 0, 0, time.UTC)
	mon := time.Date(2026, 5, 11, 14, 0, 0, 0, time.UTC)

	assert.Equal(t, mon, NextBusinessTime(sat))
	assert.Equal(t, mon, NextBusinessTime(sun))
	assert.Equal(t, mon, NextBusinessTime(mon))
}
