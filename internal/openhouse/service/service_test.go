package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"estate_portal_backend/internal/events"
	"estate_portal_backend/internal/openhouse/domain"
	"estate_portal_backend/internal/openhouse/repository"
	"estate_portal_backend/platform/apperr"
	"estate_portal_backend/platform/logger"
	"estate_portal_backend/platform/phone"
	"estate_portal_backend/platform/validator"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedActivities struct {
	mu   sync.Mutex
	got  []RegistrationActivity
	fail error
}

func (r *recordedActivities) RecordRegistration(_ context.Context, a RegistrationActivity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.got = append(r.got, a)
	return nil
}

type fixture struct {
	svc        *Service
	store      *repository.MemoryStore
	activities *recordedActivities
	bus        *events.InMemoryBus
	openHouse  domain.OpenHouse
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	base := time.Date(2026, 5, 9, 14, 0, 0, 0, time.UTC)
	var tick int
	store := repository.NewMemoryStore().WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})
	oh := domain.OpenHouse{ID: uuid.New(), AgentID: uuid.New(), PropertyID: uuid.New()}
	store.PutOpenHouse(oh)

	bus := events.NewInMemoryBus(logger.Nop())
	svc := New(store, bus, validator.New(), phone.NewNormalizer("US"), logger.Nop())
	activities := &recordedActivities{}
	svc.SetActivityRecorder(activities)
	return &fixture{svc: svc, store: store, activities: activities, bus: bus, openHouse: oh}
}

func (f *fixture) input() RegisterLeadInput {
	notes := "  <i>Looking</i> for a garden "
	return RegisterLeadInput{
		OpenHouseID: f.openHouse.ID,
		Name:        "  Ada \n Lovelace ",
		Email:       " Ada@Example.COM ",
		Phone:       "(650) 253-0000",
		Notes:       &notes,
	}
}

func TestRegisterNormalizesAndStores(t *testing.T) {
	f := newFixture(t)
	var published []events.OpenHouseLeadRegistered
	var mu sync.Mutex
	f.bus.Subscribe(events.OpenHouseLeadRegistered{}.EventName(), events.HandlerFunc(func(_ context.Context, e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		published = append(published, e.(events.OpenHouseLeadRegistered))
		return nil
	}))

	lead, err := f.svc.Register(context.Background(), f.input())
	require.NoError(t, err)
	f.bus.Wait()

	assert.Equal(t, "Ada Lovelace", lead.Name)
	assert.Equal(t, "ada@example.com", lead.Email)
	assert.Equal(t, "+16502530000", lead.Phone)
	require.NotNil(t, lead.Notes)
	assert.Equal(t, "Looking for a garden", *lead.Notes)
	assert.Equal(t, domain.StatusPending, lead.FollowUpStatus)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, published, 1)
	assert.Equal(t, f.openHouse.AgentID, published[0].AgentID)

	assert.Empty(t, f.activities.got, "anonymous visitors produce no activity")
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)

	in := f.input()
	in.Email = "not-an-email"
	_, err := f.svc.Register(context.Background(), in)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	in = f.input()
	in.Phone = "12"
	_, err = f.svc.Register(context.Background(), in)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	in = f.input()
	in.Name = "<b></b>"
	_, err = f.svc.Register(context.Background(), in)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	leads, err := f.svc.ListByOpenHouse(context.Background(), f.openHouse.ID)
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestRegisterUnknownOpenHouse(t *testing.T) {
	f := newFixture(t)
	in := f.input()
	in.OpenHouseID = uuid.New()

	_, err := f.svc.Register(context.Background(), in)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestRegisterKnownClientAppendsActivity(t *testing.T) {
	f := newFixture(t)
	clientID := uuid.New()
	in := f.input()
	in.ClientID = &clientID

	lead, err := f.svc.Register(context.Background(), in)
	require.NoError(t, err)

	require.Len(t, f.activities.got, 1)
	got := f.activities.got[0]
	assert.Equal(t, clientID, got.ClientID)
	assert.Equal(t, f.openHouse.AgentID, got.AgentID)
	assert.Equal(t, f.openHouse.PropertyID, got.PropertyID)
	assert.Equal(t, lead.ID, got.LeadID)
}

func TestActivityFailureKeepsRegistration(t *testing.T) {
	f := newFixture(t)
	f.activities.fail = errors.New("activity store down")
	clientID := uuid.New()
	in := f.input()
	in.ClientID = &clientID

	lead, err := f.svc.Register(context.Background(), in)
	require.NoError(t, err)

	stored, err := f.store.GetLead(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, lead.ID, stored.ID)
}

func TestListByOpenHouseNewestFirst(t *testing.T) {
	f := newFixture(t)
	first, err := f.svc.Register(context.Background(), f.input())
	require.NoError(t, err)
	second, err := f.svc.Register(context.Background(), f.input())
	require.NoError(t, err)

	leads, err := f.svc.ListByOpenHouse(context.Background(), f.openHouse.ID)
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, second.ID, leads[0].ID)
	assert.Equal(t, first.ID, leads[1].ID)
}

func TestUpdateFollowUpStatus(t *testing.T) {
	f := newFixture(t)
	lead, err := f.svc.Register(context.Background(), f.input())
	require.NoError(t, err)

	for _, status := range []string{"contacted", "not-interested", "pending"} {
		updated, err := f.svc.UpdateFollowUpStatus(context.Background(), lead.ID, status)
		require.NoError(t, err)
		assert.Equal(t, domain.FollowUpStatus(status), updated.FollowUpStatus)
	}

	_, err = f.svc.UpdateFollowUpStatus(context.Background(), lead.ID, "archived")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.UpdateFollowUpStatus(context.Background(), uuid.New(), "contacted")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestAuthorizeScopesToHostingAgent(t *testing.T) {
	f := newFixture(t)
	lead, err := f.svc.Register(context.Background(), f.input())
	require.NoError(t, err)

	assert.NoError(t, f.svc.AuthorizeOpenHouse(context.Background(), f.openHouse.AgentID, f.openHouse.ID))
	assert.NoError(t, f.svc.AuthorizeLead(context.Background(), f.openHouse.AgentID, lead.ID))

	err = f.svc.AuthorizeLead(context.Background(), uuid.New(), lead.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	err = f.svc.AuthorizeOpenHouse(context.Background(), f.openHouse.AgentID, uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
