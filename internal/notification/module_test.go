package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"estate_portal_backend/internal/email"
	"estate_portal_backend/internal/events"
	"estate_portal_backend/internal/leadtracking/repository"
	"estate_portal_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct{}

func (testConfig) GetAppBaseURL() string { return "https://app.example.com/" }

type sentMail struct {
	to   string
	kind string
	data any
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sentMail
}

func (s *recordingSender) record(to, kind string, data any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMail{to: to, kind: kind, data: data})
	return nil
}

func (s *recordingSender) SendFollowupReminderEmail(_ context.Context, to string, d email.FollowupReminder) error {
	return s.record(to, "reminder", d)
}

func (s *recordingSender) SendFollowupDigestEmail(_ context.Context, to string, d email.FollowupDigest) error {
	return s.record(to, "digest", d)
}

func (s *recordingSender) SendOpenHouseLeadEmail(_ context.Context, to string, d email.OpenHouseLeadNotice) error {
	return s.record(to, "open_house", d)
}

type directory map[uuid.UUID]repository.AgentContact

func (d directory) GetAgentContact(_ context.Context, id uuid.UUID) (repository.AgentContact, error) {
	c, ok := d[id]
	if !ok {
		return repository.AgentContact{}, repository.ErrNotFound
	}
	return c, nil
}

func setup(t *testing.T) (*Module, *recordingSender, *events.InMemoryBus, uuid.UUID) {
	t.Helper()
	agentID := uuid.New()
	sender := &recordingSender{}
	m := New(sender, directory{agentID: {ID: agentID, Name: "Dana", Email: "dana@example.com"}}, testConfig{}, logger.Nop())
	bus := events.NewInMemoryBus(logger.Nop())
	m.RegisterHandlers(bus)
	return m, sender, bus, agentID
}

func TestFollowupDueSendsReminder(t *testing.T) {
	_, sender, bus, agentID := setup(t)

	err := bus.PublishSync(context.Background(), events.FollowupDue{
		BaseEvent:    events.NewBaseEvent(),
		FollowupID:   uuid.New(),
		ClientID:     uuid.New(),
		AgentID:      agentID,
		Reason:       "hot_lead",
		ScheduledFor: time.Now(),
	})
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "dana@example.com", sender.sent[0].to)
	reminder := sender.sent[0].data.(email.FollowupReminder)
	assert.Equal(t, "https://app.example.com/followups", reminder.DashboardURL)
	assert.Equal(t, "hot_lead", reminder.Reason)
}

func TestUnknownAgentFails(t *testing.T) {
	_, sender, bus, _ := setup(t)

	err := bus.PublishSync(context.Background(), events.FollowupDue{BaseEvent: events.NewBaseEvent(), AgentID: uuid.New()})
	assert.Error(t, err)
	assert.Empty(t, sender.sent)
}

func TestOpenHouseLeadNotice(t *testing.T) {
	_, sender, bus, agentID := setup(t)
	clientID := uuid.New()

	err := bus.PublishSync(context.Background(), events.OpenHouseLeadRegistered{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      uuid.New(),
		OpenHouseID: uuid.New(),
		AgentID:     agentID,
		ClientID:    &clientID,
		Name:        "Grace Hopper",
		Email:       "grace@example.com",
	})
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	notice := sender.sent[0].data.(email.OpenHouseLeadNotice)
	assert.True(t, notice.KnownClient)
	assert.Equal(t, "Grace Hopper", notice.VisitorName)
}

func TestSendDigestSkipsEmptyList(t *testing.T) {
	m, sender, _, agentID := setup(t)

	require.NoError(t, m.SendDigest(context.Background(), agentID, nil))
	assert.Empty(t, sender.sent)

	require.NoError(t, m.SendDigest(context.Background(), agentID, []email.DigestItem{{ClientID: "c-1", Reason: "hot_lead"}}))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "digest", sender.sent[0].kind)
}
