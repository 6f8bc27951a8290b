package memstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"estate_portal_backend/internal/leadtracking/domain"
	"estate_portal_backend/internal/leadtracking/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T) (*Store, uuid.UUID, uuid.UUID) {
	t.Helper()
	s := New()
	agentID, clientID := uuid.New(), uuid.New()
	s.PutAgent(repository.AgentContact{ID: agentID, Name: "Agent", Email: "agent@example.com"})
	s.PutClient(clientID)
	return s, agentID, clientID
}

func TestAppendRejectsUnknownParties(t *testing.T) {
	s, agentID, _ := seeded(t)

	_, err := s.Append(context.Background(), domain.ActivityInput{
		ClientID: uuid.New(), AgentID: agentID, Type: domain.ActivityPropertyView,
	})
	assert.ErrorIs(t, err, repository.ErrInvalidReference)
}

func TestListForAgentIsRestartableAndNewestFirst(t *testing.T) {
	s, agentID, clientID := seeded(t)
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	s.WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})

	ctx := context.Background()
	for _, kind := range []domain.ActivityType{domain.ActivityPropertyView, domain.ActivityReturnVisit, domain.ActivityContactAgent} {
		_, err := s.Append(ctx, domain.ActivityInput{ClientID: clientID, AgentID: agentID, Type: kind})
		require.NoError(t, err)
	}

	seq := s.ListForAgent(ctx, agentID)
	collect := func() []domain.ActivityType {
		var out []domain.ActivityType
		for a, err := range seq {
			require.NoError(t, err)
			out = append(out, a.Type)
		}
		return out
	}

	first := collect()
	assert.Equal(t, []domain.ActivityType{domain.ActivityContactAgent, domain.ActivityReturnVisit, domain.ActivityPropertyView}, first)

	_, err := s.Append(ctx, domain.ActivityInput{ClientID: clientID, AgentID: agentID, Type: domain.ActivityBookingRequest})
	require.NoError(t, err)
	assert.Len(t, collect(), 4, "ranging again re-reads the log")
}

func TestCreatePendingFollowupIsExclusiveUnderConcurrency(t *testing.T) {
	s, agentID, clientID := seeded(t)
	ctx := context.Background()

	const workers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreatePendingFollowup(ctx, domain.NewFollowup{
				AgentID: agentID, ClientID: clientID, ScheduledFor: time.Now(), Reason: domain.ReasonContactAgent,
			})
			if err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, repository.ErrPendingFollowupExists)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
}

func TestCompleteFollowupScopesByAgentAndStatus(t *testing.T) {
	s, agentID, clientID := seeded(t)
	ctx := context.Background()

	f, err := s.CreatePendingFollowup(ctx, domain.NewFollowup{
		AgentID: agentID, ClientID: clientID, ScheduledFor: time.Now(), Reason: domain.ReasonHotLead,
	})
	require.NoError(t, err)

	_, err = s.CompleteFollowup(ctx, uuid.New(), f.ID, time.Now())
	assert.ErrorIs(t, err, repository.ErrNotFound, "other agent")

	done, err := s.CompleteFollowup(ctx, agentID, f.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, domain.FollowupCompleted, done.Status)
	assert.NotNil(t, done.CompletedAt)

	_, err = s.CompleteFollowup(ctx, agentID, f.ID, time.Now())
	assert.ErrorIs(t, err, repository.ErrNotFound, "already completed")
}

func TestUpsertScoreKeepsOneRowPerPair(t *testing.T) {
	s, agentID, clientID := seeded(t)
	ctx := context.Background()

	first, err := s.UpsertScore(ctx, domain.LeadScore{ClientID: clientID, AgentID: agentID, TotalScore: 10})
	require.NoError(t, err)
	second, err := s.UpsertScore(ctx, domain.LeadScore{ClientID: clientID, AgentID: agentID, TotalScore: 40})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	all, err := s.ListScoresForAgent(ctx, agentID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 40, all[0].TotalScore)
}
