package scoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"estate_portal_backend/internal/leadtracking/domain"
	"estate_portal_backend/internal/leadtracking/memstore"
	"estate_portal_backend/internal/leadtracking/repository"
	"estate_portal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenProfiles struct {
	*memstore.Store
}

func (brokenProfiles) GetClientProfile(context.Context, uuid.UUID) (domain.ClientProfile, error) {
	return domain.ClientProfile{}, errors.New("profile store unreachable")
}

func newFixture(t *testing.T) (*memstore.Store, uuid.UUID, uuid.UUID) {
	t.Helper()
	store := memstore.New()
	agentID, clientID := uuid.New(), uuid.New()
	store.PutAgent(repository.AgentContact{ID: agentID})
	store.PutClient(clientID)
	return store, agentID, clientID
}

func TestComputeScoreWithNoFactsIsZeroAndPersisted(t *testing.T) {
	store, agentID, clientID := newFixture(t)
	engine := NewEngine(store, store, WithClock(func() time.Time { return testNow }))

	score, err := engine.ComputeScore(context.Background(), clientID, agentID)
	require.NoError(t, err)
	assert.Equal(t, 0, score.TotalScore)
	assert.Equal(t, testNow, score.LastCalculatedAt)

	stored, err := store.GetScore(context.Background(), clientID, agentID)
	require.NoError(t, err)
	assert.Equal(t, score, stored)
}

func TestComputeScoreIsIdempotent(t *testing.T) {
	store, agentID, clientID := newFixture(t)
	property := uuid.New()
	future := testNow.AddDate(1, 0, 0)
	store.PutProfile(domain.ClientProfile{ClientID: clientID, Prequalified: true, PrequalExpiresOn: &future, PreferredAreas: []string{"Denver"}})
	store.PutProperty(domain.Property{ID: property, City: "Denver"})
	ctx := context.Background()
	for _, kind := range []domain.ActivityType{domain.ActivityPropertyView, domain.ActivityReturnVisit, domain.ActivityContactAgent} {
		_, err := store.Append(ctx, domain.ActivityInput{ClientID: clientID, AgentID: agentID, Type: kind, PropertyID: &property})
		require.NoError(t, err)
	}

	engine := NewEngine(store, store, WithClock(func() time.Time { return testNow }))
	first, err := engine.ComputeScore(ctx, clientID, agentID)
	require.NoError(t, err)
	second, err := engine.ComputeScore(ctx, clientID, agentID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 20, first.PrequalificationScore)
	assert.Equal(t, 20, first.PropertyMatchScore)
}

func TestComputeScoreRechecksExpiryEagerly(t *testing.T) {
	store, agentID, clientID := newFixture(t)
	expires := testNow.Add(time.Hour)
	store.PutProfile(domain.ClientProfile{ClientID: clientID, Prequalified: true, PrequalExpiresOn: &expires})

	clock := testNow
	engine := NewEngine(store, store, WithClock(func() time.Time { return clock }))

	before, err := engine.ComputeScore(context.Background(), clientID, agentID)
	require.NoError(t, err)
	assert.Equal(t, 20, before.PrequalificationScore)

	clock = expires
	after, err := engine.ComputeScore(context.Background(), clientID, agentID)
	require.NoError(t, err)
	assert.Equal(t, 0, after.PrequalificationScore)
}

func TestComputeScoreReadFailurePersistsNothing(t *testing.T) {
	store, agentID, clientID := newFixture(t)
	engine := NewEngine(brokenProfiles{store}, store)

	_, err := engine.ComputeScore(context.Background(), clientID, agentID)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindScoreComputation))

	_, err = store.GetScore(context.Background(), clientID, agentID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestScoreBeforeExcludesActivityAndLaterOnes(t *testing.T) {
	store, agentID, clientID := newFixture(t)
	ctx := context.Background()
	add := func(kind domain.ActivityType) domain.Activity {
		a, err := store.Append(ctx, domain.ActivityInput{ClientID: clientID, AgentID: agentID, Type: kind})
		require.NoError(t, err)
		return a
	}
	add(domain.ActivityPropertyView)
	contact := add(domain.ActivityContactAgent)
	add(domain.ActivityReturnVisit)

	engine := NewEngine(store, store, WithClock(func() time.Time { return testNow }))
	before, activity, err := engine.ScoreBefore(ctx, clientID, agentID, contact.ID)
	require.NoError(t, err)
	assert.Equal(t, contact.ID, activity.ID)
	assert.Equal(t, domain.ActivityContactAgent, activity.Type)
	assert.Equal(t, 3, before.EngagementScore, "only the earlier view counts")

	_, err = store.GetScore(ctx, clientID, agentID)
	assert.ErrorIs(t, err, repository.ErrNotFound, "nothing persisted")

	_, _, err = engine.ScoreBefore(ctx, clientID, agentID, uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
