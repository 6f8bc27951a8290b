package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"estate_portal_backend/internal/leadtracking/domain"
	"estate_portal_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type databaseURL string

func (u databaseURL) GetDatabaseURL() string { return string(u) }

// openTestPool connects to DATABASE_URL and applies migrations. Tests that
// need it are skipped when the variable is unset.
func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, databaseURL(url))
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, db.RunMigrations(ctx, pool))
	return pool
}

// seedPair inserts an agent and a client and returns their ids.
func seedPair(t *testing.T, pool *pgxpool.Pool) (clientID, agentID uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	clientID, agentID = uuid.New(), uuid.New()

	_, err := pool.Exec(ctx, `INSERT INTO agents (id, name, email) VALUES ($1, 'Agent', 'agent@example.com')`, agentID)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO clients (id, name, email) VALUES ($1, 'Client', 'client@example.com')`, clientID)
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx := context.Background()
		_, _ = pool.Exec(ctx, `DELETE FROM lead_followups WHERE agent_id = $1`, agentID)
		_, _ = pool.Exec(ctx, `DELETE FROM lead_scores WHERE agent_id = $1`, agentID)
		_, _ = pool.Exec(ctx, `DELETE FROM lead_activities WHERE agent_id = $1`, agentID)
		_, _ = pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, clientID)
		_, _ = pool.Exec(ctx, `DELETE FROM agents WHERE id = $1`, agentID)
	})
	return clientID, agentID
}

func TestPostgresActivitiesNewestFirst(t *testing.T) {
	pool := openTestPool(t)
	repo := New(pool)
	ctx := context.Background()
	clientID, agentID := seedPair(t, pool)

	first, err := repo.Append(ctx, domain.ActivityInput{ClientID: clientID, AgentID: agentID, Type: domain.ActivityPropertyView})
	require.NoError(t, err)
	second, err := repo.Append(ctx, domain.ActivityInput{
		ClientID: clientID,
		AgentID:  agentID,
		Type:     domain.ActivityContactAgent,
		Metadata: map[string]any{"message": "call me"},
	})
	require.NoError(t, err)

	pair, err := repo.ListForPair(ctx, clientID, agentID)
	require.NoError(t, err)
	require.Len(t, pair, 2)
	assert.Equal(t, second.ID, pair[0].ID)
	assert.Equal(t, first.ID, pair[1].ID)
	assert.Equal(t, "call me", pair[0].Metadata["message"])

	var feed []uuid.UUID
	for activity, err := range repo.ListForAgent(ctx, agentID) {
		require.NoError(t, err)
		feed = append(feed, activity.ID)
	}
	assert.Equal(t, []uuid.UUID{second.ID, first.ID}, feed)
}

func TestPostgresAppendRejectsUnknownAgent(t *testing.T) {
	pool := openTestPool(t)
	repo := New(pool)
	clientID, _ := seedPair(t, pool)

	_, err := repo.Append(context.Background(), domain.ActivityInput{
		ClientID: clientID,
		AgentID:  uuid.New(),
		Type:     domain.ActivityPropertyView,
	})
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestPostgresUpsertScoreKeepsOneRowPerPair(t *testing.T) {
	pool := openTestPool(t)
	repo := New(pool)
	ctx := context.Background()
	clientID, agentID := seedPair(t, pool)
	at := time.Now().UTC().Truncate(time.Microsecond)

	created, err := repo.UpsertScore(ctx, domain.LeadScore{
		ClientID: clientID, AgentID: agentID,
		TotalScore: 30, EngagementScore: 30, LastCalculatedAt: at,
	})
	require.NoError(t, err)

	updated, err := repo.UpsertScore(ctx, domain.LeadScore{
		ClientID: clientID, AgentID: agentID,
		TotalScore: 75, PrequalificationScore: 40, EngagementScore: 35, LastCalculatedAt: at.Add(time.Minute),
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, 75, updated.TotalScore)

	stored, err := repo.GetScore(ctx, clientID, agentID)
	require.NoError(t, err)
	assert.Equal(t, 40, stored.PrequalificationScore)
	assert.True(t, stored.LastCalculatedAt.Equal(at.Add(time.Minute)))

	scores, err := repo.ListScoresForAgent(ctx, agentID)
	require.NoError(t, err)
	assert.Len(t, scores, 1)
}

func TestPostgresSinglePendingFollowupPerPair(t *testing.T) {
	pool := openTestPool(t)
	repo := New(pool)
	ctx := context.Background()
	clientID, agentID := seedPair(t, pool)
	in := domain.NewFollowup{
		AgentID:      agentID,
		ClientID:     clientID,
		ScheduledFor: time.Now().UTC().Add(time.Hour),
		Reason:       domain.ReasonContactAgent,
	}

	pending, err := repo.CreatePendingFollowup(ctx, in)
	require.NoError(t, err)

	_, err = repo.CreatePendingFollowup(ctx, in)
	assert.ErrorIs(t, err, ErrPendingFollowupExists)

	_, err = repo.CompleteFollowup(ctx, agentID, pending.ID, time.Now().UTC())
	require.NoError(t, err)

	again, err := repo.CreatePendingFollowup(ctx, in)
	require.NoError(t, err, "a completed followup frees the pair")
	assert.Equal(t, domain.FollowupPending, again.Status)

	_, err = repo.CompleteFollowup(ctx, agentID, pending.ID, time.Now().UTC())
	assert.ErrorIs(t, err, ErrNotFound)
}
