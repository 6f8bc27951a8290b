package scorecache

import (
	"context"
	"testing"
	"time"

	"estate_portal_backend/internal/leadtracking/domain"
	"estate_portal_backend/platform/cache"
	"estate_portal_backend/platform/logger"
	"estate_portal_backend/platform/metrics"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Cache, *miniredis.Miniredis, *metrics.Metrics) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := cache.NewFromRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = client.Close() })
	m := metrics.New()
	return New(client, time.Minute, logger.Nop(), m), mr, m
}

func TestSetThenGet(t *testing.T) {
	c, _, m := setup(t)
	ctx := context.Background()
	score := domain.LeadScore{
		ID:                    uuid.New(),
		ClientID:              uuid.New(),
		AgentID:               uuid.New(),
		TotalScore:            42,
		PrequalificationScore: 20,
		PropertyMatchScore:    10,
		EngagementScore:       12,
		LastCalculatedAt:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	_, ok := c.Get(ctx, score.ClientID, score.AgentID)
	assert.False(t, ok)

	c.Set(ctx, score)
	got, ok := c.Get(ctx, score.ClientID, score.AgentID)
	require.True(t, ok)
	assert.Equal(t, score, got)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHits.WithLabelValues(metricName)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMisses.WithLabelValues(metricName)))
}

func TestEntriesExpire(t *testing.T) {
	c, mr, _ := setup(t)
	score := domain.LeadScore{ClientID: uuid.New(), AgentID: uuid.New(), TotalScore: 5}
	c.Set(context.Background(), score)

	mr.FastForward(2 * time.Minute)
	_, ok := c.Get(context.Background(), score.ClientID, score.AgentID)
	assert.False(t, ok)
}

func TestOlderScoreDoesNotReplaceNewer(t *testing.T) {
	c, _, _ := setup(t)
	ctx := context.Background()
	clientID, agentID := uuid.New(), uuid.New()
	at := time.Date(2026, 6, 2, 9, 0, 0, 0, time.UTC)

	newer := domain.LeadScore{ClientID: clientID, AgentID: agentID, TotalScore: 64, LastCalculatedAt: at.Add(time.Second)}
	older := domain.LeadScore{ClientID: clientID, AgentID: agentID, TotalScore: 53, LastCalculatedAt: at}

	c.Set(ctx, newer)
	c.Set(ctx, older)
	got, ok := c.Get(ctx, clientID, agentID)
	require.True(t, ok)
	assert.Equal(t, 64, got.TotalScore)

	newest := newer
	newest.TotalScore = 70
	newest.LastCalculatedAt = at.Add(time.Minute)
	c.Set(ctx, newest)
	got, ok = c.Get(ctx, clientID, agentID)
	require.True(t, ok)
	assert.Equal(t, 70, got.TotalScore)
}

func TestInvalidate(t *testing.T) {
	c, mr, _ := setup(t)
	ctx := context.Background()
	kept := domain.LeadScore{ClientID: uuid.New(), AgentID: uuid.New()}
	dropped := domain.LeadScore{ClientID: uuid.New(), AgentID: kept.AgentID}
	c.Set(ctx, kept)
	c.Set(ctx, dropped)

	c.Invalidate(ctx, dropped.ClientID, dropped.AgentID)
	assert.Equal(t, []string{Key(kept.ClientID, kept.AgentID)}, mr.Keys())
}

func TestBrokenRedisIsAMiss(t *testing.T) {
	c, mr, _ := setup(t)
	mr.Close()

	_, ok := c.Get(context.Background(), uuid.New(), uuid.New())
	assert.False(t, ok)
	assert.NotPanics(t, func() { c.Set(context.Background(), domain.LeadScore{}) })
}
