// Package scorecache keeps recently computed lead scores in Redis so the
// agent dashboard can read them without touching Postgres.
package scorecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"estate_portal_backend/internal/leadtracking/domain"
	"estate_portal_backend/platform/cache"
	"estate_portal_backend/platform/logger"
	"estate_portal_backend/platform/metrics"

	"github.com/google/uuid"
)

const (
	keyPrefix  = "leadscore"
	metricName = "lead_score"
	defaultTTL = 15 * time.Minute
)

// Cache is a read-through cache of lead scores. Cache failures are logged
// and reported as misses; the store stays the source of truth.
type Cache struct {
	client  *cache.Client
	ttl     time.Duration
	log     *logger.Logger
	metrics *metrics.Metrics
}

// New creates a cache backed by client.
func New(client *cache.Client, ttl time.Duration, log *logger.Logger, m *metrics.Metrics) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Cache{client: client, ttl: ttl, log: log, metrics: m}
}

// Key returns the Redis key of a pair's score.
func Key(clientID, agentID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, agentID, clientID)
}

type entry struct {
	ID                    uuid.UUID `json:"id"`
	ClientID              uuid.UUID `json:"clientId"`
	AgentID               uuid.UUID `json:"agentId"`
	TotalScore            int       `json:"totalScore"`
	PrequalificationScore int       `json:"prequalificationScore"`
	PropertyMatchScore    int       `json:"propertyMatchScore"`
	EngagementScore       int       `json:"engagementScore"`
	LastCalculatedAt      time.Time `json:"lastCalculatedAt"`
}

// Get returns the cached score for the pair, if any.
func (c *Cache) Get(ctx context.Context, clientID, agentID uuid.UUID) (domain.LeadScore, bool) {
	var e entry
	err := c.client.GetJSON(ctx, Key(clientID, agentID), &e)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			c.log.WithContext(ctx).Warn("lead score cache read failed", "error", err)
		}
		c.metrics.RecordCache(metricName, false)
		return domain.LeadScore{}, false
	}
	c.metrics.RecordCache(metricName, true)
	return domain.LeadScore(e), true
}

// Set stores score for its pair unless the cached score was calculated
// later. An entry that cannot be updated is dropped.
func (c *Cache) Set(ctx context.Context, score domain.LeadScore) {
	key := Key(score.ClientID, score.AgentID)
	err := c.client.SetJSONIf(ctx, key, entry(score), c.ttl, func(current []byte) bool {
		var cached entry
		if json.Unmarshal(current, &cached) != nil {
			return true
		}
		return !cached.LastCalculatedAt.After(score.LastCalculatedAt)
	})
	if errors.Is(err, cache.ErrConflict) {
		c.Invalidate(ctx, score.ClientID, score.AgentID)
		return
	}
	if err != nil {
		c.log.WithContext(ctx).Warn("lead score cache write failed", "error", err)
	}
}

// Invalidate drops the cached score of a pair.
func (c *Cache) Invalidate(ctx context.Context, clientID, agentID uuid.UUID) {
	if err := c.client.Delete(ctx, Key(clientID, agentID)); err != nil {
		c.log.WithContext(ctx).Warn("lead score cache delete failed", "error", err)
	}
}
