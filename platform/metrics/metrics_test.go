package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewUsesPrivateRegistry(t *testing.T) {
	// Two instances must not collide on registration.
	a := New()
	b := New()
	assert.NotSame(t, a.Registry(), b.Registry())
}

func TestBusinessCounters(t *testing.T) {
	m := New()

	m.RecordActivity("property_view")
	m.RecordActivity("property_view")
	m.RecordScoreComputation(nil, time.Millisecond)
	m.RecordScoreComputation(errors.New("boom"), time.Millisecond)
	m.RecordCache("lead_score", true)
	m.RecordCache("lead_score", false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ActivitiesTracked.WithLabelValues("property_view")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScoreComputations.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScoreComputations.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHits.WithLabelValues("lead_score")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMisses.WithLabelValues("lead_score")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordActivity("x")
		m.RecordFollowupCreated("hot_lead")
		m.RecordOpenHouseLead()
	})
}

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/scores/:clientId", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/scores/abc", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/scores/:clientId", "200")))
}
