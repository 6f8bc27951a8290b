package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"estate_portal_backend/internal/openhouse/domain"
	"estate_portal_backend/internal/openhouse/repository"
	"estate_portal_backend/internal/openhouse/service"
	"estate_portal_backend/internal/openhouse/transport"
	"estate_portal_backend/platform/httpkit"
	"estate_portal_backend/platform/logger"
	"estate_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newRouter builds a router whose authenticated caller is either the agent
// hosting the open house or some other agent.
func newRouter(t *testing.T, asHost bool) (*gin.Engine, domain.OpenHouse) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryStore()
	oh := domain.OpenHouse{ID: uuid.New(), AgentID: uuid.New(), PropertyID: uuid.New()}
	store.PutOpenHouse(oh)

	callerID := uuid.New()
	if asHost {
		callerID = oh.AgentID
	}

	val := validator.New()
	h := New(service.New(store, nil, val, nil, logger.Nop()), val)

	r := gin.New()
	h.RegisterPublicRoutes(r.Group("/open-houses"))
	h.RegisterRoutes(r.Group("/open-houses", func(c *gin.Context) {
		c.Set(httpkit.ContextActorIDKey, callerID)
		c.Set(httpkit.ContextRolesKey, []string{httpkit.RoleAgent})
		c.Next()
	}))
	return r, oh
}

func send(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(body)
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestOtherAgentCannotSeeLeads(t *testing.T) {
	r, oh := newRouter(t, false)

	rec := send(r, http.MethodPost, "/open-houses/"+oh.ID.String()+"/leads", map[string]any{
		"name":  "Grace Hopper",
		"email": "grace@example.com",
		"phone": "+1 650 253 0000",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created transport.RegisterLeadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotContains(t, rec.Body.String(), "grace@example.com")

	rec = send(r, http.MethodGet, "/open-houses/"+oh.ID.String()+"/leads", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = send(r, http.MethodPatch, "/open-houses/leads/"+created.ID.String()+"/status", map[string]any{"status": "contacted"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHostingAgentSeesLeads(t *testing.T) {
	r, oh := newRouter(t, true)

	rec := send(r, http.MethodPost, "/open-houses/"+oh.ID.String()+"/leads", map[string]any{
		"name":  "Grace Hopper",
		"email": "grace@example.com",
		"phone": "+1 650 253 0000",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created transport.RegisterLeadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = send(r, http.MethodGet, "/open-houses/"+oh.ID.String()+"/leads", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list transport.ListLeadsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "+16502530000", list.Items[0].Phone)

	rec = send(r, http.MethodPatch, "/open-houses/leads/"+created.ID.String()+"/status", map[string]any{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = send(r, http.MethodPatch, "/open-houses/leads/"+created.ID.String()+"/status", map[string]any{"status": "not-interested"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"followUpStatus":"not-interested"`)
}

func TestRegisterValidation(t *testing.T) {
	r, oh := newRouter(t, true)

	rec := send(r, http.MethodPost, "/open-houses/"+oh.ID.String()+"/leads", map[string]any{
		"name":  "Grace Hopper",
		"email": "grace",
		"phone": "+1 650 253 0000",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "email")

	rec = send(r, http.MethodPost, "/open-houses/"+uuid.NewString()+"/leads", map[string]any{
		"name":  "Grace Hopper",
		"email": "grace@example.com",
		"phone": "+1 650 253 0000",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type capturedRegistrations struct {
	items []service.RegistrationActivity
}

func (c *capturedRegistrations) RecordRegistration(_ context.Context, a service.RegistrationActivity) error {
	c.items = append(c.items, a)
	return nil
}

func TestRegisterTakesClientFromIdentityOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := repository.NewMemoryStore()
	oh := domain.OpenHouse{ID: uuid.New(), AgentID: uuid.New(), PropertyID: uuid.New()}
	store.PutOpenHouse(oh)

	val := validator.New()
	svc := service.New(store, nil, val, nil, logger.Nop())
	recorded := &capturedRegistrations{}
	svc.SetActivityRecorder(recorded)

	signedIn := uuid.New()
	var caller *uuid.UUID
	r := gin.New()
	New(svc, val).RegisterPublicRoutes(r.Group("/open-houses", func(c *gin.Context) {
		if caller != nil {
			c.Set(httpkit.ContextActorIDKey, *caller)
			c.Set(httpkit.ContextRolesKey, []string{"client"})
		}
		c.Next()
	}))

	victim := uuid.New()
	body := map[string]any{
		"clientId": victim,
		"name":     "Grace Hopper",
		"email":    "grace@example.com",
		"phone":    "+1 650 253 0000",
	}
	path := "/open-houses/" + oh.ID.String() + "/leads"

	rec := send(r, http.MethodPost, path, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Empty(t, recorded.items, "anonymous body clientId is ignored")

	caller = &signedIn
	rec = send(r, http.MethodPost, path, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, recorded.items, 1)
	assert.Equal(t, signedIn, recorded.items[0].ClientID)
	assert.Equal(t, oh.AgentID, recorded.items[0].AgentID)
}
