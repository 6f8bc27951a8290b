package handler

import (
	"net/http"

	"estate_portal_backend/internal/leadtracking/domain"
	"estate_portal_backend/internal/leadtracking/service"
	"estate_portal_backend/internal/leadtracking/transport"
	"estate_portal_backend/platform/httpkit"
	"estate_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest = "invalid request"
	msgInvalidID      = "invalid id"
)

// Handler handles HTTP requests for lead tracking.
type Handler struct {
	svc *service.Tracker
	val *validator.Validator
}

// New creates a new lead tracking handler.
func New(svc *service.Tracker, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers lead tracking routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/activities", h.TrackActivity)
	rg.GET("/activities", h.ListActivities)

	rg.GET("/scores", h.ListLeadScores)
	rg.GET("/scores/:clientId", h.GetLeadScore)
	rg.POST("/scores/:clientId/recompute", h.RecomputeScore)

	rg.GET("/followups", h.ListFollowups)
	rg.POST("/followups/:id/complete", h.CompleteFollowup)
}

// TrackActivity records an activity. Clients report their own activity and
// agents may record activity on behalf of their clients.
func (h *Handler) TrackActivity(c *gin.Context) {
	var req transport.TrackActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.BindError(c, err)
		return
	}

	identity := httpkit.GetIdentity(c)
	if !identity.IsAuthenticated() {
		httpkit.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	if actor := identity.ActorID(); actor != req.ClientID && actor != req.AgentID {
		httpkit.Error(c, http.StatusForbidden, "caller is neither the client nor the agent", nil)
		return
	}

	result, err := h.svc.TrackActivity(c.Request.Context(), service.TrackActivityInput{
		ClientID:   req.ClientID,
		AgentID:    req.AgentID,
		Type:       domain.ActivityType(req.ActivityType),
		PropertyID: req.PropertyID,
		Metadata:   req.Metadata,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, transport.TrackActivityResponse{
		Activity: transport.ToActivityResponse(*result.Activity),
		Score:    transport.ToLeadScoreResponse(*result.Score),
		Followup: transport.ToFollowupResponsePtr(result.Followup),
	})
}

func (h *Handler) ListActivities(c *gin.Context) {
	var req transport.ListActivitiesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.BindError(c, err)
		return
	}

	agentID, ok := httpkit.MustGetAgent(c)
	if !ok {
		return
	}

	items, err := h.svc.ListActivities(c.Request.Context(), agentID, req.Limit)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.ListActivitiesResponse{Items: make([]transport.ActivityResponse, 0, len(items))}
	for _, a := range items {
		resp.Items = append(resp.Items, transport.ToActivityResponse(a))
	}
	httpkit.OK(c, resp)
}

func (h *Handler) ListLeadScores(c *gin.Context) {
	agentID, ok := httpkit.MustGetAgent(c)
	if !ok {
		return
	}

	scores, err := h.svc.ListLeadScores(c.Request.Context(), agentID)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.ListLeadScoresResponse{Items: make([]transport.LeadScoreResponse, 0, len(scores))}
	for _, s := range scores {
		resp.Items = append(resp.Items, transport.ToLeadScoreResponse(s))
	}
	httpkit.OK(c, resp)
}

func (h *Handler) GetLeadScore(c *gin.Context) {
	clientID, err := uuid.Parse(c.Param("clientId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	agentID, ok := httpkit.MustGetAgent(c)
	if !ok {
		return
	}

	score, err := h.svc.GetLeadScore(c.Request.Context(), clientID, agentID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadScoreResponse(score))
}

// RecomputeScore retries scoring for a client. The optional activityId query
// parameter replays the followup rules for that recorded activity.
func (h *Handler) RecomputeScore(c *gin.Context) {
	clientID, err := uuid.Parse(c.Param("clientId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	var req transport.RecomputeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.BindError(c, err)
		return
	}
	agentID, ok := httpkit.MustGetAgent(c)
	if !ok {
		return
	}

	in := service.RecomputeInput{ClientID: clientID, AgentID: agentID}
	if req.ActivityID != "" {
		activityID, err := uuid.Parse(req.ActivityID)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
			return
		}
		in.ActivityID = &activityID
	}

	score, followup, err := h.svc.RecomputeScore(c.Request.Context(), in)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.RecomputeResponse{
		Score:    transport.ToLeadScoreResponse(score),
		Followup: transport.ToFollowupResponsePtr(followup),
	})
}

func (h *Handler) ListFollowups(c *gin.Context) {
	agentID, ok := httpkit.MustGetAgent(c)
	if !ok {
		return
	}

	items, err := h.svc.GetFollowups(c.Request.Context(), agentID)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.ListFollowupsResponse{Items: make([]transport.FollowupResponse, 0, len(items))}
	for _, f := range items {
		resp.Items = append(resp.Items, transport.ToFollowupResponse(f))
	}
	httpkit.OK(c, resp)
}

func (h *Handler) CompleteFollowup(c *gin.Context) {
	followupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	agentID, ok := httpkit.MustGetAgent(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.CompleteFollowup(c.Request.Context(), agentID, followupID)) {
		return
	}
	c.Status(http.StatusNoContent)
}
