package handler

import (
	"net/http"

	"estate_portal_backend/internal/openhouse/service"
	"estate_portal_backend/internal/openhouse/transport"
	"estate_portal_backend/platform/httpkit"
	"estate_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest = "invalid request"
	msgInvalidID      = "invalid id"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterPublicRoutes mounts the visitor sign-in endpoint. Callers add
// their own rate limiting and optional authentication middleware to rg.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/:id/leads", h.Register)
}

// RegisterRoutes mounts the agent endpoints.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id/leads", h.ListLeads)
	rg.PATCH("/leads/:leadId/status", h.UpdateStatus)
}

func (h *Handler) Register(c *gin.Context) {
	openHouseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.RegisterLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.BindError(c, err)
		return
	}

	lead, err := h.svc.Register(c.Request.Context(), service.RegisterLeadInput{
		OpenHouseID:         openHouseID,
		ClientID:            signedInClient(c),
		Name:                req.Name,
		Email:               req.Email,
		Phone:               req.Phone,
		Notes:               req.Notes,
		InterestedInSimilar: req.InterestedInSimilar,
		Prequalified:        req.Prequalified,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, transport.RegisterLeadResponse{ID: lead.ID, RegistrationDate: lead.RegistrationDate})
}

// signedInClient links the registration to the caller's client account.
// Anonymous visitors and agents sign in as plain leads.
func signedInClient(c *gin.Context) *uuid.UUID {
	id := httpkit.GetIdentity(c)
	if !id.IsAuthenticated() || id.HasRole(httpkit.RoleAgent) {
		return nil
	}
	clientID := id.ActorID()
	return &clientID
}

func (h *Handler) ListLeads(c *gin.Context) {
	openHouseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	agentID, ok := httpkit.MustGetAgent(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if httpkit.HandleError(c, h.svc.AuthorizeOpenHouse(ctx, agentID, openHouseID)) {
		return
	}
	leads, err := h.svc.ListByOpenHouse(ctx, openHouseID)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.ListLeadsResponse{Items: make([]transport.LeadResponse, 0, len(leads))}
	for _, l := range leads {
		resp.Items = append(resp.Items, transport.ToLeadResponse(l))
	}
	httpkit.OK(c, resp)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("leadId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
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

	ctx := c.Request.Context()
	if httpkit.HandleError(c, h.svc.AuthorizeLead(ctx, agentID, leadID)) {
		return
	}
	lead, err := h.svc.UpdateFollowUpStatus(ctx, leadID, req.Status)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}
