// Package notification sends agent e-mail in response to lead tracking and
// open-house events. Domain modules publish events and never talk to the
// mail provider directly.
package notification

import (
	"context"
	"fmt"
	"strings"

	"estate_portal_backend/internal/email"
	"estate_portal_backend/internal/events"
	"estate_portal_backend/internal/leadtracking/repository"
	"estate_portal_backend/platform/config"
	"estate_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// AgentDirectory resolves where an agent's mail goes.
type AgentDirectory interface {
	GetAgentContact(ctx context.Context, agentID uuid.UUID) (repository.AgentContact, error)
}

// Module is the notification module. It implements events.Handler.
type Module struct {
	sender email.Sender
	agents AgentDirectory
	cfg    config.NotificationConfig
	log    *logger.Logger
}

func New(sender email.Sender, agents AgentDirectory, cfg config.NotificationConfig, log *logger.Logger) *Module {
	return &Module{sender: sender, agents: agents, cfg: cfg, log: log}
}

// RegisterHandlers subscribes the module to the events it reacts to.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.FollowupDue{}.EventName(), m)
	bus.Subscribe(events.OpenHouseLeadRegistered{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the matching handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.FollowupDue:
		return m.handleFollowupDue(ctx, e)
	case events.OpenHouseLeadRegistered:
		return m.handleOpenHouseLeadRegistered(ctx, e)
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) handleFollowupDue(ctx context.Context, e events.FollowupDue) error {
	agent, err := m.agents.GetAgentContact(ctx, e.AgentID)
	if err != nil {
		return fmt.Errorf("resolve agent %s: %w", e.AgentID, err)
	}

	err = m.sender.SendFollowupReminderEmail(ctx, agent.Email, email.FollowupReminder{
		AgentName:    agent.Name,
		ClientID:     e.ClientID.String(),
		Reason:       e.Reason,
		ScheduledFor: e.ScheduledFor,
		DashboardURL: m.buildURL("/followups"),
	})
	if err != nil {
		m.log.Error("failed to send followup reminder", "followupId", e.FollowupID, "agentId", e.AgentID, "error", err)
		return err
	}
	m.log.Info("followup reminder sent", "followupId", e.FollowupID, "agentId", e.AgentID)
	return nil
}

func (m *Module) handleOpenHouseLeadRegistered(ctx context.Context, e events.OpenHouseLeadRegistered) error {
	agent, err := m.agents.GetAgentContact(ctx, e.AgentID)
	if err != nil {
		return fmt.Errorf("resolve agent %s: %w", e.AgentID, err)
	}

	err = m.sender.SendOpenHouseLeadEmail(ctx, agent.Email, email.OpenHouseLeadNotice{
		AgentName:    agent.Name,
		VisitorName:  e.Name,
		VisitorEmail: e.Email,
		KnownClient:  e.ClientID != nil,
		DashboardURL: m.buildURL("/open-houses/" + e.OpenHouseID.String()),
	})
	if err != nil {
		m.log.Error("failed to send open house lead notice", "leadId", e.LeadID, "agentId", e.AgentID, "error", err)
		return err
	}
	return nil
}

// SendDigest mails an agent the list of followups that are due.
func (m *Module) SendDigest(ctx context.Context, agentID uuid.UUID, items []email.DigestItem) error {
	if len(items) == 0 {
		return nil
	}
	agent, err := m.agents.GetAgentContact(ctx, agentID)
	if err != nil {
		return fmt.Errorf("resolve agent %s: %w", agentID, err)
	}
	return m.sender.SendFollowupDigestEmail(ctx, agent.Email, email.FollowupDigest{
		AgentName:    agent.Name,
		Items:        items,
		DashboardURL: m.buildURL("/followups"),
	})
}

func (m *Module) buildURL(path string) string {
	base := strings.TrimRight(m.cfg.GetAppBaseURL(), "/")
	return base + path
}

var _ events.Handler = (*Module)(nil)
