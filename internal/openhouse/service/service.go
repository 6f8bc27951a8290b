// Package service registers open-house visitors and feeds known clients
// into the lead tracking activity log.
package service

import (
	"context"
	"errors"
	"strings"

	"estate_portal_backend/internal/events"
	"estate_portal_backend/internal/openhouse/domain"
	"estate_portal_backend/internal/openhouse/repository"
	"estate_portal_backend/platform/apperr"
	"estate_portal_backend/platform/logger"
	"estate_portal_backend/platform/metrics"
	"estate_portal_backend/platform/phone"
	"estate_portal_backend/platform/sanitize"
	"estate_portal_backend/platform/validator"

	"github.com/google/uuid"
)

const (
	msgOpenHouseNotFound = "open house not found"
	msgLeadNotFound      = "open house lead not found"
)

// RegistrationActivity describes the engagement signal emitted when a known
// client registers for an open house.
type RegistrationActivity struct {
	LeadID      uuid.UUID
	ClientID    uuid.UUID
	AgentID     uuid.UUID
	OpenHouseID uuid.UUID
	PropertyID  uuid.UUID
}

// ActivityRecorder appends the registration to the client's activity log.
// It does not trigger scoring.
type ActivityRecorder interface {
	RecordRegistration(ctx context.Context, a RegistrationActivity) error
}

// RegisterLeadInput is a visitor sign-in form.
type RegisterLeadInput struct {
	OpenHouseID         uuid.UUID  `json:"openHouseId" validate:"required"`
	ClientID            *uuid.UUID `json:"clientId"`
	Name                string     `json:"name" validate:"required,max=200"`
	Email               string     `json:"email" validate:"required,email,max=254"`
	Phone               string     `json:"phone" validate:"required,max=32"`
	Notes               *string    `json:"notes" validate:"omitempty,max=2000"`
	InterestedInSimilar bool       `json:"interestedInSimilar"`
	Prequalified        *bool      `json:"prequalified"`
}

// Service is the open-house lead registry.
type Service struct {
	store      repository.Store
	activities ActivityRecorder
	bus        events.Bus
	val        *validator.Validator
	phones     *phone.Normalizer
	metrics    *metrics.Metrics
	log        *logger.Logger
}

func New(store repository.Store, bus events.Bus, val *validator.Validator, phones *phone.Normalizer, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	if phones == nil {
		phones = phone.NewNormalizer("")
	}
	return &Service{store: store, bus: bus, val: val, phones: phones, log: log}
}

// SetActivityRecorder wires the lead tracking side channel.
func (s *Service) SetActivityRecorder(r ActivityRecorder) {
	s.activities = r
}

func (s *Service) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// Register stores a visitor registration with follow-up status pending.
// When the visitor is a known client, an open_house_registration activity
// is appended for the hosting agent; a failure there is logged and does not
// undo the registration.
func (s *Service) Register(ctx context.Context, in RegisterLeadInput) (domain.Lead, error) {
	if err := s.val.Struct(in); err != nil {
		return domain.Lead{}, apperr.Wrap(apperr.KindValidation, "invalid registration", err).WithOp("openhouse.Register")
	}

	normalizedPhone, err := s.phones.NormalizeE164(in.Phone)
	if err != nil {
		return domain.Lead{}, apperr.Validation("invalid phone number").
			WithDetail("fields", map[string]string{"phone": "e164"}).
			WithOp("openhouse.Register")
	}

	name := sanitize.SingleLine(in.Name)
	if name == "" {
		return domain.Lead{}, apperr.Validation("name is required").
			WithDetail("fields", map[string]string{"name": "required"}).
			WithOp("openhouse.Register")
	}

	oh, err := s.store.GetOpenHouse(ctx, in.OpenHouseID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Lead{}, apperr.NotFound(msgOpenHouseNotFound)
	}
	if err != nil {
		return domain.Lead{}, apperr.Persistence("could not load open house", err).WithOp("openhouse.Register")
	}

	lead, err := s.store.CreateLead(ctx, domain.NewLead{
		OpenHouseID:         oh.ID,
		ClientID:            in.ClientID,
		Name:                name,
		Email:               strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:               normalizedPhone,
		Notes:               sanitize.TextPtr(in.Notes),
		InterestedInSimilar: in.InterestedInSimilar,
		Prequalified:        in.Prequalified,
	})
	if err != nil {
		msg := "could not store registration"
		if errors.Is(err, repository.ErrInvalidReference) {
			msg = "open house or client does not exist"
		}
		return domain.Lead{}, apperr.Persistence(msg, err).WithOp("openhouse.Register")
	}

	s.metrics.RecordOpenHouseLead()
	s.recordActivity(ctx, lead, oh)

	if s.bus != nil {
		s.bus.Publish(ctx, events.OpenHouseLeadRegistered{
			BaseEvent:   events.NewBaseEvent(),
			LeadID:      lead.ID,
			OpenHouseID: lead.OpenHouseID,
			AgentID:     oh.AgentID,
			ClientID:    lead.ClientID,
			Name:        lead.Name,
			Email:       lead.Email,
		})
	}
	return lead, nil
}

func (s *Service) recordActivity(ctx context.Context, lead domain.Lead, oh domain.OpenHouse) {
	if lead.ClientID == nil || s.activities == nil {
		return
	}
	err := s.activities.RecordRegistration(ctx, RegistrationActivity{
		LeadID:      lead.ID,
		ClientID:    *lead.ClientID,
		AgentID:     oh.AgentID,
		OpenHouseID: oh.ID,
		PropertyID:  oh.PropertyID,
	})
	if err != nil {
		s.log.WithContext(ctx).Warn("open house registration activity not recorded",
			"leadId", lead.ID, "clientId", *lead.ClientID, "error", err)
	}
}

// ListByOpenHouse returns the registrations of one open house, newest first.
func (s *Service) ListByOpenHouse(ctx context.Context, openHouseID uuid.UUID) ([]domain.Lead, error) {
	leads, err := s.store.ListByOpenHouse(ctx, openHouseID)
	if err != nil {
		return nil, apperr.Persistence("could not list registrations", err).WithOp("openhouse.ListByOpenHouse")
	}
	return leads, nil
}

// UpdateFollowUpStatus moves a registration to any of the three statuses.
func (s *Service) UpdateFollowUpStatus(ctx context.Context, leadID uuid.UUID, status string) (domain.Lead, error) {
	parsed, err := domain.ParseFollowUpStatus(status)
	if err != nil {
		return domain.Lead{}, apperr.Validation("status must be one of pending, contacted, not-interested").
			WithDetail("fields", map[string]string{"status": "oneof"})
	}

	lead, err := s.store.UpdateFollowUpStatus(ctx, leadID, parsed)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Lead{}, apperr.NotFound(msgLeadNotFound)
	}
	if err != nil {
		return domain.Lead{}, apperr.Persistence("could not update follow-up status", err).WithOp("openhouse.UpdateFollowUpStatus")
	}
	return lead, nil
}

// AuthorizeOpenHouse checks that agentID hosts the open house.
func (s *Service) AuthorizeOpenHouse(ctx context.Context, agentID, openHouseID uuid.UUID) error {
	oh, err := s.store.GetOpenHouse(ctx, openHouseID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(msgOpenHouseNotFound)
	}
	if err != nil {
		return apperr.Persistence("could not load open house", err)
	}
	if oh.AgentID != agentID {
		return apperr.Forbidden("open house belongs to another agent")
	}
	return nil
}

// AuthorizeLead checks that agentID hosts the open house the lead registered for.
func (s *Service) AuthorizeLead(ctx context.Context, agentID, leadID uuid.UUID) error {
	lead, err := s.store.GetLead(ctx, leadID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(msgLeadNotFound)
	}
	if err != nil {
		return apperr.Persistence("could not load open house lead", err)
	}
	return s.AuthorizeOpenHouse(ctx, agentID, lead.OpenHouseID)
}
