package transport

import (
	"time"

	"estate_portal_backend/internal/openhouse/domain"

	"github.com/google/uuid"
)

// RegisterLeadRequest is the public sign-in form body. The open house id
// comes from the path and the client, if any, from the access token.
type RegisterLeadRequest struct {
	Name                string     `json:"name" validate:"required,max=200"`
	Email               string     `json:"email" validate:"required,email,max=254"`
	Phone               string     `json:"phone" validate:"required,max=32"`
	Notes               *string    `json:"notes" validate:"omitempty,max=2000"`
	InterestedInSimilar bool       `json:"interestedInSimilar"`
	Prequalified        *bool      `json:"prequalified"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending contacted not-interested"`
}

type LeadResponse struct {
	ID                  uuid.UUID  `json:"id"`
	OpenHouseID         uuid.UUID  `json:"openHouseId"`
	ClientID            *uuid.UUID `json:"clientId,omitempty"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	Phone               string     `json:"phone"`
	Notes               *string    `json:"notes,omitempty"`
	InterestedInSimilar bool       `json:"interestedInSimilar"`
	Prequalified        *bool      `json:"prequalified,omitempty"`
	RegistrationDate    time.Time  `json:"registrationDate"`
	FollowUpStatus      string     `json:"followUpStatus"`
}

// RegisterLeadResponse omits the visitor's contact details.
type RegisterLeadResponse struct {
	ID               uuid.UUID `json:"id"`
	RegistrationDate time.Time `json:"registrationDate"`
}

type ListLeadsResponse struct {
	Items []LeadResponse `json:"items"`
}

func ToLeadResponse(l domain.Lead) LeadResponse {
	return LeadResponse{
		ID:                  l.ID,
		OpenHouseID:         l.OpenHouseID,
		ClientID:            l.ClientID,
		Name:                l.Name,
		Email:               l.Email,
		Phone:               l.Phone,
		Notes:               l.Notes,
		InterestedInSimilar: l.InterestedInSimilar,
		Prequalified:        l.Prequalified,
		RegistrationDate:    l.RegistrationDate,
		FollowUpStatus:      string(l.FollowUpStatus),
	}
}
