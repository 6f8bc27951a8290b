package repository

import (
	"context"
	"errors"

	"estate_portal_backend/internal/openhouse/domain"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrInvalidReference means the open house or client does not exist.
	ErrInvalidReference = errors.New("referenced record does not exist")
)

// Store persists open-house registrations.
type Store interface {
	GetOpenHouse(ctx context.Context, id uuid.UUID) (domain.OpenHouse, error)
	CreateLead(ctx context.Context, in domain.NewLead) (domain.Lead, error)
	GetLead(ctx context.Context, id uuid.UUID) (domain.Lead, error)
	// ListByOpenHouse returns registrations newest first.
	ListByOpenHouse(ctx context.Context, openHouseID uuid.UUID) ([]domain.Lead, error)
	UpdateFollowUpStatus(ctx context.Context, leadID uuid.UUID, status domain.FollowUpStatus) (domain.Lead, error)
}
