package repository

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"estate_portal_backend/internal/openhouse/domain"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store for tests and local runs without
// Postgres.
type MemoryStore struct {
	mu         sync.Mutex
	openHouses map[uuid.UUID]domain.OpenHouse
	leads      map[uuid.UUID]domain.Lead
	now        func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		openHouses: make(map[uuid.UUID]domain.OpenHouse),
		leads:      make(map[uuid.UUID]domain.Lead),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the registration timestamp source.
func (m *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	m.now = now
	return m
}

func (m *MemoryStore) PutOpenHouse(oh domain.OpenHouse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openHouses[oh.ID] = oh
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) GetOpenHouse(_ context.Context, id uuid.UUID) (domain.OpenHouse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	oh, ok := m.openHouses[id]
	if !ok {
		return domain.OpenHouse{}, ErrNotFound
	}
	return oh, nil
}

func (m *MemoryStore) CreateLead(_ context.Context, in domain.NewLead) (domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.openHouses[in.OpenHouseID]; !ok {
		return domain.Lead{}, ErrInvalidReference
	}
	lead := domain.Lead{
		ID:                  uuid.New(),
		OpenHouseID:         in.OpenHouseID,
		ClientID:            in.ClientID,
		Name:                in.Name,
		Email:               in.Email,
		Phone:               in.Phone,
		Notes:               in.Notes,
		InterestedInSimilar: in.InterestedInSimilar,
		Prequalified:        in.Prequalified,
		RegistrationDate:    m.now(),
		FollowUpStatus:      domain.StatusPending,
	}
	m.leads[lead.ID] = lead
	return lead, nil
}

func (m *MemoryStore) GetLead(_ context.Context, id uuid.UUID) (domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.leads[id]
	if !ok {
		return domain.Lead{}, ErrNotFound
	}
	return lead, nil
}

func (m *MemoryStore) ListByOpenHouse(_ context.Context, openHouseID uuid.UUID) ([]domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Lead, 0)
	for _, l := range m.leads {
		if l.OpenHouseID == openHouseID {
			out = append(out, l)
		}
	}
	slices.SortFunc(out, func(a, b domain.Lead) int {
		if c := b.RegistrationDate.Compare(a.RegistrationDate); c != 0 {
			return c
		}
		return cmp.Compare(b.ID.String(), a.ID.String())
	})
	return out, nil
}

func (m *MemoryStore) UpdateFollowUpStatus(_ context.Context, leadID uuid.UUID, status domain.FollowUpStatus) (domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.leads[leadID]
	if !ok {
		return domain.Lead{}, ErrNotFound
	}
	lead.FollowUpStatus = status
	m.leads[leadID] = lead
	return lead, nil
}
