// Package memstore is an in-memory implementation of the lead-tracking
// repository interfaces. It backs service tests and local development.
package memstore

import (
	"cmp"
	"context"
	"iter"
	"maps"
	"slices"
	"sync"
	"time"

	"estate_portal_backend/internal/leadtracking/domain"
	"estate_portal_backend/internal/leadtracking/repository"

	"github.com/google/uuid"
)

type pairKey struct {
	client uuid.UUID
	agent  uuid.UUID
}

// Store keeps every table in maps guarded by a single mutex. Collaborator
// data (agents, clients, profiles, properties) is seeded with the Put methods.
type Store struct {
	mu  sync.Mutex
	now func() time.Time

	agents     map[uuid.UUID]repository.AgentContact
	clients    map[uuid.UUID]struct{}
	profiles   map[uuid.UUID]domain.ClientProfile
	properties map[uuid.UUID]domain.Property

	activities []domain.Activity
	scores     map[pairKey]domain.LeadScore
	followups  map[uuid.UUID]domain.Followup
}

// New returns an empty store.
func New() *Store {
	return &Store{
		now:        func() time.Time { return time.Now().UTC() },
		agents:     make(map[uuid.UUID]repository.AgentContact),
		clients:    make(map[uuid.UUID]struct{}),
		profiles:   make(map[uuid.UUID]domain.ClientProfile),
		properties: make(map[uuid.UUID]domain.Property),
		scores:     make(map[pairKey]domain.LeadScore),
		followups:  make(map[uuid.UUID]domain.Followup),
	}
}

var _ repository.LeadTrackingRepository = (*Store)(nil)

// WithClock overrides the timestamp source used for CreatedAt values.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

// PutAgent registers an agent.
func (s *Store) PutAgent(a repository.AgentContact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents[a.ID] = a
}

// PutClient registers a client without a profile.
func (s *Store) PutClient(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[id] = struct{}{}
}

// PutProfile registers a client and its profile.
func (s *Store) PutProfile(p domain.ClientProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[p.ClientID] = struct{}{}
	s.profiles[p.ClientID] = p
}

// PutProperty registers a listing.
func (s *Store) PutProperty(p domain.Property) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.properties[p.ID] = p
}

func (s *Store) Append(_ context.Context, in domain.ActivityInput) (domain.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.agents[in.AgentID]; !ok {
		return domain.Activity{}, repository.ErrInvalidReference
	}
	if _, ok := s.clients[in.ClientID]; !ok {
		return domain.Activity{}, repository.ErrInvalidReference
	}

	a := domain.Activity{
		ID:         uuid.New(),
		ClientID:   in.ClientID,
		AgentID:    in.AgentID,
		Type:       in.Type,
		PropertyID: in.PropertyID,
		Metadata:   maps.Clone(in.Metadata),
		CreatedAt:  s.now(),
	}
	s.activities = append(s.activities, a)
	return a, nil
}

func (s *Store) ListForAgent(ctx context.Context, agentID uuid.UUID) iter.Seq2[domain.Activity, error] {
	return func(yield func(domain.Activity, error) bool) {
		snapshot := s.filterActivities(func(a domain.Activity) bool { return a.AgentID == agentID })
		for _, a := range snapshot {
			if err := ctx.Err(); err != nil {
				yield(domain.Activity{}, err)
				return
			}
			if !yield(a, nil) {
				return
			}
		}
	}
}

func (s *Store) ListForPair(_ context.Context, clientID, agentID uuid.UUID) ([]domain.Activity, error) {
	return s.filterActivities(func(a domain.Activity) bool {
		return a.ClientID == clientID && a.AgentID == agentID
	}), nil
}

// filterActivities returns matches newest first; appends break ties so the
// ordering is stable even with identical timestamps.
func (s *Store) filterActivities(keep func(domain.Activity) bool) []domain.Activity {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Activity
	for i := len(s.activities) - 1; i >= 0; i-- {
		if keep(s.activities[i]) {
			out = append(out, s.activities[i])
		}
	}
	slices.SortStableFunc(out, func(a, b domain.Activity) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

func (s *Store) UpsertScore(_ context.Context, score domain.LeadScore) (domain.LeadScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{client: score.ClientID, agent: score.AgentID}
	if existing, ok := s.scores[key]; ok {
		score.ID = existing.ID
	} else {
		score.ID = uuid.New()
	}
	s.scores[key] = score
	return score, nil
}

func (s *Store) GetScore(_ context.Context, clientID, agentID uuid.UUID) (domain.LeadScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	score, ok := s.scores[pairKey{client: clientID, agent: agentID}]
	if !ok {
		return domain.LeadScore{}, repository.ErrNotFound
	}
	return score, nil
}

func (s *Store) ListScoresForAgent(_ context.Context, agentID uuid.UUID) ([]domain.LeadScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.LeadScore
	for key, score := range s.scores {
		if key.agent == agentID {
			out = append(out, score)
		}
	}
	slices.SortFunc(out, func(a, b domain.LeadScore) int {
		if c := cmp.Compare(b.TotalScore, a.TotalScore); c != 0 {
			return c
		}
		return b.LastCalculatedAt.Compare(a.LastCalculatedAt)
	})
	return out, nil
}

// CreatePendingFollowup performs the pending-row check and the insert under
// one lock, mirroring the partial unique index of the Postgres schema.
func (s *Store) CreatePendingFollowup(_ context.Context, in domain.NewFollowup) (domain.Followup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.agents[in.AgentID]; !ok {
		return domain.Followup{}, repository.ErrInvalidReference
	}
	for _, f := range s.followups {
		if f.Status == domain.FollowupPending && f.ClientID == in.ClientID && f.AgentID == in.AgentID {
			return domain.Followup{}, repository.ErrPendingFollowupExists
		}
	}

	f := domain.Followup{
		ID:           uuid.New(),
		AgentID:      in.AgentID,
		ClientID:     in.ClientID,
		ScheduledFor: in.ScheduledFor,
		Reason:       in.Reason,
		Status:       domain.FollowupPending,
		CreatedAt:    s.now(),
	}
	s.followups[f.ID] = f
	return f, nil
}

func (s *Store) CompleteFollowup(_ context.Context, agentID, followupID uuid.UUID, completedAt time.Time) (domain.Followup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.followups[followupID]
	if !ok || f.AgentID != agentID || f.Status != domain.FollowupPending {
		return domain.Followup{}, repository.ErrNotFound
	}
	f.Status = domain.FollowupCompleted
	f.CompletedAt = &completedAt
	s.followups[followupID] = f
	return f, nil
}

func (s *Store) GetFollowup(_ context.Context, followupID uuid.UUID) (domain.Followup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.followups[followupID]
	if !ok {
		return domain.Followup{}, repository.ErrNotFound
	}
	return f, nil
}

func (s *Store) ListPendingFollowups(_ context.Context, agentID uuid.UUID) ([]domain.Followup, error) {
	return s.pendingFollowups(func(f domain.Followup) bool { return f.AgentID == agentID }), nil
}

func (s *Store) ListDueFollowups(_ context.Context, dueBy time.Time) ([]domain.Followup, error) {
	return s.pendingFollowups(func(f domain.Followup) bool { return !f.ScheduledFor.After(dueBy) }), nil
}

func (s *Store) pendingFollowups(keep func(domain.Followup) bool) []domain.Followup {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Followup
	for _, f := range s.followups {
		if f.Status == domain.FollowupPending && keep(f) {
			out = append(out, f)
		}
	}
	slices.SortFunc(out, func(a, b domain.Followup) int {
		if c := a.ScheduledFor.Compare(b.ScheduledFor); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return out
}

func (s *Store) GetClientProfile(_ context.Context, clientID uuid.UUID) (domain.ClientProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[clientID]
	if !ok {
		return domain.ClientProfile{}, repository.ErrNotFound
	}
	p.PreferredAreas = slices.Clone(p.PreferredAreas)
	return p, nil
}

func (s *Store) GetProperties(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[uuid.UUID]domain.Property, len(ids))
	for _, id := range ids {
		if p, ok := s.properties[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (s *Store) GetAgentContact(_ context.Context, agentID uuid.UUID) (repository.AgentContact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.agents[agentID]
	if !ok {
		return repository.AgentContact{}, repository.ErrNotFound
	}
	return a, nil
}
