package repository

import (
	"context"
	"time"

	"estate_portal_backend/internal/leadtracking/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// GetClientProfile reads prequalification facts. The expiry DATE is read as
// midnight UTC of that day.
func (r *Repository) GetClientProfile(ctx context.Context, clientID uuid.UUID) (domain.ClientProfile, error) {
	var (
		p       domain.ClientProfile
		amount  pgtype.Numeric
		expires pgtype.Date
	)
	err := r.db.QueryRow(ctx, `
		SELECT client_id, prequalified, prequal_amount, prequal_lender, prequal_expires_on, preferred_areas
		FROM client_profiles
		WHERE client_id = $1`, clientID,
	).Scan(&p.ClientID, &p.Prequalified, &amount, &p.PrequalLender, &expires, &p.PreferredAreas)
	if err != nil {
		return domain.ClientProfile{}, translateNoRows(err)
	}

	if amount.Valid {
		f, err := amount.Float64Value()
		if err != nil {
			return domain.ClientProfile{}, err
		}
		if f.Valid {
			p.PrequalAmount = &f.Float64
		}
	}
	if expires.Valid {
		t := time.Date(expires.Time.Year(), expires.Time.Month(), expires.Time.Day(), 0, 0, 0, 0, time.UTC)
		p.PrequalExpiresOn = &t
	}
	return p, nil
}

func (r *Repository) GetProperties(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Property, error) {
	out := make(map[uuid.UUID]domain.Property, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.db.Query(ctx, `SELECT id, city FROM properties WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.Property
		if err := rows.Scan(&p.ID, &p.City); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (r *Repository) GetAgentContact(ctx context.Context, agentID uuid.UUID) (AgentContact, error) {
	var a AgentContact
	err := r.db.QueryRow(ctx, `SELECT id, name, email FROM agents WHERE id = $1`, agentID).
		Scan(&a.ID, &a.Name, &a.Email)
	if err != nil {
		return AgentContact{}, translateNoRows(err)
	}
	return a, nil
}
