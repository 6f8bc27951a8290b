// Package repository stores open-house registrations in Postgres and in memory.
package repository

import (
	"context"
	"errors"

	"estate_portal_backend/internal/openhouse/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const leadColumns = `id, open_house_id, client_id, name, email, phone, notes,
	interested_in_similar, prequalified, registration_date, follow_up_status`

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	db DBTX
}

func New(db DBTX) *Repository {
	return &Repository{db: db}
}

var _ Store = (*Repository)(nil)

func (r *Repository) GetOpenHouse(ctx context.Context, id uuid.UUID) (domain.OpenHouse, error) {
	var oh domain.OpenHouse
	err := r.db.QueryRow(ctx,
		`SELECT id, agent_id, property_id FROM open_houses WHERE id = $1`, id,
	).Scan(&oh.ID, &oh.AgentID, &oh.PropertyID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.OpenHouse{}, ErrNotFound
	}
	return oh, err
}

func (r *Repository) CreateLead(ctx context.Context, in domain.NewLead) (domain.Lead, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO open_house_leads (
			open_house_id, client_id, name, email, phone, notes,
			interested_in_similar, prequalified, follow_up_status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending')
		RETURNING `+leadColumns,
		in.OpenHouseID, in.ClientID, in.Name, in.Email, in.Phone, in.Notes,
		in.InterestedInSimilar, in.Prequalified,
	)
	lead, err := scanLead(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return domain.Lead{}, errors.Join(ErrInvalidReference, err)
		}
		return domain.Lead{}, err
	}
	return lead, nil
}

func (r *Repository) GetLead(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	lead, err := scanLead(r.db.QueryRow(ctx, `SELECT `+leadColumns+` FROM open_house_leads WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	return lead, err
}

func (r *Repository) ListByOpenHouse(ctx context.Context, openHouseID uuid.UUID) ([]domain.Lead, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+leadColumns+`
		FROM open_house_leads
		WHERE open_house_id = $1
		ORDER BY registration_date DESC, id DESC`, openHouseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]domain.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func (r *Repository) UpdateFollowUpStatus(ctx context.Context, leadID uuid.UUID, status domain.FollowUpStatus) (domain.Lead, error) {
	lead, err := scanLead(r.db.QueryRow(ctx, `
		UPDATE open_house_leads SET follow_up_status = $2
		WHERE id = $1
		RETURNING `+leadColumns, leadID, string(status)))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	return lead, err
}

func scanLead(row pgx.Row) (domain.Lead, error) {
	var (
		l      domain.Lead
		status string
	)
	err := row.Scan(
		&l.ID, &l.OpenHouseID, &l.ClientID, &l.Name, &l.Email, &l.Phone, &l.Notes,
		&l.InterestedInSimilar, &l.Prequalified, &l.RegistrationDate, &status,
	)
	if err != nil {
		return domain.Lead{}, err
	}
	l.FollowUpStatus = domain.FollowUpStatus(status)
	return l, nil
}
