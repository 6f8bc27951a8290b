package repository

import (
	"context"
	"time"

	"estate_portal_backend/internal/leadtracking/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const followupColumns = `id, agent_id, client_id, scheduled_for, reason, status, created_at, completed_at`

// CreatePendingFollowup inserts a pending followup. The partial unique index
// on (client_id, agent_id) WHERE status = 'pending' turns a concurrent
// duplicate into ErrPendingFollowupExists.
func (r *Repository) CreatePendingFollowup(ctx context.Context, in domain.NewFollowup) (domain.Followup, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO lead_followups (agent_id, client_id, scheduled_for, reason, status)
		VALUES ($1, $2, $3, $4, 'pending')
		RETURNING `+followupColumns,
		in.AgentID, in.ClientID, in.ScheduledFor, string(in.Reason),
	)
	f, err := scanFollowup(row)
	if err != nil {
		return domain.Followup{}, translateWriteError(err)
	}
	return f, nil
}

func (r *Repository) CompleteFollowup(ctx context.Context, agentID, followupID uuid.UUID, completedAt time.Time) (domain.Followup, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE lead_followups
		SET status = 'completed', completed_at = $3
		WHERE id = $1 AND agent_id = $2 AND status = 'pending'
		RETURNING `+followupColumns,
		followupID, agentID, completedAt,
	)
	f, err := scanFollowup(row)
	if err != nil {
		return domain.Followup{}, translateNoRows(err)
	}
	return f, nil
}

func (r *Repository) GetFollowup(ctx context.Context, followupID uuid.UUID) (domain.Followup, error) {
	row := r.db.QueryRow(ctx, `SELECT `+followupColumns+` FROM lead_followups WHERE id = $1`, followupID)
	f, err := scanFollowup(row)
	if err != nil {
		return domain.Followup{}, translateNoRows(err)
	}
	return f, nil
}

func (r *Repository) ListPendingFollowups(ctx context.Context, agentID uuid.UUID) ([]domain.Followup, error) {
	return r.queryFollowups(ctx, `
		SELECT `+followupColumns+`
		FROM lead_followups
		WHERE agent_id = $1 AND status = 'pending'
		ORDER BY scheduled_for ASC, id ASC`, agentID)
}

func (r *Repository) ListDueFollowups(ctx context.Context, dueBy time.Time) ([]domain.Followup, error) {
	return r.queryFollowups(ctx, `
		SELECT `+followupColumns+`
		FROM lead_followups
		WHERE status = 'pending' AND scheduled_for <= $1
		ORDER BY agent_id, scheduled_for ASC`, dueBy)
}

func (r *Repository) queryFollowups(ctx context.Context, query string, args ...any) ([]domain.Followup, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Followup
	for rows.Next() {
		f, err := scanFollowup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func scanFollowup(row pgx.Row) (domain.Followup, error) {
	var (
		f      domain.Followup
		reason string
		status string
	)
	if err := row.Scan(&f.ID, &f.AgentID, &f.ClientID, &f.ScheduledFor, &reason, &status, &f.CreatedAt, &f.CompletedAt); err != nil {
		return domain.Followup{}, err
	}
	f.Reason = domain.FollowupReason(reason)
	f.Status = domain.FollowupStatus(status)
	return f, nil
}
