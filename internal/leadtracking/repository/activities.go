package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"

	"estate_portal_backend/internal/leadtracking/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const activityColumns = `id, client_id, agent_id, activity_type, property_id, metadata, created_at`

func (r *Repository) Append(ctx context.Context, in domain.ActivityInput) (domain.Activity, error) {
	metadata := in.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	payload, err := json.Marshal(metadata)
	if err != nil {
		return domain.Activity{}, fmt.Errorf("encode activity metadata: %w", err)
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO lead_activities (client_id, agent_id, activity_type, property_id, metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+activityColumns,
		in.ClientID, in.AgentID, string(in.Type), in.PropertyID, payload,
	)

	activity, err := scanActivity(row)
	if err != nil {
		return domain.Activity{}, translateWriteError(err)
	}
	return activity, nil
}

func (r *Repository) ListForAgent(ctx context.Context, agentID uuid.UUID) iter.Seq2[domain.Activity, error] {
	return func(yield func(domain.Activity, error) bool) {
		rows, err := r.db.Query(ctx, `
			SELECT `+activityColumns+`
			FROM lead_activities
			WHERE agent_id = $1
			ORDER BY created_at DESC, id DESC`, agentID)
		if err != nil {
			yield(domain.Activity{}, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			activity, err := scanActivity(rows)
			if !yield(activity, err) || err != nil {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(domain.Activity{}, err)
		}
	}
}

func (r *Repository) ListForPair(ctx context.Context, clientID, agentID uuid.UUID) ([]domain.Activity, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+activityColumns+`
		FROM lead_activities
		WHERE client_id = $1 AND agent_id = $2
		ORDER BY created_at DESC, id DESC`, clientID, agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Activity
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, activity)
	}
	return out, rows.Err()
}

func scanActivity(row pgx.Row) (domain.Activity, error) {
	var (
		a        domain.Activity
		kind     string
		metadata []byte
	)
	if err := row.Scan(&a.ID, &a.ClientID, &a.AgentID, &kind, &a.PropertyID, &metadata, &a.CreatedAt); err != nil {
		return domain.Activity{}, err
	}
	a.Type = domain.ActivityType(kind)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &a.Metadata); err != nil {
			return domain.Activity{}, fmt.Errorf("decode activity metadata: %w", err)
		}
	}
	return a, nil
}
