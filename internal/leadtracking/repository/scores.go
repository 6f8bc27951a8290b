package repository

import (
	"context"

	"estate_portal_backend/internal/leadtracking/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const scoreColumns = `id, client_id, agent_id, total_score, prequalification_score,
	property_match_score, engagement_score, last_calculated_at`

// UpsertScore writes the score for its pair. The stored row is replaced
// wholesale so concurrent recomputations resolve as last write wins.
func (r *Repository) UpsertScore(ctx context.Context, s domain.LeadScore) (domain.LeadScore, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO lead_scores (
			client_id, agent_id, total_score, prequalification_score,
			property_match_score, engagement_score, last_calculated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (client_id, agent_id) DO UPDATE SET
			total_score = EXCLUDED.total_score,
			prequalification_score = EXCLUDED.prequalification_score,
			property_match_score = EXCLUDED.property_match_score,
			engagement_score = EXCLUDED.engagement_score,
			last_calculated_at = EXCLUDED.last_calculated_at
		RETURNING `+scoreColumns,
		s.ClientID, s.AgentID, s.TotalScore, s.PrequalificationScore,
		s.PropertyMatchScore, s.EngagementScore, s.LastCalculatedAt,
	)
	out, err := scanScore(row)
	if err != nil {
		return domain.LeadScore{}, translateWriteError(err)
	}
	return out, nil
}

func (r *Repository) GetScore(ctx context.Context, clientID, agentID uuid.UUID) (domain.LeadScore, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+scoreColumns+`
		FROM lead_scores
		WHERE client_id = $1 AND agent_id = $2`, clientID, agentID)
	out, err := scanScore(row)
	if err != nil {
		return domain.LeadScore{}, translateNoRows(err)
	}
	return out, nil
}

func (r *Repository) ListScoresForAgent(ctx context.Context, agentID uuid.UUID) ([]domain.LeadScore, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+scoreColumns+`
		FROM lead_scores
		WHERE agent_id = $1
		ORDER BY total_score DESC, last_calculated_at DESC`, agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LeadScore
	for rows.Next() {
		s, err := scanScore(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanScore(row pgx.Row) (domain.LeadScore, error) {
	var s domain.LeadScore
	err := row.Scan(&s.ID, &s.ClientID, &s.AgentID, &s.TotalScore, &s.PrequalificationScore,
		&s.PropertyMatchScore, &s.EngagementScore, &s.LastCalculatedAt)
	return s, err
}
