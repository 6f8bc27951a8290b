package adapters

import (
	"context"

	ltdomain "estate_portal_backend/internal/leadtracking/domain"
	ltrepo "estate_portal_backend/internal/leadtracking/repository"
	ohservice "estate_portal_backend/internal/openhouse/service"
)

// OpenHouseActivityRecorder writes open-house registrations of known clients
// into the lead tracking activity log. The score is recomputed on the next
// tracked activity or an explicit recompute.
type OpenHouseActivityRecorder struct {
	store ltrepo.ActivityStore
}

func NewOpenHouseActivityRecorder(store ltrepo.ActivityStore) *OpenHouseActivityRecorder {
	return &OpenHouseActivityRecorder{store: store}
}

func (a *OpenHouseActivityRecorder) RecordRegistration(ctx context.Context, r ohservice.RegistrationActivity) error {
	propertyID := r.PropertyID
	_, err := a.store.Append(ctx, ltdomain.ActivityInput{
		ClientID:   r.ClientID,
		AgentID:    r.AgentID,
		Type:       ltdomain.ActivityOpenHouseRegistration,
		PropertyID: &propertyID,
		Metadata: map[string]any{
			"openHouseId": r.OpenHouseID.String(),
			"leadId":      r.LeadID.String(),
		},
	})
	return err
}

var _ ohservice.ActivityRecorder = (*OpenHouseActivityRecorder)(nil)
