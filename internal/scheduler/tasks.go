package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskFollowupDue = "followups.due"

type FollowupDuePayload struct {
	FollowupID string `json:"followupId"`
}

func NewFollowupDueTask(payload FollowupDuePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFollowupDue, data), nil
}

func ParseFollowupDuePayload(task *asynq.Task) (FollowupDuePayload, error) {
	var payload FollowupDuePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return FollowupDuePayload{}, err
	}
	return payload, nil
}

// followupTaskID makes re-enqueueing the same followup a no-op.
func followupTaskID(followupID string) string {
	return "followup:" + followupID
}
