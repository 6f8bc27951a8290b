package scheduler

import (
	"context"
	"fmt"

	"estate_portal_backend/internal/events"
	"estate_portal_backend/internal/leadtracking/domain"
	"estate_portal_backend/platform/apperr"
	"estate_portal_backend/platform/config"
	"estate_portal_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// FollowupReader loads a followup by id.
type FollowupReader interface {
	Get(ctx context.Context, followupID uuid.UUID) (domain.Followup, error)
}

// Worker processes due followup reminders.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, followups FollowupReader, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	mux := asynq.NewServeMux()
	mux.Handle(TaskFollowupDue, NewFollowupDueHandler(followups, bus, log))

	return &Worker{server: server, mux: mux, log: log}, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// FollowupDueHandler turns a fired reminder into a FollowupDue event. A
// followup that was completed or removed in the meantime is skipped.
type FollowupDueHandler struct {
	followups FollowupReader
	bus       events.Bus
	log       *logger.Logger
}

func NewFollowupDueHandler(followups FollowupReader, bus events.Bus, log *logger.Logger) *FollowupDueHandler {
	return &FollowupDueHandler{followups: followups, bus: bus, log: log}
}

func (h *FollowupDueHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseFollowupDuePayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	followupID, err := uuid.Parse(payload.FollowupID)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	f, err := h.followups.Get(ctx, followupID)
	if apperr.Is(err, apperr.KindNotFound) {
		h.log.Info("followup reminder skipped, followup gone", "followupId", followupID)
		return nil
	}
	if err != nil {
		return err
	}
	if f.Status != domain.FollowupPending {
		return nil
	}

	return h.bus.PublishSync(ctx, events.FollowupDue{
		BaseEvent:    events.NewBaseEvent(),
		FollowupID:   f.ID,
		ClientID:     f.ClientID,
		AgentID:      f.AgentID,
		Reason:       string(f.Reason),
		ScheduledFor: f.ScheduledFor,
	})
}

var _ asynq.Handler = (*FollowupDueHandler)(nil)
