package impl

import (
	"context"
	"log/slog"
	"strings"

	"tasker/config"
	deliverycontext "tasker/internal/delivery/context"
	"tasker/internal/domain/entity"
	"tasker/internal/domain/repository"
	"tasker/internal/domain/service"
	"tasker/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type taskActivityService struct {
	activityRepo repository.TaskActivityRepository
	listLimit    int
	logger       *slog.Logger
}

// NewTaskActivityService is the constructor for taskActivityService.
func NewTaskActivityService(
	activityRepo repository.TaskActivityRepository,
	cfg *config.Config,
	logger *slog.Logger,
) usecase.TaskActivityUsecase {
	var listLimit int
	if cfg != nil && cfg.Tasks != nil {
		listLimit = cfg.Tasks.ListLimit
	}

	return &taskActivityService{
		activityRepo: activityRepo,
		listLimit:    listLimit,
		logger:       logger,
	}
}

func (s *taskActivityService) RecordTaskEvent(ctx context.Context, input usecase.RecordTaskEventInput) (bool, error) {
	activity, err := activityFromEvent(input.MessageID, input.Event)
	if err != nil {
		return false, err
	}

	err = s.activityRepo.Record(ctx, activity)
	if errors.Is(err, repository.ErrActivityAlreadyRecorded) {
		deliverycontext.GetLoggerOrDefault(ctx, s.logger).Debug("Task event already recorded",
			slog.String("message_id", input.MessageID),
		)

		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "record task activity")
	}

	return true, nil
}

func (s *taskActivityService) ListTaskActivity(ctx context.Context, userID uuid.UUID, taskID string) ([]*entity.TaskActivity, error) {
	activities, err := s.activityRepo.ListByTask(ctx, userID, taskID, s.listLimit)
	if err != nil {
		return nil, errors.Wrap(err, "list task activity")
	}

	return activities, nil
}

func activityFromEvent(messageID string, event *service.TaskEvent) (*entity.TaskActivity, error) {
	if event == nil {
		return nil, errors.Wrap(usecase.ErrInvalidTaskEvent, "empty event")
	}
	if strings.TrimSpace(messageID) == "" {
		return nil, errors.Wrap(usecase.ErrInvalidTaskEvent, "missing message id")
	}

	switch event.Type {
	case service.TaskEventCreated, service.TaskEventUpdated, service.TaskEventDeleted:
	default:
		return nil, errors.Wrapf(usecase.ErrInvalidTaskEvent, "unknown event type %q", event.Type)
	}

	if event.TaskID == "" {
		return nil, errors.Wrap(usecase.ErrInvalidTaskEvent, "missing task id")
	}

	userID, err := uuid.Parse(event.UserID)
	if err != nil {
		return nil, errors.Wrapf(usecase.ErrInvalidTaskEvent, "invalid user id %q", event.UserID)
	}

	return &entity.TaskActivity{
		MessageID:    messageID,
		EventType:    string(event.Type),
		TaskID:       event.TaskID,
		UserID:       userID,
		Completed:    event.Completed,
		RemovedCount: len(event.RemovedIDs),
		RequestID:    event.RequestID,
		OccurredAt:   event.OccurredAt,
	}, nil
}
