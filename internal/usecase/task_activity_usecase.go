package usecase

import (
	"context"
	"errors"

	"tasker/internal/domain/entity"
	"tasker/internal/domain/service"

	"github.com/google/uuid"
)

// ErrInvalidTaskEvent marks an event that can never be recorded, however often it is redelivered.
var ErrInvalidTaskEvent = errors.New("invalid task event")

// RecordTaskEventInput is one delivered task event.
type RecordTaskEventInput struct {
	MessageID string
	Event     *service.TaskEvent
}

// TaskActivityUsecase keeps the history of task events.
type TaskActivityUsecase interface {
	// RecordTaskEvent stores the event. Redelivery of a recorded message reports false
	// without an error.
	RecordTaskEvent(ctx context.Context, input RecordTaskEventInput) (recorded bool, err error)

	// ListTaskActivity returns the history of one of the user's tasks, newest first.
	ListTaskActivity(ctx context.Context, userID uuid.UUID, taskID string) ([]*entity.TaskActivity, error)
}
