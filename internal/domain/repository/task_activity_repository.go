package repository

import (
	"context"
	"errors"

	"tasker/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrActivityAlreadyRecorded is returned when a message was recorded before.
var ErrActivityAlreadyRecorded = errors.New("activity already recorded")

// TaskActivityRepository stores the history of task events.
type TaskActivityRepository interface {
	// Record stores a new activity entry. It returns ErrActivityAlreadyRecorded for a
	// message ID that is already stored.
	Record(ctx context.Context, activity *entity.TaskActivity) error

	// ListByTask returns the newest entries for a task owned by userID first.
	ListByTask(ctx context.Context, userID uuid.UUID, taskID string, limit int) ([]*entity.TaskActivity, error)
}
