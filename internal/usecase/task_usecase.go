package usecase

import (
	"context"
	"time"

	"tasker/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// CreateTaskInput defines the data required to create a task.
type CreateTaskInput struct {
	UserID    uuid.UUID
	Text      string
	Completed *bool
	DueDate   *time.Time
	ParentID  *string
}

// ListTasksInput narrows a task listing.
type ListTasksInput struct {
	UserID    uuid.UUID
	Completed *bool
	ParentID  *string
	RootsOnly bool
}

// UpdateTaskInput names the task to change and the fields to change on it.
type UpdateTaskInput struct {
	UserID uuid.UUID
	TaskID string
	Patch  entity.TaskPatch
}

// --- Output DTOs ---

// DeleteTaskOutput reports the removed task and the descendants removed with it.
type DeleteTaskOutput struct {
	TaskID     string
	RemovedIDs []string
}

// TaskUsecase defines the task operations available to an authenticated identity.
// Every operation is scoped to the identity's own tasks.
type TaskUsecase interface {
	CreateTask(ctx context.Context, input CreateTaskInput) (*entity.Task, error)
	GetTask(ctx context.Context, userID uuid.UUID, taskID string) (*entity.Task, error)
	ListTasks(ctx context.Context, input ListTasksInput) ([]*entity.Task, error)
	GetTaskTree(ctx context.Context, userID uuid.UUID) ([]*entity.TaskNode, error)
	UpdateTask(ctx context.Context, input UpdateTaskInput) (*entity.Task, error)
	ToggleTask(ctx context.Context, userID uuid.UUID, taskID string) (*entity.Task, error)
	DeleteTask(ctx context.Context, userID uuid.UUID, taskID string) (*DeleteTaskOutput, error)
}
