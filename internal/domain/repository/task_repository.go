// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"tasker/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrTaskNotFound is returned when a task does not exist or belongs to another user.
var ErrTaskNotFound = errors.New("task not found")

// TaskRepository defines the persistence operations for tasks.
// Every read and write is scoped to the owning user.
type TaskRepository interface {
	// Create inserts a task, applying the storage defaults, and returns the stored record.
	Create(ctx context.Context, task *entity.NewTask) (*entity.Task, error)

	// FindByID retrieves a single task owned by userID.
	FindByID(ctx context.Context, userID uuid.UUID, id string) (*entity.Task, error)

	// List retrieves the tasks matching the filter, oldest first.
	List(ctx context.Context, filter entity.TaskFilter) ([]*entity.Task, error)

	// LockUserTasks row-locks every task owned by userID until the surrounding
	// transaction ends, serializing moves within one user's tree.
	LockUserTasks(ctx context.Context, userID uuid.UUID) error

	// FindChildren retrieves the direct children of the given parents.
	FindChildren(ctx context.Context, userID uuid.UUID, parentIDs []string) ([]*entity.Task, error)

	// Update persists the mutable fields of an existing task and refreshes UpdatedAt.
	Update(ctx context.Context, task *entity.Task) error

	// DeleteByIDs removes the listed tasks owned by userID and returns how many were removed.
	DeleteByIDs(ctx context.Context, userID uuid.UUID, ids []string) (int64, error)
}
