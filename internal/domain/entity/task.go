package entity

import (
	"time"

	"github.com/google/uuid"
)

// Task is a persisted to-do item owned by a single identity.
// Tasks form trees through ParentID; the database does not enforce the reference.
type Task struct {
	ID        string     // Server-generated random UUID.
	Text      string     // The task text, always present.
	Completed bool       // Defaults to false.
	DueDate   *time.Time // Optional due date, timezone aware.
	ParentID  *string    // Optional parent task ID.
	UserID    uuid.UUID  // The owning identity.
	CreatedAt time.Time  // Set on insert.
	UpdatedAt time.Time  // Set on insert and on every update.
}

// IsRoot reports whether the task has no parent.
func (t *Task) IsRoot() bool {
	return t.ParentID == nil || *t.ParentID == ""
}

// NewTask is the insert shape of a task. Server-defaulted fields are optional:
// a zero ID, CreatedAt or UpdatedAt is filled in by the storage layer, and a nil
// Completed stores false.
type NewTask struct {
	ID        string
	Text      string
	Completed *bool
	DueDate   *time.Time
	ParentID  *string
	UserID    uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TaskNode is a task together with its subtasks.
type TaskNode struct {
	Task     *Task
	Children []*TaskNode
}

// TaskFilter narrows a task listing for one owner.
type TaskFilter struct {
	UserID    uuid.UUID
	Completed *bool   // Only tasks with this completion state.
	ParentID  *string // Only direct children of this task.
	RootsOnly bool    // Only tasks without a parent. Ignored when ParentID is set.
	Limit     int     // Zero means no limit.
}

// TaskPatch lists the fields to change on an existing task. Nil fields are left alone.
type TaskPatch struct {
	Text          *string
	Completed     *bool
	DueDate       *time.Time
	ClearDueDate  bool
	ParentID      *string
	ClearParentID bool
}
