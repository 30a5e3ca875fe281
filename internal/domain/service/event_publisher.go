package service

import (
	"context"
	"time"
)

// TaskEventType names what happened to a task.
type TaskEventType string

const (
	TaskEventCreated TaskEventType = "task.created"
	TaskEventUpdated TaskEventType = "task.updated"
	TaskEventDeleted TaskEventType = "task.deleted"
)

// TaskEvent is published after a task mutation has been committed.
type TaskEvent struct {
	RequestID  string        `json:"request_id,omitempty"` // For distributed tracing
	Type       TaskEventType `json:"type"`
	TaskID     string        `json:"task_id"`
	UserID     string        `json:"user_id"`
	ParentID   string        `json:"parent_id,omitempty"`
	Completed  bool          `json:"completed"`
	RemovedIDs []string      `json:"removed_ids,omitempty"` // Descendants removed with a delete
	OccurredAt time.Time     `json:"occurred_at"`
}

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	// PublishTaskEvent publishes a task event for async consumers
	PublishTaskEvent(ctx context.Context, event *TaskEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
