package entity

import (
	"time"

	"github.com/google/uuid"
)

// TaskActivity is one entry of a task's history, recorded from a delivered task event.
type TaskActivity struct {
	ID           uuid.UUID
	MessageID    string // Delivery ID of the event; recording the same message twice is a no-op
	EventType    string
	TaskID       string
	UserID       uuid.UUID
	Completed    bool
	RemovedCount int
	RequestID    string
	OccurredAt   time.Time
	RecordedAt   time.Time
}
