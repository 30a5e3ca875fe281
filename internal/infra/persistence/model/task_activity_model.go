package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskActivityModel mirrors the 'task_activity' table.
type TaskActivityModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	MessageID    string    `gorm:"type:text;not null;uniqueIndex:idx_task_activity_message_id"`
	EventType    string    `gorm:"type:text;not null"`
	TaskID       string    `gorm:"type:text;not null;index:idx_task_activity_task,priority:2"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index:idx_task_activity_task,priority:1"`
	Completed    bool      `gorm:"not null;default:false"`
	RemovedCount int       `gorm:"not null;default:0"`
	RequestID    string    `gorm:"type:text"`
	OccurredAt   time.Time `gorm:"not null"`
	RecordedAt   time.Time `gorm:"not null;autoCreateTime"`
}

// TableName explicitly sets the table name for GORM.
func (TaskActivityModel) TableName() string {
	return "task_activity"
}

func (m *TaskActivityModel) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}

	return nil
}
