package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskModel mirrors the 'tasks' table. parent_id points at another task of the same
// user but carries no foreign key; user_id references the auth service's users.
type TaskModel struct {
	ID        string     `gorm:"type:text;primaryKey"`
	Text      string     `gorm:"type:text;not null"`
	Completed bool       `gorm:"not null;default:false"`
	DueDate   *time.Time `gorm:"column:due_date"`
	ParentID  *string    `gorm:"type:text;column:parent_id;index:idx_tasks_parent_id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_tasks_user_id"`
	CreatedAt time.Time  `gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"not null;autoUpdateTime"`
}

// TableName explicitly sets the table name for GORM.
func (TaskModel) TableName() string {
	return "tasks"
}

// BeforeCreate applies the random UUID default when the caller did not choose an ID,
// so inserts behave the same on databases without the column default.
func (m *TaskModel) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	return nil
}
