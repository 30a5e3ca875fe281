package postgres

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// schemaStatements bootstrap the tables tasker owns. Every statement is idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	text       TEXT NOT NULL,
	completed  BOOLEAN NOT NULL DEFAULT false,
	due_date   TIMESTAMPTZ,
	parent_id  TEXT,
	user_id    UUID NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_user_id ON tasks(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_parent_id ON tasks(parent_id)`,
	`CREATE TABLE IF NOT EXISTS task_activity (
	id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	message_id    TEXT NOT NULL,
	event_type    TEXT NOT NULL,
	task_id       TEXT NOT NULL,
	user_id       UUID NOT NULL,
	completed     BOOLEAN NOT NULL DEFAULT false,
	removed_count INTEGER NOT NULL DEFAULT 0,
	request_id    TEXT,
	occurred_at   TIMESTAMPTZ NOT NULL,
	recorded_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_task_activity_message_id ON task_activity(message_id)`,
	`CREATE INDEX IF NOT EXISTS idx_task_activity_task ON task_activity(user_id, task_id)`,
}

// EnsureSchema creates the tasks and task_activity tables and their indexes when they are missing.
func EnsureSchema(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, stmt := range schemaStatements {
			if err := tx.Exec(stmt).Error; err != nil {
				return errors.Wrap(err, "apply schema statement")
			}
		}

		return nil
	})
}
