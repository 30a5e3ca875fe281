package postgres

import (
	"context"
	"testing"
	"time"

	"tasker/internal/domain/entity"
	"tasker/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskActivityRepository_RecordAndList(t *testing.T) {
	repo := NewTaskActivityRepository(setupTestDB(t))
	ctx := context.Background()
	userID := uuid.New()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	created := &entity.TaskActivity{
		MessageID:  "m-1",
		EventType:  "task.created",
		TaskID:     "task-1",
		UserID:     userID,
		RequestID:  "req-1",
		OccurredAt: base,
	}
	require.NoError(t, repo.Record(ctx, created))
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.False(t, created.RecordedAt.IsZero())

	require.NoError(t, repo.Record(ctx, &entity.TaskActivity{
		MessageID:  "m-2",
		EventType:  "task.updated",
		TaskID:     "task-1",
		UserID:     userID,
		Completed:  true,
		OccurredAt: base.Add(time.Minute),
	}))
	require.NoError(t, repo.Record(ctx, &entity.TaskActivity{
		MessageID:  "m-3",
		EventType:  "task.created",
		TaskID:     "task-2",
		UserID:     userID,
		OccurredAt: base,
	}))

	activities, err := repo.ListByTask(ctx, userID, "task-1", 10)
	require.NoError(t, err)
	require.Len(t, activities, 2)
	assert.Equal(t, "m-2", activities[0].MessageID)
	assert.True(t, activities[0].Completed)
	assert.Equal(t, "m-1", activities[1].MessageID)
	assert.Equal(t, "req-1", activities[1].RequestID)

	limited, err := repo.ListByTask(ctx, userID, "task-1", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	others, err := repo.ListByTask(ctx, uuid.New(), "task-1", 10)
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestTaskActivityRepository_RecordTwice(t *testing.T) {
	repo := NewTaskActivityRepository(setupTestDB(t))
	ctx := context.Background()

	activity := func() *entity.TaskActivity {
		return &entity.TaskActivity{
			MessageID:  "m-1",
			EventType:  "task.deleted",
			TaskID:     "task-1",
			UserID:     uuid.New(),
			OccurredAt: time.Now(),
		}
	}

	require.NoError(t, repo.Record(ctx, activity()))
	err := repo.Record(ctx, activity())
	assert.ErrorIs(t, err, repository.ErrActivityAlreadyRecorded)
}
