package impl

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"tasker/config"
	"tasker/internal/domain/entity"
	"tasker/internal/domain/repository"
	"tasker/internal/domain/service"
	mockRepo "tasker/internal/mocks/repository"
	"tasker/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTaskActivityService(t *testing.T) (*mockRepo.MockTaskActivityRepository, usecase.TaskActivityUsecase) {
	t.Helper()

	repo := mockRepo.NewMockTaskActivityRepository(t)
	cfg := &config.Config{Tasks: &config.TasksConfig{ListLimit: 25}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return repo, NewTaskActivityService(repo, cfg, logger)
}

func TestTaskActivityService_RecordTaskEvent(t *testing.T) {
	repo, svc := newTaskActivityService(t)
	userID := uuid.New()
	occurredAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	repo.EXPECT().
		Record(mock.Anything, mock.MatchedBy(func(activity *entity.TaskActivity) bool {
			return activity.MessageID == "m-1" &&
				activity.EventType == "task.deleted" &&
				activity.TaskID == "t-1" &&
				activity.UserID == userID &&
				activity.RemovedCount == 2 &&
				activity.RequestID == "req-1" &&
				activity.OccurredAt.Equal(occurredAt)
		})).
		Return(nil)

	recorded, err := svc.RecordTaskEvent(context.Background(), usecase.RecordTaskEventInput{
		MessageID: "m-1",
		Event: &service.TaskEvent{
			RequestID:  "req-1",
			Type:       service.TaskEventDeleted,
			TaskID:     "t-1",
			UserID:     userID.String(),
			RemovedIDs: []string{"t-2", "t-3"},
			OccurredAt: occurredAt,
		},
	})
	require.NoError(t, err)
	assert.True(t, recorded)
}

func TestTaskActivityService_RecordTaskEvent_Redelivery(t *testing.T) {
	repo, svc := newTaskActivityService(t)

	repo.EXPECT().Record(mock.Anything, mock.Anything).Return(repository.ErrActivityAlreadyRecorded)

	recorded, err := svc.RecordTaskEvent(context.Background(), usecase.RecordTaskEventInput{
		MessageID: "m-1",
		Event:     &service.TaskEvent{Type: service.TaskEventCreated, TaskID: "t-1", UserID: uuid.NewString()},
	})
	require.NoError(t, err)
	assert.False(t, recorded)
}

func TestTaskActivityService_RecordTaskEvent_StorageFailure(t *testing.T) {
	repo, svc := newTaskActivityService(t)

	repo.EXPECT().Record(mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	_, err := svc.RecordTaskEvent(context.Background(), usecase.RecordTaskEventInput{
		MessageID: "m-1",
		Event:     &service.TaskEvent{Type: service.TaskEventCreated, TaskID: "t-1", UserID: uuid.NewString()},
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, usecase.ErrInvalidTaskEvent)
}

func TestTaskActivityService_RecordTaskEvent_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		messageID string
		event     *service.TaskEvent
	}{
		{name: "nil event", messageID: "m-1"},
		{name: "missing message id", event: &service.TaskEvent{Type: service.TaskEventCreated, TaskID: "t-1", UserID: uuid.NewString()}},
		{name: "unknown type", messageID: "m-1", event: &service.TaskEvent{Type: "task.archived", TaskID: "t-1", UserID: uuid.NewString()}},
		{name: "missing task", messageID: "m-1", event: &service.TaskEvent{Type: service.TaskEventCreated, UserID: uuid.NewString()}},
		{name: "bad user id", messageID: "m-1", event: &service.TaskEvent{Type: service.TaskEventCreated, TaskID: "t-1", UserID: "nobody"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, svc := newTaskActivityService(t)

			recorded, err := svc.RecordTaskEvent(context.Background(), usecase.RecordTaskEventInput{
				MessageID: tt.messageID,
				Event:     tt.event,
			})
			assert.ErrorIs(t, err, usecase.ErrInvalidTaskEvent)
			assert.False(t, recorded)
		})
	}
}

func TestTaskActivityService_ListTaskActivity(t *testing.T) {
	repo, svc := newTaskActivityService(t)
	userID := uuid.New()
	want := []*entity.TaskActivity{{MessageID: "m-2"}, {MessageID: "m-1"}}

	repo.EXPECT().ListByTask(mock.Anything, userID, "t-1", 25).Return(want, nil)

	got, err := svc.ListTaskActivity(context.Background(), userID, "t-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
