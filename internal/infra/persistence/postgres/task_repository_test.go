package postgres

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"tasker/internal/domain/entity"
	domainerrors "tasker/internal/domain/errors"
	"tasker/internal/domain/repository"
	"tasker/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// Every pooled connection to :memory: would get its own empty database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.TaskModel{}, &model.TaskActivityModel{}))

	return WithSession(db, slog.New(slog.NewTextHandler(io.Discard, nil)), QueryLogOptions{})
}

func ptr[T any](v T) *T {
	return &v
}

func TestTaskRepository_Create_AppliesStorageDefaults(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))
	ctx := context.Background()
	userID := uuid.New()

	created, err := repo.Create(ctx, &entity.NewTask{Text: "buy milk", UserID: userID})
	require.NoError(t, err)

	_, err = uuid.Parse(created.ID)
	require.NoError(t, err, "generated id should be a uuid")
	assert.Equal(t, "buy milk", created.Text)
	assert.False(t, created.Completed)
	assert.Nil(t, created.DueDate)
	assert.Nil(t, created.ParentID)
	assert.Equal(t, userID, created.UserID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.UpdatedAt.IsZero())

	found, err := repo.FindByID(ctx, userID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "buy milk", found.Text)
	assert.False(t, found.Completed)
	assert.Nil(t, found.DueDate)
	assert.Nil(t, found.ParentID)
	assert.Equal(t, userID, found.UserID)
	assert.False(t, found.CreatedAt.IsZero())
	assert.False(t, found.UpdatedAt.IsZero())
}

func TestTaskRepository_Create_KeepsProvidedValues(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))
	ctx := context.Background()
	userID := uuid.New()
	due := time.Date(2026, time.March, 1, 9, 30, 0, 0, time.UTC)
	createdAt := time.Date(2026, time.January, 2, 3, 4, 5, 0, time.UTC)

	created, err := repo.Create(ctx, &entity.NewTask{
		ID:        "custom-id",
		Text:      "file taxes",
		Completed: ptr(true),
		DueDate:   &due,
		ParentID:  ptr("parent-1"),
		UserID:    userID,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	})
	require.NoError(t, err)
	assert.Equal(t, "custom-id", created.ID)

	found, err := repo.FindByID(ctx, userID, "custom-id")
	require.NoError(t, err)
	assert.True(t, found.Completed)
	require.NotNil(t, found.DueDate)
	assert.True(t, due.Equal(*found.DueDate))
	require.NotNil(t, found.ParentID)
	assert.Equal(t, "parent-1", *found.ParentID)
	assert.True(t, createdAt.Equal(found.CreatedAt))
}

func TestTaskRepository_Create_DuplicateID(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))
	ctx := context.Background()
	userID := uuid.New()

	_, err := repo.Create(ctx, &entity.NewTask{ID: "same", Text: "first", UserID: userID})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &entity.NewTask{ID: "same", Text: "second", UserID: userID})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrTaskCreationFailed))
}

func TestTaskRepository_FindByID_OtherOwner(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, &entity.NewTask{Text: "private", UserID: uuid.New()})
	require.NoError(t, err)

	_, err = repo.FindByID(ctx, uuid.New(), created.ID)
	assert.ErrorIs(t, err, repository.ErrTaskNotFound)

	_, err = repo.FindByID(ctx, created.UserID, "missing")
	assert.ErrorIs(t, err, repository.ErrTaskNotFound)
}

func TestTaskRepository_List_Filters(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))
	ctx := context.Background()
	userID := uuid.New()
	base := time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)

	mustCreate := func(id, text string, completed bool, parentID *string, offset time.Duration) {
		t.Helper()
		_, err := repo.Create(ctx, &entity.NewTask{
			ID:        id,
			Text:      text,
			Completed: ptr(completed),
			ParentID:  parentID,
			UserID:    userID,
			CreatedAt: base.Add(offset),
			UpdatedAt: base.Add(offset),
		})
		require.NoError(t, err)
	}

	mustCreate("root-a", "root a", false, nil, 0)
	mustCreate("root-b", "root b", true, nil, time.Minute)
	mustCreate("child-a1", "child a1", true, ptr("root-a"), 2*time.Minute)
	mustCreate("child-a2", "child a2", false, ptr("root-a"), 3*time.Minute)
	_, err := repo.Create(ctx, &entity.NewTask{ID: "foreign", Text: "someone else", UserID: uuid.New()})
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter entity.TaskFilter
		want   []string
	}{
		{
			name:   "all tasks of the owner, oldest first",
			filter: entity.TaskFilter{UserID: userID},
			want:   []string{"root-a", "root-b", "child-a1", "child-a2"},
		},
		{
			name:   "completed only",
			filter: entity.TaskFilter{UserID: userID, Completed: ptr(true)},
			want:   []string{"root-b", "child-a1"},
		},
		{
			name:   "open only",
			filter: entity.TaskFilter{UserID: userID, Completed: ptr(false)},
			want:   []string{"root-a", "child-a2"},
		},
		{
			name:   "roots only",
			filter: entity.TaskFilter{UserID: userID, RootsOnly: true},
			want:   []string{"root-a", "root-b"},
		},
		{
			name:   "children of a parent",
			filter: entity.TaskFilter{UserID: userID, ParentID: ptr("root-a")},
			want:   []string{"child-a1", "child-a2"},
		},
		{
			name:   "parent wins over roots only",
			filter: entity.TaskFilter{UserID: userID, ParentID: ptr("root-a"), RootsOnly: true},
			want:   []string{"child-a1", "child-a2"},
		},
		{
			name:   "limit",
			filter: entity.TaskFilter{UserID: userID, Limit: 2},
			want:   []string{"root-a", "root-b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)

			ids := make([]string, 0, len(tasks))
			for _, task := range tasks {
				ids = append(ids, task.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestTaskRepository_FindChildren(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))
	ctx := context.Background()
	userID := uuid.New()

	for _, nt := range []*entity.NewTask{
		{ID: "p1", Text: "p1", UserID: userID},
		{ID: "p2", Text: "p2", UserID: userID},
		{ID: "c1", Text: "c1", ParentID: ptr("p1"), UserID: userID},
		{ID: "c2", Text: "c2", ParentID: ptr("p2"), UserID: userID},
		{ID: "g1", Text: "g1", ParentID: ptr("c1"), UserID: userID},
		{ID: "x1", Text: "x1", ParentID: ptr("p1"), UserID: uuid.New()},
	} {
		_, err := repo.Create(ctx, nt)
		require.NoError(t, err)
	}

	children, err := repo.FindChildren(ctx, userID, []string{"p1", "p2"})
	require.NoError(t, err)

	ids := make([]string, 0, len(children))
	for _, child := range children {
		ids = append(ids, child.ID)
	}
	assert.ElementsMatch(t, []string{"c1", "c2"}, ids)

	none, err := repo.FindChildren(ctx, userID, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTaskRepository_Update(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))
	ctx := context.Background()
	userID := uuid.New()
	old := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

	created, err := repo.Create(ctx, &entity.NewTask{Text: "draft", UserID: userID, CreatedAt: old, UpdatedAt: old})
	require.NoError(t, err)

	due := time.Date(2026, time.June, 30, 18, 0, 0, 0, time.UTC)
	created.Text = "final"
	created.Completed = true
	created.DueDate = &due
	created.ParentID = ptr("p1")

	require.NoError(t, repo.Update(ctx, created))
	assert.True(t, created.UpdatedAt.After(old))

	found, err := repo.FindByID(ctx, userID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", found.Text)
	assert.True(t, found.Completed)
	require.NotNil(t, found.DueDate)
	assert.True(t, due.Equal(*found.DueDate))
	require.NotNil(t, found.ParentID)
	assert.Equal(t, "p1", *found.ParentID)
	assert.True(t, old.Equal(found.CreatedAt))
	assert.True(t, found.UpdatedAt.After(old))

	found.DueDate = nil
	found.ParentID = nil
	require.NoError(t, repo.Update(ctx, found))

	cleared, err := repo.FindByID(ctx, userID, created.ID)
	require.NoError(t, err)
	assert.Nil(t, cleared.DueDate)
	assert.Nil(t, cleared.ParentID)
}

func TestTaskRepository_Update_OtherOwner(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, &entity.NewTask{Text: "mine", UserID: uuid.New()})
	require.NoError(t, err)

	intruder := *created
	intruder.UserID = uuid.New()
	intruder.Text = "hijacked"

	err = repo.Update(ctx, &intruder)
	assert.ErrorIs(t, err, repository.ErrTaskNotFound)

	found, err := repo.FindByID(ctx, created.UserID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", found.Text)
}

func TestTaskRepository_DeleteByIDs(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))
	ctx := context.Background()
	userID := uuid.New()
	otherID := uuid.New()

	for _, nt := range []*entity.NewTask{
		{ID: "a", Text: "a", UserID: userID},
		{ID: "b", Text: "b", UserID: userID},
		{ID: "c", Text: "c", UserID: otherID},
	} {
		_, err := repo.Create(ctx, nt)
		require.NoError(t, err)
	}

	removed, err := repo.DeleteByIDs(ctx, userID, []string{"a", "c"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = repo.FindByID(ctx, userID, "a")
	assert.ErrorIs(t, err, repository.ErrTaskNotFound)
	_, err = repo.FindByID(ctx, otherID, "c")
	assert.NoError(t, err)

	removed, err = repo.DeleteByIDs(ctx, userID, nil)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestTransactionManager_Execute(t *testing.T) {
	db := setupTestDB(t)
	tm := NewTransactionManager(db)
	repo := NewTaskRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	t.Run("commit", func(t *testing.T) {
		err := tm.Execute(ctx, func(f repository.RepositoryFactory) error {
			_, err := f.TaskRepo().Create(ctx, &entity.NewTask{ID: "committed", Text: "kept", UserID: userID})

			return err
		})
		require.NoError(t, err)

		_, err = repo.FindByID(ctx, userID, "committed")
		assert.NoError(t, err)
	})

	t.Run("rollback on error", func(t *testing.T) {
		sentinel := errors.New("abort")
		err := tm.Execute(ctx, func(f repository.RepositoryFactory) error {
			if _, err := f.TaskRepo().Create(ctx, &entity.NewTask{ID: "rolled-back", Text: "gone", UserID: userID}); err != nil {
				return err
			}

			return sentinel
		})
		assert.ErrorIs(t, err, sentinel)

		_, err = repo.FindByID(ctx, userID, "rolled-back")
		assert.ErrorIs(t, err, repository.ErrTaskNotFound)
	})
}

func TestTaskRepository_LockUserTasks(t *testing.T) {
	db := setupTestDB(t)
	tm := NewTransactionManager(db)
	repo := NewTaskRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	_, err := repo.Create(ctx, &entity.NewTask{ID: "a", Text: "a", UserID: userID})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &entity.NewTask{ID: "b", Text: "b", UserID: userID})
	require.NoError(t, err)

	err = tm.Execute(ctx, func(f repository.RepositoryFactory) error {
		taskRepo := f.TaskRepo()
		if err := taskRepo.LockUserTasks(ctx, userID); err != nil {
			return err
		}

		task, err := taskRepo.FindByID(ctx, userID, "a")
		if err != nil {
			return err
		}
		task.ParentID = ptr("b")

		return taskRepo.Update(ctx, task)
	})
	require.NoError(t, err)

	moved, err := repo.FindByID(ctx, userID, "a")
	require.NoError(t, err)
	require.NotNil(t, moved.ParentID)
	assert.Equal(t, "b", *moved.ParentID)

	// A user without tasks locks nothing.
	assert.NoError(t, repo.LockUserTasks(ctx, uuid.New()))
}
