// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"time"

	"tasker/internal/domain/entity"
	domainerrors "tasker/internal/domain/errors"
	"tasker/internal/domain/repository"
	"tasker/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// taskRepository implements the domain.TaskRepository interface using GORM.
type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository is the constructor for taskRepository.
func NewTaskRepository(db *gorm.DB) repository.TaskRepository {
	return &taskRepository{db: db}
}

// Create inserts a task. Missing ID, completion state and timestamps take the storage defaults.
func (repo *taskRepository) Create(ctx context.Context, task *entity.NewTask) (*entity.Task, error) {
	taskM := fromNewTaskDomain(task)

	if err := repo.db.WithContext(ctx).Create(taskM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return nil, domainerrors.ErrTaskCreationFailed.WrapMessage("task id already exists")
		}
		if isNotNullConstraintViolation(err) {
			return nil, domainerrors.ErrTaskCreationFailed.WrapMessage("missing required task information")
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to create task")
	}

	return toTaskDomain(taskM), nil
}

// FindByID retrieves a single task owned by userID.
func (repo *taskRepository) FindByID(ctx context.Context, userID uuid.UUID, id string) (*entity.Task, error) {
	var taskM model.TaskModel
	err := repo.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		First(&taskM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrTaskNotFound
		}

		return nil, errors.Wrap(err, "failed to find task by id")
	}

	return toTaskDomain(&taskM), nil
}

// List retrieves the tasks matching the filter, oldest first.
func (repo *taskRepository) List(ctx context.Context, filter entity.TaskFilter) ([]*entity.Task, error) {
	query := repo.db.WithContext(ctx).Where("user_id = ?", filter.UserID)

	if filter.Completed != nil {
		query = query.Where("completed = ?", *filter.Completed)
	}

	switch {
	case filter.ParentID != nil:
		query = query.Where("parent_id = ?", *filter.ParentID)
	case filter.RootsOnly:
		query = query.Where("(parent_id IS NULL OR parent_id = '')")
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var taskModels []*model.TaskModel
	if err := query.Order("created_at ASC, id ASC").Find(&taskModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list tasks")
	}

	return toTaskDomains(taskModels), nil
}

// LockUserTasks takes FOR UPDATE locks on all of the user's tasks in id order.
// Drivers without row locking, such as sqlite, skip the clause.
func (repo *taskRepository) LockUserTasks(ctx context.Context, userID uuid.UUID) error {
	var ids []string
	err := repo.db.WithContext(ctx).
		Model(&model.TaskModel{}).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Where("user_id = ?", userID).
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return errors.Wrap(err, "failed to lock user tasks")
	}

	return nil
}

// FindChildren retrieves the direct children of the given parents.
func (repo *taskRepository) FindChildren(ctx context.Context, userID uuid.UUID, parentIDs []string) ([]*entity.Task, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}

	var taskModels []*model.TaskModel
	err := repo.db.WithContext(ctx).
		Where("user_id = ? AND parent_id IN ?", userID, parentIDs).
		Order("created_at ASC, id ASC").
		Find(&taskModels).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to find child tasks")
	}

	return toTaskDomains(taskModels), nil
}

// Update persists the mutable fields of an existing task and refreshes UpdatedAt.
func (repo *taskRepository) Update(ctx context.Context, task *entity.Task) error {
	now := time.Now()

	result := repo.db.WithContext(ctx).
		Model(&model.TaskModel{}).
		Where("user_id = ? AND id = ?", task.UserID, task.ID).
		Updates(map[string]any{
			"text":       task.Text,
			"completed":  task.Completed,
			"due_date":   task.DueDate,
			"parent_id":  task.ParentID,
			"updated_at": now,
		})
	if result.Error != nil {
		if isNotNullConstraintViolation(result.Error) {
			return domainerrors.ErrTaskUpdateFailed.WrapMessage("missing required task information")
		}

		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update task")
	}

	if result.RowsAffected == 0 {
		return repository.ErrTaskNotFound
	}

	task.UpdatedAt = now

	return nil
}

// DeleteByIDs removes the listed tasks owned by userID.
func (repo *taskRepository) DeleteByIDs(ctx context.Context, userID uuid.UUID, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result := repo.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, ids).
		Delete(&model.TaskModel{})
	if result.Error != nil {
		return 0, errors.WithStack(result.Error)
	}

	return result.RowsAffected, nil
}

// --- Mapper Functions ---

// toTaskDomain converts a GORM TaskModel to a domain Task entity.
func toTaskDomain(data *model.TaskModel) *entity.Task {
	if data == nil {
		return nil
	}

	return &entity.Task{
		ID:        data.ID,
		Text:      data.Text,
		Completed: data.Completed,
		DueDate:   data.DueDate,
		ParentID:  data.ParentID,
		UserID:    data.UserID,
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}
}

func toTaskDomains(data []*model.TaskModel) []*entity.Task {
	tasks := make([]*entity.Task, 0, len(data))
	for _, taskM := range data {
		tasks = append(tasks, toTaskDomain(taskM))
	}

	return tasks
}

// fromNewTaskDomain converts the insert shape to a GORM TaskModel.
func fromNewTaskDomain(data *entity.NewTask) *model.TaskModel {
	if data == nil {
		return nil
	}

	taskM := &model.TaskModel{
		ID:        data.ID,
		Text:      data.Text,
		DueDate:   data.DueDate,
		ParentID:  data.ParentID,
		UserID:    data.UserID,
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}
	if data.Completed != nil {
		taskM.Completed = *data.Completed
	}

	return taskM
}
