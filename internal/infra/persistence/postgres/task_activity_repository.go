package postgres

import (
	"context"

	"tasker/internal/domain/entity"
	domainerrors "tasker/internal/domain/errors"
	"tasker/internal/domain/repository"
	"tasker/internal/infra/persistence/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type taskActivityRepository struct {
	db *gorm.DB
}

// NewTaskActivityRepository is the constructor for taskActivityRepository.
func NewTaskActivityRepository(db *gorm.DB) repository.TaskActivityRepository {
	return &taskActivityRepository{db: db}
}

func (repo *taskActivityRepository) Record(ctx context.Context, activity *entity.TaskActivity) error {
	activityM := fromTaskActivityDomain(activity)

	if err := repo.db.WithContext(ctx).Create(activityM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return repository.ErrActivityAlreadyRecorded
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to record task activity")
	}

	activity.ID = activityM.ID
	activity.RecordedAt = activityM.RecordedAt

	return nil
}

func (repo *taskActivityRepository) ListByTask(ctx context.Context, userID uuid.UUID, taskID string, limit int) ([]*entity.TaskActivity, error) {
	query := repo.db.WithContext(ctx).
		Where("user_id = ? AND task_id = ?", userID, taskID).
		Order("occurred_at DESC, recorded_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var activityMs []*model.TaskActivityModel
	if err := query.Find(&activityMs).Error; err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to list task activity")
	}

	activities := make([]*entity.TaskActivity, 0, len(activityMs))
	for _, activityM := range activityMs {
		activities = append(activities, toTaskActivityDomain(activityM))
	}

	return activities, nil
}

func fromTaskActivityDomain(activity *entity.TaskActivity) *model.TaskActivityModel {
	return &model.TaskActivityModel{
		ID:           activity.ID,
		MessageID:    activity.MessageID,
		EventType:    activity.EventType,
		TaskID:       activity.TaskID,
		UserID:       activity.UserID,
		Completed:    activity.Completed,
		RemovedCount: activity.RemovedCount,
		RequestID:    activity.RequestID,
		OccurredAt:   activity.OccurredAt,
	}
}

func toTaskActivityDomain(activityM *model.TaskActivityModel) *entity.TaskActivity {
	return &entity.TaskActivity{
		ID:           activityM.ID,
		MessageID:    activityM.MessageID,
		EventType:    activityM.EventType,
		TaskID:       activityM.TaskID,
		UserID:       activityM.UserID,
		Completed:    activityM.Completed,
		RemovedCount: activityM.RemovedCount,
		RequestID:    activityM.RequestID,
		OccurredAt:   activityM.OccurredAt,
		RecordedAt:   activityM.RecordedAt,
	}
}
