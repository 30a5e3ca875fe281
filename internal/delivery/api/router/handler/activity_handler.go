package handler

import (
	"log/slog"
	"net/http"
	"time"

	"tasker/internal/delivery/api/middleware"
	"tasker/internal/delivery/api/response"
	"tasker/internal/domain/entity"
	"tasker/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// ActivityHandlerParams holds dependencies for ActivityHandler, injected by Fx.
type ActivityHandlerParams struct {
	fx.In

	ActivityUC usecase.TaskActivityUsecase
	Logger     *slog.Logger
}

// ActivityHandler serves the recorded history of tasks
type ActivityHandler struct {
	activityUC usecase.TaskActivityUsecase
	logger     *slog.Logger
}

// NewActivityHandler is the constructor for ActivityHandler
func NewActivityHandler(params ActivityHandlerParams) *ActivityHandler {
	return &ActivityHandler{
		activityUC: params.ActivityUC,
		logger:     params.Logger,
	}
}

// TaskActivityResponse is one history entry of a task
type TaskActivityResponse struct {
	EventType    string    `json:"eventType"`
	TaskID       string    `json:"taskId"`
	Completed    bool      `json:"completed"`
	RemovedCount int       `json:"removedCount,omitempty"`
	RequestID    string    `json:"requestId,omitempty"`
	OccurredAt   time.Time `json:"occurredAt"`
	RecordedAt   time.Time `json:"recordedAt"`
}

// ListTaskActivity returns the history of a task, newest first. The history outlives
// the task, so a deleted task still has one.
func (h *ActivityHandler) ListTaskActivity(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	activities, err := h.activityUC.ListTaskActivity(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	out := make([]*TaskActivityResponse, 0, len(activities))
	for _, activity := range activities {
		out = append(out, toTaskActivityResponse(activity))
	}

	return response.Success(c, http.StatusOK, out)
}

func toTaskActivityResponse(activity *entity.TaskActivity) *TaskActivityResponse {
	return &TaskActivityResponse{
		EventType:    activity.EventType,
		TaskID:       activity.TaskID,
		Completed:    activity.Completed,
		RemovedCount: activity.RemovedCount,
		RequestID:    activity.RequestID,
		OccurredAt:   activity.OccurredAt,
		RecordedAt:   activity.RecordedAt,
	}
}
