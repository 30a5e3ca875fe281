package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"tasker/internal/delivery/api/middleware"
	"tasker/internal/delivery/api/response"
	"tasker/internal/delivery/api/validator"
	"tasker/internal/domain/entity"
	"tasker/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// TaskHandlerParams holds dependencies for TaskHandler, injected by Fx.
type TaskHandlerParams struct {
	fx.In

	TaskUC usecase.TaskUsecase
	Logger *slog.Logger
}

// TaskHandler holds dependencies for task-related handlers
type TaskHandler struct {
	taskUC usecase.TaskUsecase
	logger *slog.Logger
}

// NewTaskHandler is the constructor for TaskHandler
func NewTaskHandler(params TaskHandlerParams) *TaskHandler {
	return &TaskHandler{
		taskUC: params.TaskUC,
		logger: params.Logger,
	}
}

// CreateTaskRequest represents the request body for creating a task
type CreateTaskRequest struct {
	Text      string     `json:"text" validate:"required"`
	Completed *bool      `json:"completed,omitempty"`
	DueDate   *time.Time `json:"dueDate,omitempty"`
	ParentID  *string    `json:"parentId,omitempty" validate:"omitempty,min=1,max=64"`
}

// UpdateTaskRequest represents the request body for patching a task.
// The clear flags remove the optional fields; they win over a value sent alongside.
type UpdateTaskRequest struct {
	Text          *string    `json:"text,omitempty" validate:"omitempty,min=1"`
	Completed     *bool      `json:"completed,omitempty"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	ClearDueDate  bool       `json:"clearDueDate,omitempty"`
	ParentID      *string    `json:"parentId,omitempty" validate:"omitempty,min=1,max=64"`
	ClearParentID bool       `json:"clearParentId,omitempty"`
}

// TaskResponse is the wire shape of a task
type TaskResponse struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	Completed bool       `json:"completed"`
	DueDate   *time.Time `json:"dueDate"`
	ParentID  *string    `json:"parentId"`
	UserID    string     `json:"userId"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// TaskNodeResponse is a task with its subtasks
type TaskNodeResponse struct {
	TaskResponse
	Children []*TaskNodeResponse `json:"children"`
}

// DeleteTaskResponse lists what a delete removed
type DeleteTaskResponse struct {
	ID         string   `json:"id"`
	RemovedIDs []string `json:"removedIds"`
}

// CreateTask handles task creation
func (h *TaskHandler) CreateTask(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	var req CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid task input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequestWithDetails(c, "VALIDATION_ERROR", "Invalid task input", validator.Details(err))
	}

	task, err := h.taskUC.CreateTask(c.Request().Context(), usecase.CreateTaskInput{
		UserID:    userID,
		Text:      req.Text,
		Completed: req.Completed,
		DueDate:   req.DueDate,
		ParentID:  req.ParentID,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Created(c, toTaskResponse(task))
}

// ListTasks handles listing the caller's tasks.
// Query: completed=true|false, parentId=<id>, root=true.
func (h *TaskHandler) ListTasks(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	input := usecase.ListTasksInput{UserID: userID}

	if raw := c.QueryParam("completed"); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			return response.BadRequest(c, "INVALID_QUERY", "completed must be true or false")
		}
		input.Completed = &completed
	}

	if parentID := c.QueryParam("parentId"); parentID != "" {
		input.ParentID = &parentID
	}

	if raw := c.QueryParam("root"); raw != "" {
		root, err := strconv.ParseBool(raw)
		if err != nil {
			return response.BadRequest(c, "INVALID_QUERY", "root must be true or false")
		}
		input.RootsOnly = root
	}

	tasks, err := h.taskUC.ListTasks(c.Request().Context(), input)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	out := make([]*TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, toTaskResponse(task))
	}

	return response.Success(c, http.StatusOK, out)
}

// GetTaskTree handles retrieving the caller's tasks as a forest
func (h *TaskHandler) GetTaskTree(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	forest, err := h.taskUC.GetTaskTree(c.Request().Context(), userID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, toTaskNodeResponses(forest))
}

// GetTask handles retrieving a single task
func (h *TaskHandler) GetTask(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	task, err := h.taskUC.GetTask(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, toTaskResponse(task))
}

// UpdateTask handles patching a task
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	var req UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid task input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequestWithDetails(c, "VALIDATION_ERROR", "Invalid task input", validator.Details(err))
	}

	task, err := h.taskUC.UpdateTask(c.Request().Context(), usecase.UpdateTaskInput{
		UserID: userID,
		TaskID: c.Param("id"),
		Patch: entity.TaskPatch{
			Text:          req.Text,
			Completed:     req.Completed,
			DueDate:       req.DueDate,
			ClearDueDate:  req.ClearDueDate,
			ParentID:      req.ParentID,
			ClearParentID: req.ClearParentID,
		},
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, toTaskResponse(task))
}

// ToggleTask handles flipping a task's completion state
func (h *TaskHandler) ToggleTask(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	task, err := h.taskUC.ToggleTask(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, toTaskResponse(task))
}

// DeleteTask handles deleting a task and its descendants
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	out, err := h.taskUC.DeleteTask(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	removed := out.RemovedIDs
	if removed == nil {
		removed = []string{}
	}

	return response.Success(c, http.StatusOK, DeleteTaskResponse{ID: out.TaskID, RemovedIDs: removed})
}

func toTaskResponse(task *entity.Task) *TaskResponse {
	return &TaskResponse{
		ID:        task.ID,
		Text:      task.Text,
		Completed: task.Completed,
		DueDate:   task.DueDate,
		ParentID:  task.ParentID,
		UserID:    task.UserID.String(),
		CreatedAt: task.CreatedAt,
		UpdatedAt: task.UpdatedAt,
	}
}

func toTaskNodeResponses(nodes []*entity.TaskNode) []*TaskNodeResponse {
	out := make([]*TaskNodeResponse, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, &TaskNodeResponse{
			TaskResponse: *toTaskResponse(node.Task),
			Children:     toTaskNodeResponses(node.Children),
		})
	}

	return out
}
