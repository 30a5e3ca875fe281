// Package impl contains the application-specific business rules implementations.
package impl

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"tasker/config"
	deliverycontext "tasker/internal/delivery/context"
	"tasker/internal/domain/entity"
	domainerrors "tasker/internal/domain/errors"
	"tasker/internal/domain/repository"
	"tasker/internal/domain/service"
	"tasker/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// taskService implements the TaskUsecase interface.
type taskService struct {
	txManager repository.TransactionManager
	publisher service.EventPublisher
	limits    config.TasksConfig
	logger    *slog.Logger
}

// NewTaskService is the constructor for taskService.
func NewTaskService(
	txManager repository.TransactionManager,
	publisher service.EventPublisher,
	cfg *config.Config,
	logger *slog.Logger,
) usecase.TaskUsecase {
	var limits config.TasksConfig
	if cfg != nil && cfg.Tasks != nil {
		limits = *cfg.Tasks
	}

	return &taskService{
		txManager: txManager,
		publisher: publisher,
		limits:    limits,
		logger:    logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *taskService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// CreateTask validates the input, checks the parent and stores the task.
func (srv *taskService) CreateTask(ctx context.Context, input usecase.CreateTaskInput) (*entity.Task, error) {
	text, err := srv.normalizeText(input.Text)
	if err != nil {
		return nil, err
	}
	parentID := normalizeParentID(input.ParentID)

	var created *entity.Task

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		taskRepo := repoFactory.TaskRepo()

		if parentID != nil {
			parent, err := srv.findParent(ctx, taskRepo, input.UserID, *parentID)
			if err != nil {
				return err
			}

			level, err := srv.level(ctx, taskRepo, parent)
			if err != nil {
				return err
			}
			if srv.limits.MaxDepth > 0 && level+1 > srv.limits.MaxDepth {
				return errors.Wrapf(domainerrors.ErrTaskTooDeep, "parent %s is at level %d", parent.ID, level)
			}
		}

		task, err := taskRepo.Create(ctx, &entity.NewTask{
			Text:      text,
			Completed: input.Completed,
			DueDate:   input.DueDate,
			ParentID:  parentID,
			UserID:    input.UserID,
		})
		if err != nil {
			return errors.Wrap(err, "failed to create task")
		}
		created = task

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Failed to create task", slog.Any("error", err), slog.Any("user_id", input.UserID))

		return nil, err
	}

	srv.log(ctx).Info("Task created", slog.String("task_id", created.ID), slog.Any("user_id", input.UserID))
	srv.publish(ctx, service.TaskEventCreated, created, nil)

	return created, nil
}

// GetTask retrieves one of the identity's tasks.
func (srv *taskService) GetTask(ctx context.Context, userID uuid.UUID, taskID string) (*entity.Task, error) {
	var task *entity.Task

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		found, err := findOwnedTask(ctx, repoFactory.TaskRepo(), userID, taskID)
		if err != nil {
			return err
		}
		task = found

		return nil
	})
	if err != nil {
		return nil, err
	}

	return task, nil
}

// ListTasks lists the identity's tasks, oldest first, capped at the configured limit.
func (srv *taskService) ListTasks(ctx context.Context, input usecase.ListTasksInput) ([]*entity.Task, error) {
	filter := entity.TaskFilter{
		UserID:    input.UserID,
		Completed: input.Completed,
		ParentID:  normalizeParentID(input.ParentID),
		RootsOnly: input.RootsOnly,
		Limit:     srv.limits.ListLimit,
	}

	var tasks []*entity.Task

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		found, err := repoFactory.TaskRepo().List(ctx, filter)
		if err != nil {
			return errors.Wrap(err, "failed to list tasks")
		}
		tasks = found

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to list tasks", slog.Any("error", err), slog.Any("user_id", input.UserID))

		return nil, err
	}

	return tasks, nil
}

// GetTaskTree returns the identity's tasks as a forest. Tasks whose parent no longer
// exists, or that sit on a parent cycle, are returned as roots.
func (srv *taskService) GetTaskTree(ctx context.Context, userID uuid.UUID) ([]*entity.TaskNode, error) {
	var tasks []*entity.Task

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		found, err := repoFactory.TaskRepo().List(ctx, entity.TaskFilter{UserID: userID})
		if err != nil {
			return errors.Wrap(err, "failed to list tasks")
		}
		tasks = found

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to build task tree", slog.Any("error", err), slog.Any("user_id", userID))

		return nil, err
	}

	return buildForest(tasks), nil
}

// UpdateTask applies a patch. Moving a task re-checks the parent, cycles and depth.
func (srv *taskService) UpdateTask(ctx context.Context, input usecase.UpdateTaskInput) (*entity.Task, error) {
	patch := input.Patch
	if patch.Text != nil {
		text, err := srv.normalizeText(*patch.Text)
		if err != nil {
			return nil, err
		}
		patch.Text = &text
	}

	var updated *entity.Task

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		taskRepo := repoFactory.TaskRepo()

		// Concurrent opposite moves must see each other's parent before the cycle check.
		if patch.ParentID != nil {
			if err := taskRepo.LockUserTasks(ctx, input.UserID); err != nil {
				return errors.Wrap(err, "failed to lock tasks for move")
			}
		}

		task, err := findOwnedTask(ctx, taskRepo, input.UserID, input.TaskID)
		if err != nil {
			return err
		}

		moving, newParentID := parentChange(task, patch)
		if moving && newParentID != nil {
			if err := srv.checkMove(ctx, taskRepo, task, *newParentID); err != nil {
				return err
			}
		}

		applyPatch(task, patch)
		if moving {
			task.ParentID = newParentID
		}

		if err := taskRepo.Update(ctx, task); err != nil {
			return translateTaskErr(err, "failed to update task")
		}
		updated = task

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Failed to update task", slog.Any("error", err), slog.String("task_id", input.TaskID))

		return nil, err
	}

	srv.publish(ctx, service.TaskEventUpdated, updated, nil)

	return updated, nil
}

// ToggleTask flips the completion state of a task.
func (srv *taskService) ToggleTask(ctx context.Context, userID uuid.UUID, taskID string) (*entity.Task, error) {
	var toggled *entity.Task

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		taskRepo := repoFactory.TaskRepo()

		task, err := findOwnedTask(ctx, taskRepo, userID, taskID)
		if err != nil {
			return err
		}

		task.Completed = !task.Completed
		if err := taskRepo.Update(ctx, task); err != nil {
			return translateTaskErr(err, "failed to toggle task")
		}
		toggled = task

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Failed to toggle task", slog.Any("error", err), slog.String("task_id", taskID))

		return nil, err
	}

	srv.publish(ctx, service.TaskEventUpdated, toggled, nil)

	return toggled, nil
}

// DeleteTask removes a task together with all of its descendants.
func (srv *taskService) DeleteTask(ctx context.Context, userID uuid.UUID, taskID string) (*usecase.DeleteTaskOutput, error) {
	var (
		deleted    *entity.Task
		removedIDs []string
	)

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		taskRepo := repoFactory.TaskRepo()

		task, err := findOwnedTask(ctx, taskRepo, userID, taskID)
		if err != nil {
			return err
		}

		levels, err := collectDescendants(ctx, taskRepo, userID, task.ID)
		if err != nil {
			return err
		}
		for _, level := range levels {
			removedIDs = append(removedIDs, level...)
		}

		if _, err := taskRepo.DeleteByIDs(ctx, userID, append([]string{task.ID}, removedIDs...)); err != nil {
			return errors.Wrap(err, "failed to delete tasks")
		}
		deleted = task

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Failed to delete task", slog.Any("error", err), slog.String("task_id", taskID))

		return nil, err
	}

	srv.log(ctx).Info("Task deleted",
		slog.String("task_id", deleted.ID),
		slog.Int("descendants", len(removedIDs)),
	)
	srv.publish(ctx, service.TaskEventDeleted, deleted, removedIDs)

	return &usecase.DeleteTaskOutput{TaskID: deleted.ID, RemovedIDs: removedIDs}, nil
}

// publish emits a task event. Events are best effort: the mutation is already committed.
func (srv *taskService) publish(ctx context.Context, eventType service.TaskEventType, task *entity.Task, removedIDs []string) {
	if srv.publisher == nil {
		return
	}

	event := &service.TaskEvent{
		RequestID:  deliverycontext.GetRequestIDFromContext(ctx),
		Type:       eventType,
		TaskID:     task.ID,
		UserID:     task.UserID.String(),
		Completed:  task.Completed,
		RemovedIDs: removedIDs,
		OccurredAt: time.Now().UTC(),
	}
	if task.ParentID != nil {
		event.ParentID = *task.ParentID
	}

	if err := srv.publisher.PublishTaskEvent(ctx, event); err != nil {
		srv.log(ctx).Warn("Failed to publish task event",
			slog.Any("error", err),
			slog.String("event_type", string(eventType)),
			slog.String("task_id", task.ID),
		)
	}
}

func (srv *taskService) normalizeText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", domainerrors.ErrValidationFailed.WithDetails("text is required")
	}
	if srv.limits.MaxTextLength > 0 && utf8.RuneCountInString(text) > srv.limits.MaxTextLength {
		return "", domainerrors.ErrValidationFailed.WithDetails(
			fmt.Sprintf("text must be at most %d characters", srv.limits.MaxTextLength),
		)
	}

	return text, nil
}

func (srv *taskService) findParent(ctx context.Context, taskRepo repository.TaskRepository, userID uuid.UUID, parentID string) (*entity.Task, error) {
	parent, err := taskRepo.FindByID(ctx, userID, parentID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, errors.Wrapf(domainerrors.ErrParentTaskNotFound, "parent %s", parentID)
		}

		return nil, errors.Wrap(err, "failed to find parent task")
	}

	return parent, nil
}

// level returns the 1-based nesting level of task: roots are level 1.
// A dangling parent reference ends the walk.
func (srv *taskService) level(ctx context.Context, taskRepo repository.TaskRepository, task *entity.Task) (int, error) {
	chain, err := srv.ancestors(ctx, taskRepo, task)
	if err != nil {
		return 0, err
	}

	return len(chain) + 1, nil
}

// ancestors walks up from task and returns the IDs of its ancestors, nearest first.
func (srv *taskService) ancestors(ctx context.Context, taskRepo repository.TaskRepository, task *entity.Task) ([]string, error) {
	var chain []string
	seen := map[string]struct{}{task.ID: {}}

	current := task
	for !current.IsRoot() {
		parentID := *current.ParentID
		if _, loop := seen[parentID]; loop {
			return nil, errors.Wrapf(domainerrors.ErrTaskCycle, "stored cycle at %s", parentID)
		}
		if srv.limits.MaxDepth > 0 && len(chain) >= srv.limits.MaxDepth {
			return nil, errors.Wrapf(domainerrors.ErrTaskTooDeep, "ancestors of %s", task.ID)
		}

		parent, err := taskRepo.FindByID(ctx, task.UserID, parentID)
		if err != nil {
			if errors.Is(err, repository.ErrTaskNotFound) {
				break
			}

			return nil, errors.Wrap(err, "failed to walk task ancestors")
		}

		seen[parentID] = struct{}{}
		chain = append(chain, parentID)
		current = parent
	}

	return chain, nil
}

// checkMove validates re-parenting task under newParentID.
func (srv *taskService) checkMove(ctx context.Context, taskRepo repository.TaskRepository, task *entity.Task, newParentID string) error {
	if newParentID == task.ID {
		return errors.Wrap(domainerrors.ErrTaskCycle, "task cannot be its own parent")
	}

	parent, err := srv.findParent(ctx, taskRepo, task.UserID, newParentID)
	if err != nil {
		return err
	}

	chain, err := srv.ancestors(ctx, taskRepo, parent)
	if err != nil {
		return err
	}
	for _, id := range chain {
		if id == task.ID {
			return errors.Wrapf(domainerrors.ErrTaskCycle, "%s is a descendant of %s", newParentID, task.ID)
		}
	}

	if srv.limits.MaxDepth <= 0 {
		return nil
	}

	levels, err := collectDescendants(ctx, taskRepo, task.UserID, task.ID)
	if err != nil {
		return err
	}

	// parent level + the moved task + its descendant levels
	deepest := len(chain) + 1 + 1 + len(levels)
	if deepest > srv.limits.MaxDepth {
		return errors.Wrapf(domainerrors.ErrTaskTooDeep, "moving %s under %s", task.ID, newParentID)
	}

	return nil
}

func findOwnedTask(ctx context.Context, taskRepo repository.TaskRepository, userID uuid.UUID, taskID string) (*entity.Task, error) {
	task, err := taskRepo.FindByID(ctx, userID, taskID)
	if err != nil {
		return nil, translateTaskErr(err, "failed to find task")
	}

	return task, nil
}

func translateTaskErr(err error, msg string) error {
	if errors.Is(err, repository.ErrTaskNotFound) {
		return errors.Wrap(domainerrors.ErrTaskNotFound, msg)
	}

	return errors.Wrap(err, msg)
}

// collectDescendants returns the descendants of rootID grouped by level, nearest first.
func collectDescendants(ctx context.Context, taskRepo repository.TaskRepository, userID uuid.UUID, rootID string) ([][]string, error) {
	var levels [][]string
	seen := map[string]struct{}{rootID: {}}
	frontier := []string{rootID}

	for len(frontier) > 0 {
		children, err := taskRepo.FindChildren(ctx, userID, frontier)
		if err != nil {
			return nil, errors.Wrap(err, "failed to find child tasks")
		}

		var next []string
		for _, child := range children {
			if _, dup := seen[child.ID]; dup {
				continue
			}
			seen[child.ID] = struct{}{}
			next = append(next, child.ID)
		}
		if len(next) > 0 {
			levels = append(levels, next)
		}
		frontier = next
	}

	return levels, nil
}

// parentChange reports whether the patch moves the task and, if so, the new parent.
func parentChange(task *entity.Task, patch entity.TaskPatch) (bool, *string) {
	switch {
	case patch.ClearParentID:
		return !task.IsRoot(), nil
	case patch.ParentID != nil:
		newParentID := normalizeParentID(patch.ParentID)
		if newParentID == nil {
			return !task.IsRoot(), nil
		}
		if task.ParentID != nil && *task.ParentID == *newParentID {
			return false, nil
		}

		return true, newParentID
	default:
		return false, nil
	}
}

func applyPatch(task *entity.Task, patch entity.TaskPatch) {
	if patch.Text != nil {
		task.Text = *patch.Text
	}
	if patch.Completed != nil {
		task.Completed = *patch.Completed
	}
	switch {
	case patch.ClearDueDate:
		task.DueDate = nil
	case patch.DueDate != nil:
		due := *patch.DueDate
		task.DueDate = &due
	}
}

func normalizeParentID(parentID *string) *string {
	if parentID == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*parentID)
	if trimmed == "" {
		return nil
	}

	return &trimmed
}

// buildForest arranges tasks into trees, keeping the input order among siblings.
// Tasks whose parent is missing and tasks on a stored parent cycle become roots.
func buildForest(tasks []*entity.Task) []*entity.TaskNode {
	nodes := make(map[string]*entity.TaskNode, len(tasks))
	for _, task := range tasks {
		nodes[task.ID] = &entity.TaskNode{Task: task, Children: []*entity.TaskNode{}}
	}

	cyclic := cycleMembers(tasks, nodes)

	roots := make([]*entity.TaskNode, 0)
	for _, task := range tasks {
		node := nodes[task.ID]
		if task.IsRoot() {
			roots = append(roots, node)

			continue
		}

		parent, ok := nodes[*task.ParentID]
		if !ok {
			roots = append(roots, node)

			continue
		}
		if _, onCycle := cyclic[task.ID]; onCycle {
			roots = append(roots, node)

			continue
		}
		parent.Children = append(parent.Children, node)
	}

	return roots
}

// cycleMembers returns the IDs of tasks whose parent chain loops back to themselves.
func cycleMembers(tasks []*entity.Task, nodes map[string]*entity.TaskNode) map[string]struct{} {
	const (
		unvisited = iota
		onPath
		done
	)

	state := make(map[string]int, len(tasks))
	cyclic := make(map[string]struct{})

	for _, task := range tasks {
		var path []string
		looped := false
		id := task.ID
		for {
			if state[id] != unvisited {
				looped = state[id] == onPath

				break
			}
			state[id] = onPath
			path = append(path, id)

			current := nodes[id].Task
			if current.IsRoot() {
				break
			}
			if _, ok := nodes[*current.ParentID]; !ok {
				break
			}
			id = *current.ParentID
		}

		if looped {
			for i := len(path) - 1; i >= 0; i-- {
				cyclic[path[i]] = struct{}{}
				if path[i] == id {
					break
				}
			}
		}
		for _, visited := range path {
			state[visited] = done
		}
	}

	return cyclic
}
