package task

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/zoo/domain"
	"github.com/fastygo/zoo/pkg/logger"
	"github.com/fastygo/zoo/repository"
)

// Config toggles graph integrity checks.
type Config struct {
	RejectCycles bool
}

type UseCase struct {
	tasks         repository.TaskRepository
	prerequisites repository.PrerequisiteRepository
	logger        *zap.Logger
	cfg           Config
	now           func() time.Time
}

func New(tasks repository.TaskRepository, prerequisites repository.PrerequisiteRepository, logger *zap.Logger, cfg Config) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:         tasks,
		prerequisites: prerequisites,
		logger:        logger,
		cfg:           cfg,
		now:           time.Now,
	}
}

// ListTasks returns the organization's tasks ordered by due date, each with its prerequisites.
func (uc *UseCase) ListTasks(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	status, ok := domain.NormalizeStatus(filter.Status)
	if !ok {
		return nil, domain.Validation("invalid status filter %q", filter.Status)
	}
	if filter.Status != "" {
		filter.Status = status
	}

	tasks, err := uc.tasks.List(ctx, filter)
	if err != nil {
		return nil, storeFailure("failed to list tasks", err)
	}
	if len(tasks) == 0 {
		return []domain.Task{}, nil
	}

	ids := make([]int64, len(tasks))
	for i := range tasks {
		ids[i] = tasks[i].ID
	}
	edges, err := uc.prerequisites.ListByTasks(ctx, ids)
	if err != nil {
		return nil, storeFailure("failed to load prerequisites", err)
	}

	byTask := make(map[int64][]domain.Prerequisite, len(tasks))
	for _, e := range edges {
		byTask[e.TaskID] = append(byTask[e.TaskID], e)
	}
	for i := range tasks {
		tasks[i].Prerequisites = withEdges(byTask[tasks[i].ID])
	}
	return tasks, nil
}

func (uc *UseCase) GetTask(ctx context.Context, organizationID string, id int64) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, organizationID, id)
	if err != nil {
		return nil, storeFailure("failed to load task", err)
	}
	return uc.attachPrerequisites(ctx, task)
}

// CreateTask validates and stores a task, then one edge per prerequisite id.
// Prerequisite targets are not checked for existence.
func (uc *UseCase) CreateTask(ctx context.Context, task *domain.Task, prerequisites []int64) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	task.Title = strings.TrimSpace(task.Title)
	if task.Title == "" {
		return nil, domain.Validation("title is required")
	}
	priority, ok := domain.NormalizePriority(task.Priority)
	if !ok {
		return nil, domain.Validation("invalid priority %q", task.Priority)
	}
	status, ok := domain.NormalizeStatus(task.Status)
	if !ok {
		return nil, domain.Validation("invalid status %q", task.Status)
	}
	task.Priority = priority
	task.Status = status

	created, err := uc.tasks.Create(ctx, task)
	if err != nil {
		return nil, storeFailure("failed to create task", err)
	}

	if targets := uniqueIDs(prerequisites); len(targets) > 0 {
		if err := uc.prerequisites.Insert(ctx, created.ID, targets); err != nil {
			logger.ForContext(ctx, uc.logger).Error("task created without prerequisites",
				zap.Int64("task_id", created.ID), zap.Error(err))
			return nil, storeFailure("failed to store prerequisites", err)
		}
	}

	return uc.attachPrerequisites(ctx, created)
}

// UpdateTask applies a partial update. When the patch carries prerequisites the
// stored edge set is reconciled against them after the row update.
func (uc *UseCase) UpdateTask(ctx context.Context, organizationID string, id int64, patch domain.TaskPatch) (*domain.Task, error) {
	if patch.IsEmpty() {
		return nil, domain.ErrEmptyPatch
	}
	if err := normalizePatch(&patch); err != nil {
		return nil, err
	}

	var plan *reconcilePlan
	if patch.Prerequisites.Set {
		var desired []int64
		if patch.Prerequisites.Value != nil {
			desired = *patch.Prerequisites.Value
		}
		var err error
		if plan, err = uc.planReconcile(ctx, organizationID, id, desired); err != nil {
			return nil, err
		}
	}

	var (
		task *domain.Task
		err  error
	)
	if patch.HasFieldChanges() {
		task, err = uc.tasks.Update(ctx, organizationID, id, patch)
		if err != nil {
			return nil, storeFailure("failed to update task", err)
		}
	} else {
		task, err = uc.tasks.GetByID(ctx, organizationID, id)
		if err != nil {
			return nil, storeFailure("failed to load task", err)
		}
	}

	if plan != nil {
		if err := uc.applyReconcile(ctx, plan); err != nil {
			return nil, err
		}
	}

	return uc.attachPrerequisites(ctx, task)
}

// DeleteTask removes the task's outgoing edges and then the task itself.
// Edges of other tasks that point at it are kept.
func (uc *UseCase) DeleteTask(ctx context.Context, organizationID string, id int64) error {
	if _, err := uc.tasks.GetByID(ctx, organizationID, id); err != nil {
		return storeFailure("failed to delete task", err)
	}
	if err := uc.prerequisites.DeleteByTask(ctx, id); err != nil {
		return storeFailure("failed to delete prerequisites", err)
	}
	if err := uc.tasks.Delete(ctx, organizationID, id); err != nil {
		return storeFailure("failed to delete task", err)
	}
	return nil
}

// ReopenTask forces the task back to pending and stamps reopened_at, whatever its status.
func (uc *UseCase) ReopenTask(ctx context.Context, organizationID string, id int64) (*domain.Task, error) {
	task, err := uc.tasks.Reopen(ctx, organizationID, id, uc.now().UTC())
	if err != nil {
		return nil, storeFailure("failed to reopen task", err)
	}
	return uc.attachPrerequisites(ctx, task)
}

type reconcilePlan struct {
	taskID   int64
	toInsert []int64
	toDelete []int64
}

func (p *reconcilePlan) empty() bool {
	return len(p.toInsert) == 0 && len(p.toDelete) == 0
}

// planReconcile diffs the stored edges of a task against the desired targets
// and, when enabled, rejects targets that would close a cycle.
func (uc *UseCase) planReconcile(ctx context.Context, organizationID string, taskID int64, desired []int64) (*reconcilePlan, error) {
	current, err := uc.prerequisites.ListByTasks(ctx, []int64{taskID})
	if err != nil {
		return nil, storeFailure("failed to load prerequisites", err)
	}
	currentIDs := make([]int64, len(current))
	for i, e := range current {
		currentIDs[i] = e.DependsOnTaskID
	}

	plan := &reconcilePlan{taskID: taskID}
	plan.toInsert, plan.toDelete = diffPrerequisites(currentIDs, desired)

	if uc.cfg.RejectCycles && len(plan.toInsert) > 0 {
		edges, err := uc.prerequisites.ListByOrganization(ctx, organizationID)
		if err != nil {
			return nil, storeFailure("failed to load prerequisite graph", err)
		}
		if cycle := domain.NewPrerequisiteGraph(edges).CycleThrough(taskID, plan.toInsert); cycle != nil {
			return nil, domain.CycleError(cycle)
		}
	}
	return plan, nil
}

// applyReconcile inserts first, then deletes, and stops at the first failure
// without retrying. A failed delete leaves the inserts in place.
func (uc *UseCase) applyReconcile(ctx context.Context, plan *reconcilePlan) error {
	if plan.empty() {
		return nil
	}
	log := logger.ForContext(ctx, uc.logger).With(zap.Int64("task_id", plan.taskID))
	if err := uc.prerequisites.Insert(ctx, plan.taskID, plan.toInsert); err != nil {
		log.Error("prerequisite insert failed", zap.Int64s("targets", plan.toInsert), zap.Error(err))
		return storeFailure("failed to add prerequisites", err)
	}
	if err := uc.prerequisites.Delete(ctx, plan.taskID, plan.toDelete); err != nil {
		log.Error("prerequisite delete failed, edge set partially reconciled",
			zap.Int64s("targets", plan.toDelete), zap.Error(err))
		return storeFailure("failed to remove prerequisites", err)
	}
	log.Debug("prerequisites reconciled", zap.Int64s("added", plan.toInsert), zap.Int64s("removed", plan.toDelete))
	return nil
}

func (uc *UseCase) attachPrerequisites(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	edges, err := uc.prerequisites.ListByTasks(ctx, []int64{task.ID})
	if err != nil {
		return nil, storeFailure("failed to load prerequisites", err)
	}
	task.Prerequisites = withEdges(edges)
	return task, nil
}

// normalizePatch validates the supplied columns. Null or empty priority and
// status fall back to their defaults, like on create.
func normalizePatch(patch *domain.TaskPatch) error {
	if patch.Title.Set {
		if patch.Title.Value == nil || strings.TrimSpace(*patch.Title.Value) == "" {
			return domain.Validation("title cannot be empty")
		}
		patch.Title = domain.SetField(strings.TrimSpace(*patch.Title.Value))
	}
	if patch.Priority.Set {
		raw := deref(patch.Priority.Value)
		priority, ok := domain.NormalizePriority(raw)
		if !ok {
			return domain.Validation("invalid priority %q", raw)
		}
		patch.Priority = domain.SetField(priority)
	}
	if patch.Status.Set {
		raw := deref(patch.Status.Value)
		status, ok := domain.NormalizeStatus(raw)
		if !ok {
			return domain.Validation("invalid status %q", raw)
		}
		patch.Status = domain.SetField(status)
	}
	return nil
}

// storeFailure surfaces any repository error, not-found included, as an
// internal failure carrying the underlying message.
func storeFailure(message string, err error) error {
	return domain.WrapError(domain.ErrCodeInternal, message, err)
}

func withEdges(edges []domain.Prerequisite) []domain.Prerequisite {
	if edges == nil {
		return []domain.Prerequisite{}
	}
	return edges
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
