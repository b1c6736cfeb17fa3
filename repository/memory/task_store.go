// Package memory keeps task data in process. It backs the use case and
// handler tests and records every write so tests can assert call order.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/fastygo/zoo/domain"
	"github.com/fastygo/zoo/repository"
)

// Operation names recorded in the call log.
const (
	OpTaskCreate         = "task.create"
	OpTaskUpdate         = "task.update"
	OpTaskReopen         = "task.reopen"
	OpTaskDelete         = "task.delete"
	OpPrerequisiteInsert = "prerequisite.insert"
	OpPrerequisiteDelete = "prerequisite.delete"
	OpPrerequisitePurge  = "prerequisite.delete_by_task"
)

// Call is one recorded write.
type Call struct {
	Op      string
	TaskID  int64
	Targets []int64
}

// TaskStore is an in-memory TaskRepository and PrerequisiteRepository pair.
type TaskStore struct {
	mu       sync.Mutex
	tasks    map[int64]domain.Task
	edges    []domain.Prerequisite
	nextTask int64
	nextEdge int64
	calls    []Call
	failures map[string]error
}

func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks:    make(map[int64]domain.Task),
		failures: make(map[string]error),
	}
}

// Tasks exposes the store as a TaskRepository.
func (s *TaskStore) Tasks() repository.TaskRepository { return taskRepo{s} }

// Prerequisites exposes the store as a PrerequisiteRepository.
func (s *TaskStore) Prerequisites() repository.PrerequisiteRepository { return prerequisiteRepo{s} }

// FailOn makes every later call of op return err. A nil err clears it.
func (s *TaskStore) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// Calls returns the write log.
func (s *TaskStore) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

// CallsOf filters the write log by operation.
func (s *TaskStore) CallsOf(op string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls clears the write log.
func (s *TaskStore) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// Seed stores tasks as-is, keeping their ids.
func (s *TaskStore) Seed(tasks ...domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tasks {
		t.Prerequisites = nil
		s.tasks[t.ID] = t
		if t.ID > s.nextTask {
			s.nextTask = t.ID
		}
	}
}

// SeedEdges stores prerequisite edges without recording calls.
func (s *TaskStore) SeedEdges(taskID int64, dependsOn ...int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, target := range dependsOn {
		s.nextEdge++
		s.edges = append(s.edges, domain.Prerequisite{ID: s.nextEdge, TaskID: taskID, DependsOnTaskID: target})
	}
}

func (s *TaskStore) record(op string, taskID int64, targets []int64) error {
	s.calls = append(s.calls, Call{Op: op, TaskID: taskID, Targets: slices.Clone(targets)})
	return s.failures[op]
}

type taskRepo struct{ s *TaskStore }

func (r taskRepo) GetByID(_ context.Context, organizationID string, id int64) (*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	task, ok := r.s.tasks[id]
	if !ok || task.OrganizationID != organizationID {
		return nil, domain.ErrTaskNotFound
	}
	return &task, nil
}

func (r taskRepo) List(_ context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []domain.Task
	for _, t := range r.s.tasks {
		if t.OrganizationID != filter.OrganizationID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.AssignedTo != "" && (t.AssignedTo == nil || *t.AssignedTo != filter.AssignedTo) {
			continue
		}
		if filter.DueFrom != nil && (t.DueAt == nil || t.DueAt.Before(*filter.DueFrom)) {
			continue
		}
		if filter.DueTo != nil && (t.DueAt == nil || t.DueAt.After(*filter.DueTo)) {
			continue
		}
		out = append(out, t)
	}

	// Postgres orders NULL due dates last on ASC.
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].DueAt, out[j].DueAt
		switch {
		case a == nil && b == nil:
			return out[i].ID < out[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.Before(*b)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r taskRepo) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record(OpTaskCreate, 0, nil); err != nil {
		return nil, err
	}
	r.s.nextTask++
	now := time.Now()
	task.ID = r.s.nextTask
	task.CreatedAt, task.UpdatedAt = now, now
	stored := *task
	stored.Prerequisites = nil
	r.s.tasks[task.ID] = stored
	return task, nil
}

func (r taskRepo) Update(_ context.Context, organizationID string, id int64, patch domain.TaskPatch) (*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record(OpTaskUpdate, id, nil); err != nil {
		return nil, err
	}
	task, ok := r.s.tasks[id]
	if !ok || task.OrganizationID != organizationID {
		return nil, domain.ErrTaskNotFound
	}

	if patch.Title.Set && patch.Title.Value != nil {
		task.Title = *patch.Title.Value
	}
	if patch.Priority.Set && patch.Priority.Value != nil {
		task.Priority = *patch.Priority.Value
	}
	if patch.Status.Set && patch.Status.Value != nil {
		task.Status = *patch.Status.Value
	}
	if patch.PhotoRequired.Set {
		task.PhotoRequired = patch.PhotoRequired.Value != nil && *patch.PhotoRequired.Value
	}
	if patch.DueAt.Set {
		task.DueAt = patch.DueAt.Value
	}
	applyText(&task.Description, patch.Description)
	applyText(&task.AssignedTo, patch.AssignedTo)
	applyText(&task.EnclosureID, patch.EnclosureID)
	applyText(&task.SpeciesID, patch.SpeciesID)
	applyText(&task.AnimalID, patch.AnimalID)
	applyText(&task.ChecklistTemplateID, patch.ChecklistTemplateID)

	task.UpdatedAt = time.Now()
	r.s.tasks[id] = task
	return &task, nil
}

func (r taskRepo) Reopen(_ context.Context, organizationID string, id int64, at time.Time) (*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record(OpTaskReopen, id, nil); err != nil {
		return nil, err
	}
	task, ok := r.s.tasks[id]
	if !ok || task.OrganizationID != organizationID {
		return nil, domain.ErrTaskNotFound
	}
	task.Reopen(at)
	task.UpdatedAt = at
	r.s.tasks[id] = task
	return &task, nil
}

func (r taskRepo) Delete(_ context.Context, organizationID string, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record(OpTaskDelete, id, nil); err != nil {
		return err
	}
	task, ok := r.s.tasks[id]
	if !ok || task.OrganizationID != organizationID {
		return domain.ErrTaskNotFound
	}
	delete(r.s.tasks, id)
	return nil
}

func applyText(dst **string, field domain.Field[string]) {
	if field.Set {
		*dst = field.Value
	}
}

type prerequisiteRepo struct{ s *TaskStore }

func (r prerequisiteRepo) ListByTasks(_ context.Context, taskIDs []int64) ([]domain.Prerequisite, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Prerequisite
	for _, e := range r.s.edges {
		if slices.Contains(taskIDs, e.TaskID) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r prerequisiteRepo) ListByOrganization(_ context.Context, organizationID string) ([]domain.Prerequisite, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Prerequisite
	for _, e := range r.s.edges {
		if t, ok := r.s.tasks[e.TaskID]; ok && t.OrganizationID == organizationID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r prerequisiteRepo) Insert(_ context.Context, taskID int64, dependsOn []int64) error {
	if len(dependsOn) == 0 {
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record(OpPrerequisiteInsert, taskID, dependsOn); err != nil {
		return err
	}
	for _, target := range dependsOn {
		r.s.nextEdge++
		r.s.edges = append(r.s.edges, domain.Prerequisite{ID: r.s.nextEdge, TaskID: taskID, DependsOnTaskID: target})
	}
	return nil
}

func (r prerequisiteRepo) Delete(_ context.Context, taskID int64, dependsOn []int64) error {
	if len(dependsOn) == 0 {
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record(OpPrerequisiteDelete, taskID, dependsOn); err != nil {
		return err
	}
	r.s.edges = slices.DeleteFunc(r.s.edges, func(e domain.Prerequisite) bool {
		return e.TaskID == taskID && slices.Contains(dependsOn, e.DependsOnTaskID)
	})
	return nil
}

func (r prerequisiteRepo) DeleteByTask(_ context.Context, taskID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record(OpPrerequisitePurge, taskID, nil); err != nil {
		return err
	}
	r.s.edges = slices.DeleteFunc(r.s.edges, func(e domain.Prerequisite) bool {
		return e.TaskID == taskID
	})
	return nil
}
