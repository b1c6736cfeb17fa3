package domain

import (
	"strings"
	"time"
)

const (
	TaskStatusPending   = "pending"
	TaskStatusBlocked   = "blocked"
	TaskStatusCompleted = "completed"

	DefaultTaskStatus   = TaskStatusPending
	DefaultTaskPriority = "media"
)

var taskPriorities = map[string]string{
	"low":    "low",
	"medium": "medium",
	"high":   "high",
	"baixa":  "baixa",
	"media":  "media",
	"alta":   "alta",
}

var taskStatuses = map[string]string{
	"pending":      TaskStatusPending,
	"blocked":      TaskStatusBlocked,
	"completed":    TaskStatusCompleted,
	"pendente":     TaskStatusPending,
	"bloqueada":    TaskStatusBlocked,
	"concluida":    TaskStatusCompleted,
	"in_progress":  TaskStatusBlocked,
	"em_andamento": TaskStatusBlocked,
}

// NormalizePriority maps a client priority onto its stored value.
// An empty value resolves to DefaultTaskPriority; anything unknown reports false.
func NormalizePriority(value string) (string, bool) {
	if value == "" {
		return DefaultTaskPriority, true
	}
	priority, ok := taskPriorities[strings.ToLower(value)]
	return priority, ok
}

// NormalizeStatus maps a client status (including legacy synonyms) onto a canonical status.
// An empty value resolves to DefaultTaskStatus; anything unknown reports false.
func NormalizeStatus(value string) (string, bool) {
	if value == "" {
		return DefaultTaskStatus, true
	}
	status, ok := taskStatuses[strings.ToLower(value)]
	return status, ok
}

// Task is a unit of work inside an organization. Prerequisites are the
// outgoing dependency edges, resolved by identifier at read time.
type Task struct {
	ID                  int64          `json:"id"`
	OrganizationID      string         `json:"organization_id"`
	CreatedBy           string         `json:"created_by,omitempty"`
	Title               string         `json:"title"`
	Description         *string        `json:"description"`
	AssignedTo          *string        `json:"assigned_to"`
	DueAt               *time.Time     `json:"due_at"`
	Priority            string         `json:"priority"`
	Status              string         `json:"status"`
	PhotoRequired       bool           `json:"photo_required"`
	EnclosureID         *string        `json:"enclosure_id"`
	SpeciesID           *string        `json:"species_id"`
	AnimalID            *string        `json:"animal_id"`
	ChecklistTemplateID *string        `json:"checklist_template_id"`
	ReopenedAt          *time.Time     `json:"reopened_at"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	Prerequisites       []Prerequisite `json:"prerequisites"`
}

// Reopen moves the task back to pending whatever its current status.
func (t *Task) Reopen(at time.Time) {
	if t == nil {
		return
	}
	t.Status = TaskStatusPending
	t.ReopenedAt = &at
}

// DependsOn lists the prerequisite task ids in edge order.
func (t *Task) DependsOn() []int64 {
	if t == nil {
		return nil
	}
	ids := make([]int64, 0, len(t.Prerequisites))
	for _, p := range t.Prerequisites {
		ids = append(ids, p.DependsOnTaskID)
	}
	return ids
}

// Prerequisite is a directed edge: TaskID cannot be done before DependsOnTaskID.
type Prerequisite struct {
	ID              int64 `json:"id"`
	TaskID          int64 `json:"task_id"`
	DependsOnTaskID int64 `json:"depends_on_task_id"`
}

// Field is a patch slot. Set tells whether the client supplied the key;
// a nil Value on a set field means the client sent null or an empty value.
type Field[T any] struct {
	Set   bool
	Value *T
}

// SetField builds a supplied slot holding v.
func SetField[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: &v}
}

// ClearField builds a supplied slot with no value.
func ClearField[T any]() Field[T] {
	return Field[T]{Set: true}
}

// TaskPatch carries a partial task update.
type TaskPatch struct {
	Title               Field[string]
	Description         Field[string]
	AssignedTo          Field[string]
	DueAt               Field[time.Time]
	Priority            Field[string]
	Status              Field[string]
	PhotoRequired       Field[bool]
	EnclosureID         Field[string]
	SpeciesID           Field[string]
	AnimalID            Field[string]
	ChecklistTemplateID Field[string]

	Prerequisites Field[[]int64]
}

// HasFieldChanges reports whether any column of the task row is touched.
// Prerequisites live in their own table and do not count.
func (p TaskPatch) HasFieldChanges() bool {
	return p.Title.Set ||
		p.Description.Set ||
		p.AssignedTo.Set ||
		p.DueAt.Set ||
		p.Priority.Set ||
		p.Status.Set ||
		p.PhotoRequired.Set ||
		p.EnclosureID.Set ||
		p.SpeciesID.Set ||
		p.AnimalID.Set ||
		p.ChecklistTemplateID.Set
}

// IsEmpty is true when the patch changes neither columns nor prerequisites.
func (p TaskPatch) IsEmpty() bool {
	return !p.HasFieldChanges() && !p.Prerequisites.Set
}
