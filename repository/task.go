package repository

import (
	"context"
	"time"

	"github.com/fastygo/zoo/domain"
)

// TaskFilter narrows a task listing. Empty values do not filter.
type TaskFilter struct {
	OrganizationID string
	Status         string
	AssignedTo     string
	DueFrom        *time.Time
	DueTo          *time.Time
}

type TaskRepository interface {
	GetByID(ctx context.Context, organizationID string, id int64) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, organizationID string, id int64, patch domain.TaskPatch) (*domain.Task, error)
	Reopen(ctx context.Context, organizationID string, id int64, at time.Time) (*domain.Task, error)
	Delete(ctx context.Context, organizationID string, id int64) error
}

// PrerequisiteRepository stores task -> prerequisite edges. Insert and Delete
// take the whole batch of target ids so one reconciliation step is one call.
type PrerequisiteRepository interface {
	ListByTasks(ctx context.Context, taskIDs []int64) ([]domain.Prerequisite, error)
	ListByOrganization(ctx context.Context, organizationID string) ([]domain.Prerequisite, error)
	Insert(ctx context.Context, taskID int64, dependsOn []int64) error
	Delete(ctx context.Context, taskID int64, dependsOn []int64) error
	DeleteByTask(ctx context.Context, taskID int64) error
}
