package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/zoo/domain"
	"github.com/fastygo/zoo/repository"
)

const taskColumns = `id, organization_id, created_by, title, description, assigned_to, due_at,
	priority, status, photo_required, enclosure_id, species_id, animal_id,
	checklist_template_id, reopened_at, created_at, updated_at`

type taskRepository struct {
	pool dbtx
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) GetByID(ctx context.Context, organizationID string, id int64) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + `
	FROM tasks
	WHERE id = $1 AND organization_id = $2
	`
	row := r.pool.QueryRow(ctx, query, id, organizationID)
	return scanTask(row)
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + `
	FROM tasks
	WHERE organization_id = $1
	  AND ($2 = '' OR status = $2)
	  AND ($3 = '' OR assigned_to = $3)
	  AND ($4::timestamptz IS NULL OR due_at >= $4)
	  AND ($5::timestamptz IS NULL OR due_at <= $5)
	ORDER BY due_at ASC NULLS LAST, id ASC
	`
	rows, err := r.pool.Query(ctx, query,
		filter.OrganizationID,
		filter.Status,
		filter.AssignedTo,
		nullTime(filter.DueFrom),
		nullTime(filter.DueTo),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO tasks (organization_id, created_by, title, description, assigned_to, due_at,
		priority, status, photo_required, enclosure_id, species_id, animal_id, checklist_template_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	RETURNING id, created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		task.OrganizationID,
		task.CreatedBy,
		task.Title,
		task.Description,
		task.AssignedTo,
		nullTime(task.DueAt),
		task.Priority,
		task.Status,
		task.PhotoRequired,
		task.EnclosureID,
		task.SpeciesID,
		task.AnimalID,
		task.ChecklistTemplateID,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, err
	}

	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, organizationID string, id int64, patch domain.TaskPatch) (*domain.Task, error) {
	sets, args := patchAssignments(patch)
	if len(sets) == 0 {
		return r.GetByID(ctx, organizationID, id)
	}

	args = append(args, id, organizationID)
	query := fmt.Sprintf(`
	UPDATE tasks
	SET %s, updated_at = NOW()
	WHERE id = $%d AND organization_id = $%d
	RETURNING %s
	`, strings.Join(sets, ", "), len(args)-1, len(args), taskColumns)

	return scanTask(r.pool.QueryRow(ctx, query, args...))
}

func (r *taskRepository) Reopen(ctx context.Context, organizationID string, id int64, at time.Time) (*domain.Task, error) {
	query := `
	UPDATE tasks
	SET status = $3, reopened_at = $4, updated_at = NOW()
	WHERE id = $1 AND organization_id = $2
	RETURNING ` + taskColumns

	return scanTask(r.pool.QueryRow(ctx, query, id, organizationID, domain.TaskStatusPending, at))
}

func (r *taskRepository) Delete(ctx context.Context, organizationID string, id int64) error {
	const query = `DELETE FROM tasks WHERE id = $1 AND organization_id = $2`
	tag, err := r.pool.Exec(ctx, query, id, organizationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// patchAssignments renders the SET list of a partial update. Placeholders
// are numbered from $1 in the order of the returned arguments.
func patchAssignments(patch domain.TaskPatch) ([]string, []interface{}) {
	var (
		sets []string
		args []interface{}
	)
	add := func(set bool, column string, value interface{}) {
		if !set {
			return
		}
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	add(patch.Title.Set, "title", patch.Title.Value)
	add(patch.Description.Set, "description", patch.Description.Value)
	add(patch.AssignedTo.Set, "assigned_to", patch.AssignedTo.Value)
	add(patch.DueAt.Set, "due_at", nullTime(patch.DueAt.Value))
	add(patch.Priority.Set, "priority", patch.Priority.Value)
	add(patch.Status.Set, "status", patch.Status.Value)
	add(patch.PhotoRequired.Set, "photo_required", patch.PhotoRequired.Value != nil && *patch.PhotoRequired.Value)
	add(patch.EnclosureID.Set, "enclosure_id", patch.EnclosureID.Value)
	add(patch.SpeciesID.Set, "species_id", patch.SpeciesID.Value)
	add(patch.AnimalID.Set, "animal_id", patch.AnimalID.Value)
	add(patch.ChecklistTemplateID.Set, "checklist_template_id", patch.ChecklistTemplateID.Value)

	return sets, args
}

func scanTask(row scanner) (*domain.Task, error) {
	var task domain.Task

	if err := row.Scan(
		&task.ID,
		&task.OrganizationID,
		&task.CreatedBy,
		&task.Title,
		&task.Description,
		&task.AssignedTo,
		&task.DueAt,
		&task.Priority,
		&task.Status,
		&task.PhotoRequired,
		&task.EnclosureID,
		&task.SpeciesID,
		&task.AnimalID,
		&task.ChecklistTemplateID,
		&task.ReopenedAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	return &task, nil
}
