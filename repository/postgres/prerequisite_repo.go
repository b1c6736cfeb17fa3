package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/zoo/domain"
	"github.com/fastygo/zoo/repository"
)

type prerequisiteRepository struct {
	pool dbtx
}

// NewPrerequisiteRepository returns a Postgres-backed PrerequisiteRepository.
func NewPrerequisiteRepository(pool *pgxpool.Pool) repository.PrerequisiteRepository {
	return &prerequisiteRepository{pool: pool}
}

func (r *prerequisiteRepository) ListByTasks(ctx context.Context, taskIDs []int64) ([]domain.Prerequisite, error) {
	if len(taskIDs) == 0 {
		return nil, nil
	}
	const query = `
	SELECT id, task_id, depends_on_task_id
	FROM task_prerequisites
	WHERE task_id = ANY($1)
	ORDER BY task_id, id
	`
	return r.query(ctx, query, taskIDs)
}

func (r *prerequisiteRepository) ListByOrganization(ctx context.Context, organizationID string) ([]domain.Prerequisite, error) {
	const query = `
	SELECT p.id, p.task_id, p.depends_on_task_id
	FROM task_prerequisites p
	JOIN tasks t ON t.id = p.task_id
	WHERE t.organization_id = $1
	`
	return r.query(ctx, query, organizationID)
}

func (r *prerequisiteRepository) Insert(ctx context.Context, taskID int64, dependsOn []int64) error {
	if len(dependsOn) == 0 {
		return nil
	}
	const query = `
	INSERT INTO task_prerequisites (task_id, depends_on_task_id)
	SELECT $1, unnest($2::bigint[])
	`
	_, err := r.pool.Exec(ctx, query, taskID, dependsOn)
	return err
}

func (r *prerequisiteRepository) Delete(ctx context.Context, taskID int64, dependsOn []int64) error {
	if len(dependsOn) == 0 {
		return nil
	}
	const query = `DELETE FROM task_prerequisites WHERE task_id = $1 AND depends_on_task_id = ANY($2)`
	_, err := r.pool.Exec(ctx, query, taskID, dependsOn)
	return err
}

func (r *prerequisiteRepository) DeleteByTask(ctx context.Context, taskID int64) error {
	const query = `DELETE FROM task_prerequisites WHERE task_id = $1`
	_, err := r.pool.Exec(ctx, query, taskID)
	return err
}

func (r *prerequisiteRepository) query(ctx context.Context, query string, args ...interface{}) ([]domain.Prerequisite, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []domain.Prerequisite
	for rows.Next() {
		var edge domain.Prerequisite
		if err := rows.Scan(&edge.ID, &edge.TaskID, &edge.DependsOnTaskID); err != nil {
			return nil, err
		}
		edges = append(edges, edge)
	}
	return edges, rows.Err()
}
