package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/zoo/domain"
	"github.com/fastygo/zoo/repository"
)

type gestationRepository struct {
	pool dbtx
}

// NewGestationRepository returns a Postgres-backed GestationRepository.
func NewGestationRepository(pool *pgxpool.Pool) repository.GestationRepository {
	return &gestationRepository{pool: pool}
}

func (r *gestationRepository) Create(ctx context.Context, gestation *domain.Gestation) (*domain.Gestation, error) {
	if gestation == nil {
		return nil, domain.ErrInvalidPayload
	}
	const query = `
	INSERT INTO gestations (organization_id, species_id, enclosure_id, started_at, status, offspring_count)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id
	`
	if err := r.pool.QueryRow(ctx, query,
		gestation.OrganizationID,
		gestation.SpeciesID,
		gestation.EnclosureID,
		gestation.StartedAt,
		gestation.Status,
		gestation.OffspringCount,
	).Scan(&gestation.ID); err != nil {
		return nil, err
	}
	return gestation, nil
}

func (r *gestationRepository) List(ctx context.Context, organizationID string) ([]domain.Gestation, error) {
	const query = `
	SELECT id, organization_id, species_id, enclosure_id, started_at, status, offspring_count
	FROM gestations
	WHERE organization_id = $1
	ORDER BY started_at
	`
	return r.query(ctx, query, organizationID)
}

func (r *gestationRepository) ListInProgress(ctx context.Context) ([]domain.Gestation, error) {
	const query = `
	SELECT id, organization_id, species_id, enclosure_id, started_at, status, offspring_count
	FROM gestations
	WHERE status = $1
	ORDER BY started_at
	`
	return r.query(ctx, query, domain.GestationInProgress)
}

func (r *gestationRepository) Complete(ctx context.Context, gestation domain.Gestation) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const completeQuery = `
	UPDATE gestations
	SET status = $2, offspring_count = offspring_count + 1, completed_at = NOW()
	WHERE id = $1 AND status = $3
	`
	tag, err := tx.Exec(ctx, completeQuery, gestation.ID, domain.GestationCompleted, domain.GestationInProgress)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	const populationQuery = `UPDATE enclosures SET animal_count = animal_count + 1 WHERE id = $1`
	if _, err := tx.Exec(ctx, populationQuery, gestation.EnclosureID); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (r *gestationRepository) query(ctx context.Context, query string, args ...interface{}) ([]domain.Gestation, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gestations []domain.Gestation
	for rows.Next() {
		var g domain.Gestation
		if err := rows.Scan(&g.ID, &g.OrganizationID, &g.SpeciesID, &g.EnclosureID, &g.StartedAt, &g.Status, &g.OffspringCount); err != nil {
			return nil, err
		}
		gestations = append(gestations, g)
	}
	return gestations, rows.Err()
}
