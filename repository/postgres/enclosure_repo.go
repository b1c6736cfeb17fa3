package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/zoo/domain"
	"github.com/fastygo/zoo/repository"
)

type enclosureRepository struct {
	pool dbtx
}

// NewEnclosureRepository returns a Postgres-backed EnclosureRepository.
func NewEnclosureRepository(pool *pgxpool.Pool) repository.EnclosureRepository {
	return &enclosureRepository{pool: pool}
}

func (r *enclosureRepository) GetByID(ctx context.Context, organizationID string, id int64) (*domain.Enclosure, error) {
	const query = `
	SELECT id, organization_id, name, species, animal_count, created_at
	FROM enclosures
	WHERE id = $1 AND organization_id = $2
	`
	var e domain.Enclosure
	if err := r.pool.QueryRow(ctx, query, id, organizationID).Scan(
		&e.ID, &e.OrganizationID, &e.Name, &e.Species, &e.AnimalCount, &e.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEnclosureNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *enclosureRepository) List(ctx context.Context, organizationID string) ([]domain.Enclosure, error) {
	const query = `
	SELECT id, organization_id, name, species, animal_count, created_at
	FROM enclosures
	WHERE organization_id = $1
	ORDER BY id
	`
	rows, err := r.pool.Query(ctx, query, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var enclosures []domain.Enclosure
	for rows.Next() {
		var e domain.Enclosure
		if err := rows.Scan(&e.ID, &e.OrganizationID, &e.Name, &e.Species, &e.AnimalCount, &e.CreatedAt); err != nil {
			return nil, err
		}
		enclosures = append(enclosures, e)
	}
	return enclosures, rows.Err()
}

func (r *enclosureRepository) Create(ctx context.Context, enclosure *domain.Enclosure) (*domain.Enclosure, error) {
	if enclosure == nil {
		return nil, domain.ErrInvalidPayload
	}
	const query = `
	INSERT INTO enclosures (organization_id, name, species, animal_count)
	VALUES ($1, $2, $3, $4)
	RETURNING id, created_at
	`
	if err := r.pool.QueryRow(ctx, query,
		enclosure.OrganizationID,
		enclosure.Name,
		enclosure.Species,
		enclosure.AnimalCount,
	).Scan(&enclosure.ID, &enclosure.CreatedAt); err != nil {
		return nil, err
	}
	return enclosure, nil
}
