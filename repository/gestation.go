package repository

import (
	"context"

	"github.com/fastygo/zoo/domain"
)

type GestationRepository interface {
	Create(ctx context.Context, gestation *domain.Gestation) (*domain.Gestation, error)
	List(ctx context.Context, organizationID string) ([]domain.Gestation, error)
	ListInProgress(ctx context.Context) ([]domain.Gestation, error)

	// Complete marks an in-progress gestation completed, bumps its offspring
	// counter and the population of its enclosure. It reports false when the
	// gestation was no longer in progress, in which case nothing is written.
	Complete(ctx context.Context, gestation domain.Gestation) (bool, error)
}
