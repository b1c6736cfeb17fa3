package repository

import (
	"context"

	"github.com/fastygo/zoo/domain"
)

type EnclosureRepository interface {
	GetByID(ctx context.Context, organizationID string, id int64) (*domain.Enclosure, error)
	List(ctx context.Context, organizationID string) ([]domain.Enclosure, error)
	Create(ctx context.Context, enclosure *domain.Enclosure) (*domain.Enclosure, error)
}
