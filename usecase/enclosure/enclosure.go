package enclosure

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/zoo/domain"
	"github.com/fastygo/zoo/repository"
)

type UseCase struct {
	enclosures repository.EnclosureRepository
	logger     *zap.Logger
}

func New(enclosures repository.EnclosureRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{enclosures: enclosures, logger: logger}
}

func (uc *UseCase) ListEnclosures(ctx context.Context, organizationID string) ([]domain.Enclosure, error) {
	enclosures, err := uc.enclosures.List(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	if enclosures == nil {
		enclosures = []domain.Enclosure{}
	}
	return enclosures, nil
}

// CreateEnclosure adds an empty enclosure. Population only grows through gestation completions.
func (uc *UseCase) CreateEnclosure(ctx context.Context, organizationID, name, species string) (*domain.Enclosure, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Validation("name is required")
	}
	return uc.enclosures.Create(ctx, &domain.Enclosure{
		OrganizationID: organizationID,
		Name:           name,
		Species:        strings.TrimSpace(species),
	})
}
