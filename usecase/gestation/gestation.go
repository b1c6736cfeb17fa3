package gestation

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/zoo/domain"
	"github.com/fastygo/zoo/pkg/logger"
	"github.com/fastygo/zoo/repository"
)

// Tracker is the part of the reproduction simulator the API talks to.
type Tracker interface {
	Track(gestation domain.Gestation)
	SyncState(id int64) string
}

type UseCase struct {
	gestations repository.GestationRepository
	enclosures repository.EnclosureRepository
	tracker    Tracker
	logger     *zap.Logger
	now        func() time.Time
}

func New(
	gestations repository.GestationRepository,
	enclosures repository.EnclosureRepository,
	tracker Tracker,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		gestations: gestations,
		enclosures: enclosures,
		tracker:    tracker,
		logger:     logger,
		now:        time.Now,
	}
}

// StartGestation opens a reproduction cycle for a species inside one of the organization's enclosures.
func (uc *UseCase) StartGestation(ctx context.Context, organizationID, speciesID string, enclosureID int64) (*domain.Gestation, error) {
	speciesID = strings.TrimSpace(speciesID)
	if speciesID == "" {
		return nil, domain.Validation("species_id is required")
	}
	if enclosureID <= 0 {
		return nil, domain.Validation("enclosure_id is required")
	}
	if _, err := uc.enclosures.GetByID(ctx, organizationID, enclosureID); err != nil {
		return nil, err
	}

	created, err := uc.gestations.Create(ctx, &domain.Gestation{
		OrganizationID: organizationID,
		SpeciesID:      speciesID,
		EnclosureID:    enclosureID,
		StartedAt:      uc.now().UTC(),
		Status:         domain.GestationInProgress,
	})
	if err != nil {
		return nil, err
	}
	created.SyncState = domain.SyncStateSynced

	if uc.tracker != nil {
		uc.tracker.Track(*created)
	}
	logger.ForContext(ctx, uc.logger).Info("gestation started",
		zap.Int64("gestation_id", created.ID),
		zap.Int64("enclosure_id", enclosureID),
	)
	return created, nil
}

// ListGestations returns stored gestations annotated with the simulator's view of them.
func (uc *UseCase) ListGestations(ctx context.Context, organizationID string) ([]domain.Gestation, error) {
	gestations, err := uc.gestations.List(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Gestation, 0, len(gestations))
	for _, g := range gestations {
		g.SyncState = domain.SyncStateSynced
		if uc.tracker != nil {
			if state := uc.tracker.SyncState(g.ID); state != "" {
				g.SyncState = state
			}
		}
		out = append(out, g)
	}
	return out, nil
}
