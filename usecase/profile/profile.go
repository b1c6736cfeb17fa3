package profile

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/fastygo/zoo/domain"
	"github.com/fastygo/zoo/repository"
)

type UseCase struct {
	users  repository.UserRepository
	logger *zap.Logger
}

func New(users repository.UserRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{users: users, logger: logger}
}

// GetProfile returns the signed-in user. A token whose user has since been
// removed, deactivated or moved to another organization no longer resolves.
func (uc *UseCase) GetProfile(ctx context.Context, userID, organizationID string) (*domain.User, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}

	user, err := uc.users.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}

	if !user.IsActive() || (organizationID != "" && user.OrganizationID != organizationID) {
		uc.logger.Warn("profile lookup rejected",
			zap.String("user_id", userID),
			zap.String("status", user.Status),
		)
		return nil, domain.ErrUnauthorized
	}
	return user, nil
}
