package repository

import (
	"context"

	"github.com/fastygo/zoo/domain"
)

type InviteRepository interface {
	// Create fails with ErrInvitePending while another pending invite
	// exists for the same organization and email.
	Create(ctx context.Context, invite *domain.Invite) (*domain.Invite, error)
	GetByID(ctx context.Context, id int64) (*domain.Invite, error)
	ListPendingByOrganization(ctx context.Context, organizationID string) ([]domain.Invite, error)
	ListPendingForUser(ctx context.Context, userID string) ([]domain.Invite, error)
	// Respond closes a pending invite with status. On acceptance the invited
	// user moves to the invite's organization and role in the same write.
	// It reports false when the invite was no longer pending.
	Respond(ctx context.Context, invite domain.Invite, status string) (bool, error)
}
