package invite

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/zoo/domain"
	"github.com/fastygo/zoo/pkg/logger"
	"github.com/fastygo/zoo/repository"
)

const maxRoleLength = 64

type UseCase struct {
	invites repository.InviteRepository
	users   repository.UserRepository
	logger  *zap.Logger
	now     func() time.Time
}

func New(invites repository.InviteRepository, users repository.UserRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{invites: invites, users: users, logger: logger, now: time.Now}
}

// Invite asks the registered user behind email to join organizationID with
// role. An empty role means a plain member.
func (uc *UseCase) Invite(ctx context.Context, organizationID, invitedBy, email, role string) (*domain.Invite, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, domain.Validation("email is required")
	}
	role = strings.TrimSpace(role)
	if role == "" {
		role = domain.DefaultMemberRole
	}
	if len(role) > maxRoleLength {
		return nil, domain.Validation("role must have at most %d characters", maxRoleLength)
	}

	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.NewError(domain.ErrCodeNotFound, "no account is registered with this email")
		}
		return nil, err
	}
	if user.OrganizationID == organizationID {
		return nil, domain.ErrAlreadyMember
	}

	created, err := uc.invites.Create(ctx, &domain.Invite{
		OrganizationID: organizationID,
		InvitedBy:      invitedBy,
		InvitedUserID:  user.ID,
		InvitedEmail:   user.Email,
		Role:           role,
		Status:         domain.InviteStatusPending,
	})
	if err != nil {
		return nil, err
	}
	logger.ForContext(ctx, uc.logger).Info("invite sent",
		zap.Int64("invite_id", created.ID),
		zap.String("invited_user_id", created.InvitedUserID),
	)
	return created, nil
}

// ListSent returns the organization's invites still awaiting an answer.
func (uc *UseCase) ListSent(ctx context.Context, organizationID string) ([]domain.Invite, error) {
	return uc.invites.ListPendingByOrganization(ctx, organizationID)
}

// ListPending returns the invites addressed to userID still awaiting an answer.
func (uc *UseCase) ListPending(ctx context.Context, userID string) ([]domain.Invite, error) {
	return uc.invites.ListPendingForUser(ctx, userID)
}

func (uc *UseCase) Accept(ctx context.Context, userID string, id int64) (*domain.Invite, error) {
	return uc.respond(ctx, userID, id, true)
}

func (uc *UseCase) Decline(ctx context.Context, userID string, id int64) (*domain.Invite, error) {
	return uc.respond(ctx, userID, id, false)
}

// respond answers an invite on behalf of its addressee. Invites addressed to
// someone else read as missing.
func (uc *UseCase) respond(ctx context.Context, userID string, id int64, accept bool) (*domain.Invite, error) {
	invite, err := uc.invites.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invite.InvitedUserID != userID {
		return nil, domain.ErrInviteNotFound
	}

	answered := *invite
	if !answered.Respond(accept, uc.now()) {
		return nil, domain.ErrInviteClosed
	}
	ok, err := uc.invites.Respond(ctx, *invite, answered.Status)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrInviteClosed
	}

	logger.ForContext(ctx, uc.logger).Info("invite answered",
		zap.Int64("invite_id", invite.ID),
		zap.String("status", answered.Status),
		zap.String("organization_id", invite.OrganizationID),
	)
	return uc.invites.GetByID(ctx, id)
}
