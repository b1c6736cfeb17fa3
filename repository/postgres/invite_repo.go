package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/zoo/domain"
	"github.com/fastygo/zoo/repository"
)

const inviteColumns = `id, organization_id, invited_by, invited_user_id, invited_email, role, status, created_at, updated_at`

type inviteRepository struct {
	pool dbtx
}

// NewInviteRepository returns a Postgres-backed InviteRepository.
func NewInviteRepository(pool *pgxpool.Pool) repository.InviteRepository {
	return &inviteRepository{pool: pool}
}

func (r *inviteRepository) Create(ctx context.Context, invite *domain.Invite) (*domain.Invite, error) {
	if invite == nil {
		return nil, domain.ErrInvalidPayload
	}
	const query = `
	INSERT INTO company_invites (organization_id, invited_by, invited_user_id, invited_email, role, status)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id, created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		invite.OrganizationID,
		invite.InvitedBy,
		invite.InvitedUserID,
		invite.InvitedEmail,
		invite.Role,
		invite.Status,
	).Scan(&invite.ID, &invite.CreatedAt, &invite.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrInvitePending
		}
		return nil, err
	}
	return invite, nil
}

func (r *inviteRepository) GetByID(ctx context.Context, id int64) (*domain.Invite, error) {
	query := `SELECT ` + inviteColumns + ` FROM company_invites WHERE id = $1`
	return scanInvite(r.pool.QueryRow(ctx, query, id))
}

func (r *inviteRepository) ListPendingByOrganization(ctx context.Context, organizationID string) ([]domain.Invite, error) {
	query := `SELECT ` + inviteColumns + `
	FROM company_invites
	WHERE organization_id = $1 AND status = $2
	ORDER BY created_at, id
	`
	return r.query(ctx, query, organizationID, domain.InviteStatusPending)
}

func (r *inviteRepository) ListPendingForUser(ctx context.Context, userID string) ([]domain.Invite, error) {
	query := `SELECT ` + inviteColumns + `
	FROM company_invites
	WHERE invited_user_id = $1 AND status = $2
	ORDER BY created_at, id
	`
	return r.query(ctx, query, userID, domain.InviteStatusPending)
}

func (r *inviteRepository) Respond(ctx context.Context, invite domain.Invite, status string) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const respondQuery = `
	UPDATE company_invites
	SET status = $2, updated_at = NOW()
	WHERE id = $1 AND status = $3
	`
	tag, err := tx.Exec(ctx, respondQuery, invite.ID, status, domain.InviteStatusPending)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if status == domain.InviteStatusAccepted {
		const moveQuery = `
		UPDATE users
		SET organization_id = $2, role = $3, updated_at = NOW()
		WHERE id = $1
		`
		tag, err := tx.Exec(ctx, moveQuery, invite.InvitedUserID, invite.OrganizationID, invite.Role)
		if err != nil {
			return false, err
		}
		if tag.RowsAffected() == 0 {
			return false, domain.ErrUserNotFound
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (r *inviteRepository) query(ctx context.Context, query string, args ...interface{}) ([]domain.Invite, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invites []domain.Invite
	for rows.Next() {
		invite, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		invites = append(invites, *invite)
	}
	return invites, rows.Err()
}

func scanInvite(row scanner) (*domain.Invite, error) {
	var invite domain.Invite
	if err := row.Scan(
		&invite.ID,
		&invite.OrganizationID,
		&invite.InvitedBy,
		&invite.InvitedUserID,
		&invite.InvitedEmail,
		&invite.Role,
		&invite.Status,
		&invite.CreatedAt,
		&invite.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInviteNotFound
		}
		return nil, err
	}
	return &invite, nil
}
