package auth

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastygo/zoo/domain"
	"github.com/fastygo/zoo/pkg/logger"
	"github.com/fastygo/zoo/pkg/token"
	"github.com/fastygo/zoo/repository"
)

const (
	minPasswordLength = 6
	defaultRole       = domain.DefaultMemberRole
	activeStatus      = "active"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Grant is what a successful login or refresh hands back to the client.
type Grant struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Session   *domain.Session `json:"session"`
	User      *domain.User    `json:"user,omitempty"`
}

type UseCase struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	enclosures repository.EnclosureRepository
	tokens     *token.Manager
	logger     *zap.Logger
	now        func() time.Time
}

func New(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	enclosures repository.EnclosureRepository,
	tokens *token.Manager,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:      users,
		sessions:   sessions,
		enclosures: enclosures,
		tokens:     tokens,
		logger:     logger,
		now:        time.Now,
	}
}

// Register creates a user in a fresh organization and seeds its default enclosure.
func (uc *UseCase) Register(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !emailPattern.MatchString(email) {
		return nil, domain.Validation("invalid email")
	}
	if len(password) < minPasswordLength {
		return nil, domain.Validation("password must have at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "failed to hash password", err)
	}

	user := &domain.User{
		ID:             uuid.NewString(),
		Email:          email,
		OrganizationID: uuid.NewString(),
		Role:           defaultRole,
		Status:         activeStatus,
		PasswordHash:   string(hash),
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}

	// The user exists even when seeding fails; the enclosure can be created later.
	enclosure := &domain.Enclosure{
		OrganizationID: user.OrganizationID,
		Name:           domain.DefaultEnclosureName,
		Species:        domain.DefaultEnclosureSpecies,
	}
	if _, err := uc.enclosures.Create(ctx, enclosure); err != nil {
		logger.ForContext(ctx, uc.logger).Warn("default enclosure not created",
			zap.String("organization_id", user.OrganizationID),
			zap.Error(err),
		)
	}

	return user, nil
}

// Login verifies credentials and opens a session.
func (uc *UseCase) Login(ctx context.Context, email, password string) (*Grant, error) {
	user, err := uc.users.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive() {
		return nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logger.ForContext(ctx, uc.logger).Warn("login rejected", zap.String("user_id", user.ID))
		return nil, domain.ErrInvalidCredentials
	}

	now := uc.now()
	session := &domain.Session{
		ID:             uuid.NewString(),
		UserID:         user.ID,
		OrganizationID: user.OrganizationID,
		CreatedAt:      now,
		ExpiresAt:      now.Add(uc.tokens.TTL()),
	}
	grant, err := uc.grant(ctx, session)
	if err != nil {
		return nil, err
	}
	grant.User = user
	return grant, nil
}

// Refresh pushes the session expiry forward and issues a new token. The user
// is re-read so an organization change, such as an accepted invite, reaches
// the session; a removed or inactive user loses it.
func (uc *UseCase) Refresh(ctx context.Context, sessionID string) (*Grant, error) {
	session, err := uc.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	user, err := uc.users.GetByID(ctx, session.UserID)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}
	if !user.IsActive() {
		_ = uc.sessions.Delete(ctx, sessionID)
		return nil, domain.ErrUnauthorized
	}
	if user.OrganizationID != session.OrganizationID {
		logger.ForContext(ctx, uc.logger).Info("session moved to another organization",
			zap.String("user_id", user.ID),
			zap.String("from", session.OrganizationID),
			zap.String("to", user.OrganizationID),
		)
		session.OrganizationID = user.OrganizationID
	}

	session.ExpiresAt = uc.now().Add(uc.tokens.TTL())
	grant, err := uc.grant(ctx, session)
	if err != nil {
		return nil, err
	}
	grant.User = user
	return grant, nil
}

func (uc *UseCase) Logout(ctx context.Context, sessionID string) error {
	return uc.sessions.Delete(ctx, sessionID)
}

func (uc *UseCase) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsExpired(uc.now()) {
		_ = uc.sessions.Delete(ctx, sessionID)
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Authenticate resolves a bearer token to its live session.
func (uc *UseCase) Authenticate(ctx context.Context, raw string) (*domain.Session, error) {
	claims, err := uc.tokens.Parse(raw)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeUnauthorized, "invalid token", err)
	}
	session, err := uc.GetSession(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if session.UserID != claims.UserID {
		return nil, domain.ErrUnauthorized
	}
	return session, nil
}

func (uc *UseCase) grant(ctx context.Context, session *domain.Session) (*Grant, error) {
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	signed, expires, err := uc.tokens.Issue(token.Claims{
		UserID:         session.UserID,
		OrganizationID: session.OrganizationID,
		SessionID:      session.ID,
	}, uc.now())
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "failed to sign token", err)
	}
	return &Grant{Token: signed, ExpiresAt: expires, Session: session}, nil
}
