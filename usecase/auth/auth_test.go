package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/zoo/domain"
	"github.com/fastygo/zoo/pkg/token"
	"github.com/fastygo/zoo/repository/memory"
)

type fixture struct {
	uc       *UseCase
	users    *memory.UserStore
	sessions *memory.SessionStore
	zoo      *memory.ZooStore
	tokens   *token.Manager
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{
		users:    memory.NewUserStore(),
		sessions: memory.NewSessionStore(),
		zoo:      memory.NewZooStore(),
		tokens:   token.NewManager("test-secret", "zoo", time.Hour),
	}
	f.uc = New(f.users, f.sessions, f.zoo.Enclosures(), f.tokens, nil)
	return f
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.uc.Register(ctx, " Keeper@Zoo.org ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "keeper@zoo.org", user.Email)
	assert.NotEmpty(t, user.OrganizationID)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	enclosures, err := f.zoo.Enclosures().List(ctx, user.OrganizationID)
	require.NoError(t, err)
	require.Len(t, enclosures, 1)
	assert.Equal(t, domain.DefaultEnclosureName, enclosures[0].Name)
	assert.Equal(t, domain.DefaultEnclosureSpecies, enclosures[0].Species)
	assert.Zero(t, enclosures[0].AnimalCount)
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"missing at", "keeper.zoo.org", "secret1"},
		{"missing domain dot", "keeper@zoo", "secret1"},
		{"inner space", "kee per@zoo.org", "secret1"},
		{"short password", "keeper@zoo.org", "12345"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.uc.Register(context.Background(), tt.email, tt.password)
			assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid), "got %v", err)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.uc.Register(ctx, "keeper@zoo.org", "secret1")
	require.NoError(t, err)

	_, err = f.uc.Register(ctx, "KEEPER@zoo.org", "secret2")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeConflict))
}

func TestRegister_EnclosureFailureKeepsUser(t *testing.T) {
	f := newFixture(t)
	f.zoo.FailEnclosureCreate(errors.New("db down"))

	user, err := f.uc.Register(context.Background(), "keeper@zoo.org", "secret1")
	require.NoError(t, err)
	_, err = f.users.GetByID(context.Background(), user.ID)
	assert.NoError(t, err)
}

func TestLoginAndAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, err := f.uc.Register(ctx, "keeper@zoo.org", "secret1")
	require.NoError(t, err)

	grant, err := f.uc.Login(ctx, "keeper@zoo.org", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, grant.Token)
	assert.Equal(t, user.ID, grant.Session.UserID)
	assert.Equal(t, user.OrganizationID, grant.Session.OrganizationID)

	session, err := f.uc.Authenticate(ctx, grant.Token)
	require.NoError(t, err)
	assert.Equal(t, grant.Session.ID, session.ID)

	claims, err := f.tokens.Parse(grant.Token)
	require.NoError(t, err)
	assert.Equal(t, user.OrganizationID, claims.OrganizationID)
}

func TestLogin_BadCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.uc.Register(ctx, "keeper@zoo.org", "secret1")
	require.NoError(t, err)

	_, err = f.uc.Login(ctx, "keeper@zoo.org", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = f.uc.Login(ctx, "nobody@zoo.org", "secret1")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLogout_RevokesToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.uc.Register(ctx, "keeper@zoo.org", "secret1")
	require.NoError(t, err)
	grant, err := f.uc.Login(ctx, "keeper@zoo.org", "secret1")
	require.NoError(t, err)

	require.NoError(t, f.uc.Logout(ctx, grant.Session.ID))

	_, err = f.uc.Authenticate(ctx, grant.Token)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))
}

func TestRefresh_ExtendsSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.uc.Register(ctx, "keeper@zoo.org", "secret1")
	require.NoError(t, err)
	grant, err := f.uc.Login(ctx, "keeper@zoo.org", "secret1")
	require.NoError(t, err)

	later := time.Now().Add(30 * time.Minute)
	f.uc.now = func() time.Time { return later }

	refreshed, err := f.uc.Refresh(ctx, grant.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, grant.Session.ID, refreshed.Session.ID)
	assert.True(t, refreshed.Session.ExpiresAt.After(grant.Session.ExpiresAt))

	stored, err := f.sessions.Get(ctx, grant.Session.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, refreshed.Session.ExpiresAt, stored.ExpiresAt, time.Second)
}

func TestRefresh_FollowsOrganizationChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, err := f.uc.Register(ctx, "keeper@zoo.org", "secret1")
	require.NoError(t, err)
	grant, err := f.uc.Login(ctx, "keeper@zoo.org", "secret1")
	require.NoError(t, err)

	invites := memory.NewInviteStore(f.users)
	invite, err := invites.Create(ctx, &domain.Invite{
		OrganizationID: "org-other",
		InvitedUserID:  user.ID,
		InvitedEmail:   user.Email,
		Role:           "vet",
		Status:         domain.InviteStatusPending,
	})
	require.NoError(t, err)
	ok, err := invites.Respond(ctx, *invite, domain.InviteStatusAccepted)
	require.NoError(t, err)
	require.True(t, ok)

	refreshed, err := f.uc.Refresh(ctx, grant.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, "org-other", refreshed.Session.OrganizationID)
	assert.Equal(t, "vet", refreshed.User.Role)

	session, err := f.uc.Authenticate(ctx, refreshed.Token)
	require.NoError(t, err)
	assert.Equal(t, "org-other", session.OrganizationID)
}

func TestRefresh_InactiveUserLosesSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.users.Create(ctx, &domain.User{ID: "u-suspended", Email: "gone@zoo.org", OrganizationID: "o1", Status: "suspended"}))
	require.NoError(t, f.sessions.Save(ctx, &domain.Session{
		ID:             "s-1",
		UserID:         "u-suspended",
		OrganizationID: "o1",
		CreatedAt:      time.Now(),
		ExpiresAt:      time.Now().Add(time.Hour),
	}))

	_, err := f.uc.Refresh(ctx, "s-1")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Zero(t, f.sessions.Len())
}

func TestAuthenticate_GarbageToken(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Authenticate(context.Background(), "garbage")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))
}
