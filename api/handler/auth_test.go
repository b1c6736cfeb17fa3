package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/zoo/domain"
	"github.com/fastygo/zoo/pkg/httpcontext"
	"github.com/fastygo/zoo/pkg/token"
	"github.com/fastygo/zoo/repository/memory"
	authUC "github.com/fastygo/zoo/usecase/auth"
	profileUC "github.com/fastygo/zoo/usecase/profile"
)

func newAuthHandlers(t *testing.T) (*AuthHandler, *ProfileHandler, *memory.SessionStore) {
	t.Helper()
	users := memory.NewUserStore()
	sessions := memory.NewSessionStore()
	uc := authUC.New(users, sessions, memory.NewZooStore().Enclosures(), token.NewManager("secret", "zoo", time.Hour), nil)
	adapter := httpcontext.NewAdapter(time.Second)
	return NewAuthHandler(uc, adapter, nil), NewProfileHandler(profileUC.New(users, nil), adapter, nil), sessions
}

func TestRegisterLoginProfile(t *testing.T) {
	auth, profile, sessions := newAuthHandlers(t)

	ctx := serve(auth.Register, request{method: http.MethodPost, path: "/auth/register", body: `{"email":"keeper@zoo.org","password":"secret1"}`, anon: true})
	require.Equal(t, http.StatusCreated, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	assert.NotContains(t, string(ctx.Response.Body()), "password")
	var user domain.User
	decode(t, ctx, &user)

	ctx = serve(auth.Register, request{method: http.MethodPost, path: "/auth/register", body: `{"email":"keeper@zoo.org","password":"secret1"}`, anon: true})
	assert.Equal(t, http.StatusConflict, ctx.Response.StatusCode())

	ctx = serve(auth.Login, request{method: http.MethodPost, path: "/auth/login", body: `{"email":"keeper@zoo.org","password":"wrong!!"}`, anon: true})
	assert.Equal(t, http.StatusUnauthorized, ctx.Response.StatusCode())

	ctx = serve(auth.Login, request{method: http.MethodPost, path: "/auth/login", body: `{"email":"keeper@zoo.org","password":"secret1"}`, anon: true})
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	var grant authUC.Grant
	decode(t, ctx, &grant)
	assert.NotEmpty(t, grant.Token)
	assert.Equal(t, 1, sessions.Len())

	var profileCtx fasthttp.RequestCtx
	profileCtx.Request.Header.SetMethod(http.MethodGet)
	profileCtx.Request.SetRequestURI("/profile")
	profileCtx.Request.Header.Set(httpcontext.HeaderUserID, user.ID)
	profileCtx.Request.Header.Set(httpcontext.HeaderOrganizationID, user.OrganizationID)
	profile.GetProfile(&profileCtx)
	require.Equal(t, http.StatusOK, profileCtx.Response.StatusCode())
	var me domain.User
	decode(t, &profileCtx, &me)
	assert.Equal(t, "keeper@zoo.org", me.Email)

	var logoutCtx fasthttp.RequestCtx
	logoutCtx.Request.Header.SetMethod(http.MethodPost)
	logoutCtx.Request.Header.Set(httpcontext.HeaderSessionID, grant.Session.ID)
	auth.Logout(&logoutCtx)
	assert.Equal(t, http.StatusNoContent, logoutCtx.Response.StatusCode())
	assert.Equal(t, 0, sessions.Len())
}

func TestRegister_Invalid(t *testing.T) {
	auth, _, _ := newAuthHandlers(t)
	for _, body := range []string{`{"email":"nope","password":"secret1"}`, `{"email":"a@b.co","password":"123"}`, `{`} {
		ctx := serve(auth.Register, request{method: http.MethodPost, path: "/auth/register", body: body, anon: true})
		assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode(), body)
	}
}

func TestRefresh_UnknownSession(t *testing.T) {
	auth, _, _ := newAuthHandlers(t)
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(http.MethodPost)
	ctx.Request.Header.Set(httpcontext.HeaderSessionID, "gone")
	auth.Refresh(&ctx)
	assert.Equal(t, http.StatusUnauthorized, ctx.Response.StatusCode())
}
