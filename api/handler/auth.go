package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/zoo/api/transport"
	"github.com/fastygo/zoo/domain"
	"github.com/fastygo/zoo/pkg/httpcontext"
	authUC "github.com/fastygo/zoo/usecase/auth"
)

type AuthHandler struct {
	baseHandler
	uc *authUC.UseCase
}

func NewAuthHandler(uc *authUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Register user
// @Tags auth
// @Router /auth/register [post]
func (h *AuthHandler) Register(ctx *fasthttp.RequestCtx) {
	var req transport.AuthRequest
	if !h.decodeJSON(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.Register(stdCtx, req.Email, req.Password)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, user)
}

// @Summary Login
// @Tags auth
// @Router /auth/login [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	var req transport.AuthRequest
	if !h.decodeJSON(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	grant, err := h.uc.Login(stdCtx, req.Email, req.Password)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, grant)
}

// @Summary Refresh session
// @Tags auth
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(ctx *fasthttp.RequestCtx) {
	sessionID := string(ctx.Request.Header.Peek(httpcontext.HeaderSessionID))

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	grant, err := h.uc.Refresh(stdCtx, sessionID)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			err = domain.ErrUnauthorized
		}
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, grant)
}

// @Summary Logout
// @Tags auth
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(ctx *fasthttp.RequestCtx) {
	sessionID := string(ctx.Request.Header.Peek(httpcontext.HeaderSessionID))

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Logout(stdCtx, sessionID); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondNoContent(ctx)
}
