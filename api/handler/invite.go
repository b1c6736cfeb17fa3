package handler

import (
	"context"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/zoo/api/transport"
	"github.com/fastygo/zoo/domain"
	"github.com/fastygo/zoo/pkg/httpcontext"
	inviteUC "github.com/fastygo/zoo/usecase/invite"
)

type InviteHandler struct {
	baseHandler
	uc *inviteUC.UseCase
}

func NewInviteHandler(uc *inviteUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *InviteHandler {
	return &InviteHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Invite a registered user into the caller's organization
// @Tags invites
// @Router /invites [post]
func (h *InviteHandler) CreateInvite(ctx *fasthttp.RequestCtx) {
	userID, orgID, ok := h.identity(ctx)
	if !ok {
		return
	}
	var req transport.InviteRequest
	if !h.decodeJSON(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	invite, err := h.uc.Invite(stdCtx, orgID, userID, req.Email, req.Role)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, invite)
}

// @Summary List the organization's unanswered invites
// @Tags invites
// @Router /invites [get]
func (h *InviteHandler) ListSent(ctx *fasthttp.RequestCtx) {
	_, orgID, ok := h.identity(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	invites, err := h.uc.ListSent(stdCtx, orgID)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	respondList(h.baseHandler, ctx, invites)
}

// @Summary List invites waiting for the caller's answer
// @Tags invites
// @Router /invites/pending [get]
func (h *InviteHandler) ListPending(ctx *fasthttp.RequestCtx) {
	userID, _, ok := h.identity(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	invites, err := h.uc.ListPending(stdCtx, userID)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	respondList(h.baseHandler, ctx, invites)
}

// @Summary Accept an invite; refresh the session to act in the new organization
// @Tags invites
// @Router /invites/{id}/accept [post]
func (h *InviteHandler) AcceptInvite(ctx *fasthttp.RequestCtx) {
	h.respond(ctx, h.uc.Accept)
}

// @Summary Decline an invite
// @Tags invites
// @Router /invites/{id}/decline [post]
func (h *InviteHandler) DeclineInvite(ctx *fasthttp.RequestCtx) {
	h.respond(ctx, h.uc.Decline)
}

func (h *InviteHandler) respond(ctx *fasthttp.RequestCtx, answer func(context.Context, string, int64) (*domain.Invite, error)) {
	userID, _, ok := h.identity(ctx)
	if !ok {
		return
	}
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	invite, err := answer(stdCtx, userID, id)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, invite)
}
