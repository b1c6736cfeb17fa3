package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/zoo/api/transport"
	"github.com/fastygo/zoo/domain"
	"github.com/fastygo/zoo/pkg/httpcontext"
	"github.com/fastygo/zoo/pkg/logger"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func (h baseHandler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data any) {
	h.respondJSON(ctx, status, transport.NewSuccess(data, nil))
}

func respondList[T any](h baseHandler, ctx *fasthttp.RequestCtx, items []T) {
	h.respondJSON(ctx, http.StatusOK, transport.NewList(items))
}

func (h baseHandler) respondNoContent(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(http.StatusNoContent)
	ctx.ResetBody()
}

// respondError maps err onto the envelope. Server-side failures are logged with the request id.
func (h baseHandler) respondError(stdCtx context.Context, ctx *fasthttp.RequestCtx, err error) {
	status, code := mapError(err)
	if status >= http.StatusInternalServerError {
		logger.ForContext(stdCtx, h.logger).Error("request failed",
			zap.String("method", string(ctx.Method())),
			zap.String("path", string(ctx.Path())),
			zap.Error(err),
		)
	}
	h.respondJSON(ctx, status, transport.NewError(code, err.Error(), nil))
}

func (h baseHandler) respondInvalid(ctx *fasthttp.RequestCtx, message string) {
	h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), message, nil))
}

// decodeJSON reads the body into dst, answering 400 itself on failure.
func (h baseHandler) decodeJSON(ctx *fasthttp.RequestCtx, dst interface{}) bool {
	body := ctx.PostBody()
	if len(body) == 0 {
		body = []byte("{}")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		if domain.IsDomainError(err, domain.ErrCodeInvalid) {
			h.respondInvalid(ctx, err.Error())
		} else {
			h.respondInvalid(ctx, domain.ErrInvalidPayload.Message)
		}
		return false
	}
	return true
}

// identity returns the caller set by the auth middleware, answering 401 when missing.
func (h baseHandler) identity(ctx *fasthttp.RequestCtx) (userID, organizationID string, ok bool) {
	userID = string(ctx.Request.Header.Peek(httpcontext.HeaderUserID))
	organizationID = string(ctx.Request.Header.Peek(httpcontext.HeaderOrganizationID))
	if userID == "" || organizationID == "" {
		h.respondJSON(ctx, http.StatusUnauthorized, transport.NewError(string(domain.ErrCodeUnauthorized), "missing identity", nil))
		return "", "", false
	}
	return userID, organizationID, true
}

func (h baseHandler) pathID(ctx *fasthttp.RequestCtx) (int64, bool) {
	raw, _ := ctx.UserValue("id").(string)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.respondInvalid(ctx, "invalid id")
		return 0, false
	}
	return id, true
}

func mapError(err error) (int, string) {
	switch {
	case domain.IsDomainError(err, domain.ErrCodeUnauthorized):
		return http.StatusUnauthorized, string(domain.ErrCodeUnauthorized)
	case domain.IsDomainError(err, domain.ErrCodeForbidden):
		return http.StatusForbidden, string(domain.ErrCodeForbidden)
	case domain.IsDomainError(err, domain.ErrCodeInvalid):
		return http.StatusBadRequest, string(domain.ErrCodeInvalid)
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return http.StatusNotFound, string(domain.ErrCodeNotFound)
	case domain.IsDomainError(err, domain.ErrCodeConflict):
		return http.StatusConflict, string(domain.ErrCodeConflict)
	default:
		return http.StatusInternalServerError, string(domain.ErrCodeInternal)
	}
}
