package middleware

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/zoo/api/transport"
	"github.com/fastygo/zoo/domain"
	"github.com/fastygo/zoo/pkg/httpcontext"
)

// Authenticator resolves a bearer token to a live session.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Session, error)
}

// JWTAuth rejects requests without a valid token and live session. Identity
// headers sent by the client are always overwritten.
func JWTAuth(auth Authenticator, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			ctx.Request.Header.Del(httpcontext.HeaderUserID)
			ctx.Request.Header.Del(httpcontext.HeaderOrganizationID)
			ctx.Request.Header.Del(httpcontext.HeaderSessionID)

			tokenString := extractToken(ctx)
			if tokenString == "" {
				unauthorized(ctx, "missing bearer token")
				return
			}

			stdCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			session, err := auth.Authenticate(stdCtx, tokenString)
			cancel()
			if err != nil {
				if !domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
					logger.Error("session lookup failed", zap.Error(err))
				}
				unauthorized(ctx, "invalid or expired session")
				return
			}

			ctx.Request.Header.Set(httpcontext.HeaderUserID, session.UserID)
			ctx.Request.Header.Set(httpcontext.HeaderOrganizationID, session.OrganizationID)
			ctx.Request.Header.Set(httpcontext.HeaderSessionID, session.ID)

			next(ctx)
		}
	}
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek("Authorization")))
	if header == "" {
		return ""
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

func unauthorized(ctx *fasthttp.RequestCtx, message string) {
	body, _ := json.Marshal(transport.NewError(string(domain.ErrCodeUnauthorized), message, nil))
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusUnauthorized)
	ctx.SetBody(body)
}
