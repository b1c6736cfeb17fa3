package httpcontext

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/zoo/pkg/logger"
)

// Identity headers are set by the auth middleware after token verification;
// client-supplied values are stripped before that.
const (
	HeaderRequestID      = "X-Request-ID"
	HeaderUserID         = "X-User-ID"
	HeaderOrganizationID = "X-Organization-ID"
	HeaderSessionID      = "X-Session-ID"
)

const maxRequestIDLength = 128

// Adapter derives a deadline-bound stdlib context from a fasthttp request.
type Adapter struct {
	timeout time.Duration
}

func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{timeout: timeout}
}

// Attach returns a context carrying the request metadata used for logging.
// The request id is echoed back in the response headers.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	info := appLogger.RequestInfo{
		RequestID:      RequestID(ctx),
		UserID:         string(ctx.Request.Header.Peek(HeaderUserID)),
		OrganizationID: string(ctx.Request.Header.Peek(HeaderOrganizationID)),
	}
	if addr := ctx.RemoteAddr(); addr != nil {
		info.RemoteAddr = addr.String()
	}
	ctx.Response.Header.Set(HeaderRequestID, info.RequestID)

	return appLogger.WithRequestInfo(stdCtx, info), cancel
}

// RequestID returns the caller's X-Request-ID when it is a short printable
// token, otherwise a fresh UUID.
func RequestID(ctx *fasthttp.RequestCtx) string {
	if ctx != nil {
		if header := ctx.Request.Header.Peek(HeaderRequestID); validRequestID(header) {
			return string(header)
		}
	}
	return uuid.NewString()
}

func validRequestID(id []byte) bool {
	if len(id) == 0 || len(id) > maxRequestIDLength {
		return false
	}
	for _, c := range id {
		if c <= ' ' || c > '~' {
			return false
		}
	}
	return true
}
