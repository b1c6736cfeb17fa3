package httpcontext

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/zoo/pkg/logger"
)

func TestAttach(t *testing.T) {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.Set(HeaderRequestID, "trace-42")
	ctx.Request.Header.Set(HeaderUserID, "u1")
	ctx.Request.Header.Set(HeaderOrganizationID, "o1")

	stdCtx, cancel := NewAdapter(time.Second).Attach(&ctx)
	defer cancel()

	_, hasDeadline := stdCtx.Deadline()
	assert.True(t, hasDeadline)

	info, ok := appLogger.RequestInfoFrom(stdCtx)
	require.True(t, ok)
	assert.Equal(t, "trace-42", info.RequestID)
	assert.Equal(t, "u1", info.UserID)
	assert.Equal(t, "o1", info.OrganizationID)
	assert.Equal(t, "trace-42", string(ctx.Response.Header.Peek(HeaderRequestID)))
}

func TestRequestID_ReplacesUnsafeValues(t *testing.T) {
	for name, value := range map[string]string{
		"blank":     "   ",
		"spaces":    "a b",
		"too long":  strings.Repeat("x", maxRequestIDLength+1),
		"non-ascii": "id-é",
	} {
		t.Run(name, func(t *testing.T) {
			var ctx fasthttp.RequestCtx
			ctx.Request.Header.Set(HeaderRequestID, value)
			_, err := uuid.Parse(RequestID(&ctx))
			assert.NoError(t, err)
		})
	}
}
