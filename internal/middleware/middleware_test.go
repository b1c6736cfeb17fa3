package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/zoo/domain"
	"github.com/fastygo/zoo/pkg/httpcontext"
)

type fakeAuth map[string]*domain.Session

func (f fakeAuth) Authenticate(_ context.Context, token string) (*domain.Session, error) {
	if token == "broken" {
		return nil, errors.New("redis down")
	}
	if s, ok := f[token]; ok {
		return s, nil
	}
	return nil, domain.ErrUnauthorized
}

func TestJWTAuth(t *testing.T) {
	auth := fakeAuth{"good": {ID: "s1", UserID: "u1", OrganizationID: "o1"}}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantOrg    string
	}{
		{"bearer token", "Bearer good", fasthttp.StatusOK, "o1"},
		{"lowercase scheme", "bearer good", fasthttp.StatusOK, "o1"},
		{"bare token", "good", fasthttp.StatusOK, "o1"},
		{"missing", "", fasthttp.StatusUnauthorized, ""},
		{"unknown", "Bearer nope", fasthttp.StatusUnauthorized, ""},
		{"store failure", "Bearer broken", fasthttp.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seenOrg string
			handler := JWTAuth(auth, nil)(func(ctx *fasthttp.RequestCtx) {
				seenOrg = string(ctx.Request.Header.Peek(httpcontext.HeaderOrganizationID))
				ctx.SetStatusCode(fasthttp.StatusOK)
			})

			var ctx fasthttp.RequestCtx
			ctx.Request.Header.Set(httpcontext.HeaderOrganizationID, "spoofed")
			if tt.header != "" {
				ctx.Request.Header.Set("Authorization", tt.header)
			}
			handler(&ctx)

			assert.Equal(t, tt.wantStatus, ctx.Response.StatusCode())
			assert.Equal(t, tt.wantOrg, seenOrg)
			if tt.wantStatus == fasthttp.StatusUnauthorized {
				assert.Contains(t, string(ctx.Response.Body()), `"code":"UNAUTHORIZED"`)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	next := func(ctx *fasthttp.RequestCtx) { ctx.SetStatusCode(fasthttp.StatusOK) }
	handler := CORS("http://localhost:3000")(next)

	var preflight fasthttp.RequestCtx
	preflight.Request.Header.SetMethod(fasthttp.MethodOptions)
	preflight.Request.Header.Set("Origin", "http://localhost:3000")
	preflight.Request.Header.Set("Access-Control-Request-Method", "PATCH")
	handler(&preflight)
	assert.Equal(t, fasthttp.StatusNoContent, preflight.Response.StatusCode())
	assert.Equal(t, "http://localhost:3000", string(preflight.Response.Header.Peek("Access-Control-Allow-Origin")))
	assert.Contains(t, string(preflight.Response.Header.Peek("Access-Control-Allow-Methods")), "PATCH")

	var foreign fasthttp.RequestCtx
	foreign.Request.Header.Set("Origin", "http://evil.example")
	handler(&foreign)
	assert.Equal(t, fasthttp.StatusOK, foreign.Response.StatusCode())
	assert.Empty(t, foreign.Response.Header.Peek("Access-Control-Allow-Origin"))
}

func TestCORS_ActualAndRejectedPreflight(t *testing.T) {
	var reached int
	next := func(ctx *fasthttp.RequestCtx) {
		reached++
		ctx.SetStatusCode(fasthttp.StatusOK)
	}
	handler := CORS("http://localhost:3000")(next)

	var actual fasthttp.RequestCtx
	actual.Request.Header.SetMethod(fasthttp.MethodGet)
	actual.Request.SetRequestURI("/tasks")
	actual.Request.Header.Set("Origin", "http://localhost:3000")
	handler(&actual)
	assert.Equal(t, fasthttp.StatusOK, actual.Response.StatusCode())
	assert.Equal(t, "http://localhost:3000", string(actual.Response.Header.Peek("Access-Control-Allow-Origin")))
	assert.Equal(t, "true", string(actual.Response.Header.Peek("Access-Control-Allow-Credentials")))
	assert.Equal(t, "X-Request-Id", string(actual.Response.Header.Peek("Access-Control-Expose-Headers")))
	assert.Contains(t, string(actual.Response.Header.Peek("Vary")), "Origin")

	var badHeader fasthttp.RequestCtx
	badHeader.Request.Header.SetMethod(fasthttp.MethodOptions)
	badHeader.Request.Header.Set("Origin", "http://localhost:3000")
	badHeader.Request.Header.Set("Access-Control-Request-Method", "POST")
	badHeader.Request.Header.Set("Access-Control-Request-Headers", "x-forbidden")
	handler(&badHeader)
	assert.Equal(t, fasthttp.StatusNoContent, badHeader.Response.StatusCode())
	assert.Empty(t, badHeader.Response.Header.Peek("Access-Control-Allow-Origin"))

	var foreignPreflight fasthttp.RequestCtx
	foreignPreflight.Request.Header.SetMethod(fasthttp.MethodOptions)
	foreignPreflight.Request.Header.Set("Origin", "http://evil.example")
	foreignPreflight.Request.Header.Set("Access-Control-Request-Method", "DELETE")
	handler(&foreignPreflight)
	assert.Equal(t, fasthttp.StatusNoContent, foreignPreflight.Response.StatusCode())
	assert.Empty(t, foreignPreflight.Response.Header.Peek("Access-Control-Allow-Origin"))

	assert.Equal(t, 1, reached, "preflight requests never reach the next handler")
}
