package handler

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/zoo/pkg/httpcontext"
)

const (
	testOrg  = "org-1"
	testUser = "user-1"
)

type request struct {
	method string
	path   string
	id     string
	body   string
	anon   bool
}

type envelope struct {
	Status string          `json:"status"`
	Code   string          `json:"code"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
	Meta   struct {
		Count int `json:"count"`
	} `json:"meta"`
}

func serve(h fasthttp.RequestHandler, r request) *fasthttp.RequestCtx {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(r.method)
	ctx.Request.SetRequestURI(r.path)
	if r.body != "" {
		ctx.Request.SetBodyString(r.body)
	}
	if r.id != "" {
		ctx.SetUserValue("id", r.id)
	}
	if !r.anon {
		ctx.Request.Header.Set(httpcontext.HeaderUserID, testUser)
		ctx.Request.Header.Set(httpcontext.HeaderOrganizationID, testOrg)
	}
	h(&ctx)
	return &ctx
}

func decode(t *testing.T, ctx *fasthttp.RequestCtx, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &env), string(ctx.Response.Body()))
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}
