package middleware

import (
	"net/http"

	"github.com/rs/cors"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// CORS allows a single web origin and answers preflight requests itself.
// Policy decisions come from rs/cors; the request is bridged through
// fasthttpadaptor and only the headers it decides on are copied back.
func CORS(allowedOrigin string) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	policy := cors.New(cors.Options{
		AllowedOrigins:   []string{allowedOrigin},
		AllowCredentials: true,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
	})

	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			preflight := ctx.IsOptions() && len(ctx.Request.Header.Peek("Access-Control-Request-Method")) > 0

			var req http.Request
			if err := fasthttpadaptor.ConvertRequest(ctx, &req, true); err != nil {
				if preflight {
					ctx.SetStatusCode(fasthttp.StatusBadRequest)
					return
				}
				next(ctx)
				return
			}

			rec := headerRecorder{header: make(http.Header)}
			policy.HandlerFunc(&rec, &req)
			for key, values := range rec.header {
				for _, v := range values {
					ctx.Response.Header.Add(key, v)
				}
			}

			if preflight {
				ctx.SetStatusCode(rec.statusOr(fasthttp.StatusNoContent))
				return
			}
			next(ctx)
		}
	}
}

// headerRecorder is the http.ResponseWriter handed to rs/cors. It keeps the
// headers and status and drops any body.
type headerRecorder struct {
	header http.Header
	status int
}

func (r *headerRecorder) Header() http.Header { return r.header }

func (r *headerRecorder) Write(p []byte) (int, error) { return len(p), nil }

func (r *headerRecorder) WriteHeader(status int) { r.status = status }

func (r *headerRecorder) statusOr(fallback int) int {
	if r.status == 0 {
		return fallback
	}
	return r.status
}
