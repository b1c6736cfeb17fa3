package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/zoo/api/handler"
)

type Handlers struct {
	Auth    *apiHandler.AuthHandler
	Profile *apiHandler.ProfileHandler
	Task    *apiHandler.TaskHandler
	Zoo     *apiHandler.ZooHandler
	Invite  *apiHandler.InviteHandler
	Health  *apiHandler.HealthHandler
}

type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

// New wires every route. cors wraps the whole router so preflight requests
// never reach the auth check.
func New(handlers Handlers, auth, cors Middleware) fasthttp.RequestHandler {
	r := router.New()
	r.HandleOPTIONS = false

	r.GET("/health", handlers.Health.Check)

	// Auth routes
	r.POST("/auth/register", handlers.Auth.Register)
	r.POST("/auth/login", handlers.Auth.Login)
	r.POST("/auth/refresh", auth(handlers.Auth.Refresh))
	r.POST("/auth/logout", auth(handlers.Auth.Logout))

	// Protected routes
	r.GET("/profile", auth(handlers.Profile.GetProfile))

	r.GET("/tasks", auth(handlers.Task.ListTasks))
	r.POST("/tasks", auth(handlers.Task.CreateTask))
	r.GET("/tasks/{id}", auth(handlers.Task.GetTask))
	r.PATCH("/tasks/{id}", auth(handlers.Task.UpdateTask))
	r.DELETE("/tasks/{id}", auth(handlers.Task.DeleteTask))
	r.POST("/tasks/{id}/reopen", auth(handlers.Task.ReopenTask))

	r.GET("/enclosures", auth(handlers.Zoo.ListEnclosures))
	r.POST("/enclosures", auth(handlers.Zoo.CreateEnclosure))
	r.GET("/gestations", auth(handlers.Zoo.ListGestations))
	r.POST("/gestations", auth(handlers.Zoo.StartGestation))

	r.GET("/invites", auth(handlers.Invite.ListSent))
	r.POST("/invites", auth(handlers.Invite.CreateInvite))
	r.GET("/invites/pending", auth(handlers.Invite.ListPending))
	r.POST("/invites/{id}/accept", auth(handlers.Invite.AcceptInvite))
	r.POST("/invites/{id}/decline", auth(handlers.Invite.DeclineInvite))

	if cors == nil {
		return r.Handler
	}
	return cors(r.Handler)
}
