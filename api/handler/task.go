package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/zoo/api/transport"
	"github.com/fastygo/zoo/pkg/httpcontext"
	"github.com/fastygo/zoo/repository"
	taskUC "github.com/fastygo/zoo/usecase/task"
)

type TaskHandler struct {
	baseHandler
	uc *taskUC.UseCase
}

func NewTaskHandler(uc *taskUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List tasks
// @Tags tasks
// @Router /tasks [get]
func (h *TaskHandler) ListTasks(ctx *fasthttp.RequestCtx) {
	_, orgID, ok := h.identity(ctx)
	if !ok {
		return
	}

	args := ctx.QueryArgs()
	filter := repository.TaskFilter{
		OrganizationID: orgID,
		Status:         string(args.Peek("status")),
		AssignedTo:     string(args.Peek("assigned_to")),
	}
	var err error
	if filter.DueFrom, err = queryTime(args, "due_from"); err != nil {
		h.respondInvalid(ctx, err.Error())
		return
	}
	if filter.DueTo, err = queryTime(args, "due_to"); err != nil {
		h.respondInvalid(ctx, err.Error())
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tasks, err := h.uc.ListTasks(stdCtx, filter)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	respondList(h.baseHandler, ctx, tasks)
}

// @Summary Get task
// @Tags tasks
// @Router /tasks/{id} [get]
func (h *TaskHandler) GetTask(ctx *fasthttp.RequestCtx) {
	_, orgID, ok := h.identity(ctx)
	if !ok {
		return
	}
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.GetTask(stdCtx, orgID, id)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Create task
// @Tags tasks
// @Router /tasks [post]
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	userID, orgID, ok := h.identity(ctx)
	if !ok {
		return
	}

	var req transport.TaskCreateRequest
	if !h.decodeJSON(ctx, &req) {
		return
	}
	task, prerequisites, err := req.ToTask(orgID, userID)
	if err != nil {
		h.respondInvalid(ctx, err.Error())
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.CreateTask(stdCtx, task, prerequisites)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Update task
// @Tags tasks
// @Router /tasks/{id} [patch]
func (h *TaskHandler) UpdateTask(ctx *fasthttp.RequestCtx) {
	_, orgID, ok := h.identity(ctx)
	if !ok {
		return
	}
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}

	patch, err := transport.ParseTaskPatch(ctx.PostBody())
	if err != nil {
		h.respondInvalid(ctx, err.Error())
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.UpdateTask(stdCtx, orgID, id, patch)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Delete task
// @Tags tasks
// @Router /tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(ctx *fasthttp.RequestCtx) {
	_, orgID, ok := h.identity(ctx)
	if !ok {
		return
	}
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteTask(stdCtx, orgID, id); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondNoContent(ctx)
}

// @Summary Reopen task
// @Tags tasks
// @Router /tasks/{id}/reopen [post]
func (h *TaskHandler) ReopenTask(ctx *fasthttp.RequestCtx) {
	_, orgID, ok := h.identity(ctx)
	if !ok {
		return
	}
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.ReopenTask(stdCtx, orgID, id)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

func queryTime(args *fasthttp.Args, key string) (*time.Time, error) {
	raw := string(args.Peek(key))
	if raw == "" {
		return nil, nil
	}
	t, err := transport.ParseTime(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
