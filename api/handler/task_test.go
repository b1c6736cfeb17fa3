package handler

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/zoo/domain"
	"github.com/fastygo/zoo/pkg/httpcontext"
	"github.com/fastygo/zoo/repository/memory"
	taskUC "github.com/fastygo/zoo/usecase/task"
)

func newTaskHandler(t *testing.T) (*TaskHandler, *memory.TaskStore) {
	t.Helper()
	store := memory.NewTaskStore()
	uc := taskUC.New(store.Tasks(), store.Prerequisites(), nil, taskUC.Config{RejectCycles: true})
	return NewTaskHandler(uc, httpcontext.NewAdapter(time.Second), nil), store
}

func createTask(t *testing.T, h *TaskHandler, body string) domain.Task {
	t.Helper()
	ctx := serve(h.CreateTask, request{method: http.MethodPost, path: "/tasks", body: body})
	require.Equal(t, http.StatusCreated, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	var task domain.Task
	decode(t, ctx, &task)
	return task
}

func TestCreateTask_Defaults(t *testing.T) {
	h, _ := newTaskHandler(t)

	ctx := serve(h.CreateTask, request{method: http.MethodPost, path: "/tasks", body: `{"title":"Feed lions"}`})
	assert.Equal(t, http.StatusCreated, ctx.Response.StatusCode())

	var task domain.Task
	env := decode(t, ctx, &task)
	assert.Equal(t, "success", env.Status)
	assert.Equal(t, "Feed lions", task.Title)
	assert.Equal(t, "pending", task.Status)
	assert.Equal(t, "media", task.Priority)
	assert.Equal(t, testOrg, task.OrganizationID)
	assert.Equal(t, testUser, task.CreatedBy)
	assert.Contains(t, string(env.Data), `"prerequisites":[]`)
	assert.NotEmpty(t, ctx.Response.Header.Peek(httpcontext.HeaderRequestID))
}

func TestCreateTask_WithPrerequisites(t *testing.T) {
	h, _ := newTaskHandler(t)
	first := createTask(t, h, `{"title":"Clean"}`)

	second := createTask(t, h, fmt.Sprintf(`{"title":"Feed","priority":"ALTA","status":"pendente","prerequisites":["%d", 0, ""]}`, first.ID))
	assert.Equal(t, "alta", second.Priority)
	assert.Equal(t, "pending", second.Status)
	assert.Equal(t, []int64{first.ID}, second.DependsOn())
}

func TestCreateTask_FalsyChoicesUseDefaults(t *testing.T) {
	h, _ := newTaskHandler(t)

	task := createTask(t, h, `{"title":"Feed","priority":0,"status":false}`)
	assert.Equal(t, "media", task.Priority)
	assert.Equal(t, "pending", task.Status)

	id := fmt.Sprint(task.ID)
	ctx := serve(h.UpdateTask, request{method: http.MethodPatch, path: "/tasks/" + id, id: id, body: `{"status":"concluida"}`})
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))

	ctx = serve(h.UpdateTask, request{method: http.MethodPatch, path: "/tasks/" + id, id: id, body: `{"priority":false,"status":0}`})
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	var updated domain.Task
	decode(t, ctx, &updated)
	assert.Equal(t, "media", updated.Priority)
	assert.Equal(t, "pending", updated.Status)
}

func TestCreateTask_Invalid(t *testing.T) {
	h, store := newTaskHandler(t)

	for _, body := range []string{
		`{}`,
		``,
		`{"title":"   "}`,
		`{"title":"x","priority":"urgent"}`,
		`{"title":"x","priority":true}`,
		`{"title":"x","due_at":"someday"}`,
		`{"title":"x","prerequisites":["abc"]}`,
		`not json`,
	} {
		ctx := serve(h.CreateTask, request{method: http.MethodPost, path: "/tasks", body: body})
		assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode(), body)
		assert.Equal(t, string(domain.ErrCodeInvalid), decode(t, ctx, nil).Code, body)
	}
	assert.Empty(t, store.Calls())
}

func TestListTasks(t *testing.T) {
	h, _ := newTaskHandler(t)
	createTask(t, h, `{"title":"Late","due_at":"2025-03-12"}`)
	createTask(t, h, `{"title":"Early","due_at":"2025-03-10T08:00"}`)
	createTask(t, h, `{"title":"Done","status":"concluida"}`)

	ctx := serve(h.ListTasks, request{method: http.MethodGet, path: "/tasks"})
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	var tasks []domain.Task
	env := decode(t, ctx, &tasks)
	require.Len(t, tasks, 3)
	assert.Equal(t, 3, env.Meta.Count)
	assert.Equal(t, "Early", tasks[0].Title)
	assert.Equal(t, "Late", tasks[1].Title)

	ctx = serve(h.ListTasks, request{method: http.MethodGet, path: "/tasks?status=concluida"})
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	decode(t, ctx, &tasks)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Done", tasks[0].Title)

	ctx = serve(h.ListTasks, request{method: http.MethodGet, path: "/tasks?due_from=2025-03-11&due_to=2025-03-13"})
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	decode(t, ctx, &tasks)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Late", tasks[0].Title)
}

func TestListTasks_Invalid(t *testing.T) {
	h, _ := newTaskHandler(t)

	ctx := serve(h.ListTasks, request{method: http.MethodGet, path: "/tasks?status=invalid"})
	assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())

	ctx = serve(h.ListTasks, request{method: http.MethodGet, path: "/tasks?due_from=yesterday"})
	assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())
}

func TestListTasks_Empty(t *testing.T) {
	h, _ := newTaskHandler(t)
	ctx := serve(h.ListTasks, request{method: http.MethodGet, path: "/tasks"})
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	env := decode(t, ctx, nil)
	assert.Equal(t, "[]", string(env.Data))
	assert.Equal(t, 0, env.Meta.Count)
}

func TestUpdateTask(t *testing.T) {
	h, _ := newTaskHandler(t)
	task := createTask(t, h, `{"title":"Feed","assigned_to":"keeper"}`)
	id := fmt.Sprint(task.ID)

	ctx := serve(h.UpdateTask, request{method: http.MethodPatch, path: "/tasks/" + id, id: id, body: `{"status":"bloqueada","assigned_to":null}`})
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))

	var updated domain.Task
	decode(t, ctx, &updated)
	assert.Equal(t, "blocked", updated.Status)
	assert.Nil(t, updated.AssignedTo)
	assert.Equal(t, "Feed", updated.Title)
}

func TestUpdateTask_EmptyPatch(t *testing.T) {
	h, _ := newTaskHandler(t)
	task := createTask(t, h, `{"title":"Feed"}`)
	id := fmt.Sprint(task.ID)

	for _, body := range []string{`{}`, ``, `{"prerequisites":null}`} {
		ctx := serve(h.UpdateTask, request{method: http.MethodPatch, path: "/tasks/" + id, id: id, body: body})
		assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode(), body)
	}
}

func TestUpdateTask_CycleConflict(t *testing.T) {
	h, _ := newTaskHandler(t)
	a := createTask(t, h, `{"title":"A"}`)
	b := createTask(t, h, fmt.Sprintf(`{"title":"B","prerequisites":[%d]}`, a.ID))
	id := fmt.Sprint(a.ID)

	ctx := serve(h.UpdateTask, request{method: http.MethodPatch, path: "/tasks/" + id, id: id, body: fmt.Sprintf(`{"prerequisites":[%d]}`, b.ID)})
	assert.Equal(t, http.StatusConflict, ctx.Response.StatusCode())
	assert.Equal(t, string(domain.ErrCodeConflict), decode(t, ctx, nil).Code)

	ctx = serve(h.UpdateTask, request{method: http.MethodPatch, path: "/tasks/" + id, id: id, body: fmt.Sprintf(`{"prerequisites":[%d]}`, a.ID)})
	assert.Equal(t, http.StatusConflict, ctx.Response.StatusCode())
}

func TestUpdateTask_ReconcilesPrerequisites(t *testing.T) {
	h, store := newTaskHandler(t)
	a := createTask(t, h, `{"title":"A"}`)
	b := createTask(t, h, `{"title":"B"}`)
	c := createTask(t, h, fmt.Sprintf(`{"title":"C","prerequisites":[%d]}`, a.ID))
	id := fmt.Sprint(c.ID)
	store.ResetCalls()

	body := fmt.Sprintf(`{"prerequisites":[%d]}`, b.ID)
	ctx := serve(h.UpdateTask, request{method: http.MethodPatch, path: "/tasks/" + id, id: id, body: body})
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	var updated domain.Task
	decode(t, ctx, &updated)
	assert.Equal(t, []int64{b.ID}, updated.DependsOn())

	calls := store.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, memory.OpPrerequisiteInsert, calls[0].Op)
	assert.Equal(t, memory.OpPrerequisiteDelete, calls[1].Op)

	store.ResetCalls()
	ctx = serve(h.UpdateTask, request{method: http.MethodPatch, path: "/tasks/" + id, id: id, body: body})
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	assert.Empty(t, store.Calls())
}

func TestUpdateTask_MissingTaskIsInternal(t *testing.T) {
	h, _ := newTaskHandler(t)
	ctx := serve(h.UpdateTask, request{method: http.MethodPatch, path: "/tasks/404", id: "404", body: `{"title":"x"}`})
	assert.Equal(t, http.StatusInternalServerError, ctx.Response.StatusCode())
	env := decode(t, ctx, nil)
	assert.Equal(t, string(domain.ErrCodeInternal), env.Code)
	assert.Contains(t, env.Error, "task not found")
}

func TestReopenTask(t *testing.T) {
	h, _ := newTaskHandler(t)
	task := createTask(t, h, `{"title":"Feed","status":"completed"}`)
	id := fmt.Sprint(task.ID)

	ctx := serve(h.ReopenTask, request{method: http.MethodPost, path: "/tasks/" + id + "/reopen", id: id})
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())

	var reopened domain.Task
	decode(t, ctx, &reopened)
	assert.Equal(t, "pending", reopened.Status)
	require.NotNil(t, reopened.ReopenedAt)
	assert.WithinDuration(t, time.Now(), *reopened.ReopenedAt, time.Minute)
}

func TestDeleteTask(t *testing.T) {
	h, store := newTaskHandler(t)
	a := createTask(t, h, `{"title":"A"}`)
	b := createTask(t, h, fmt.Sprintf(`{"title":"B","prerequisites":[%d]}`, a.ID))
	id := fmt.Sprint(a.ID)

	ctx := serve(h.DeleteTask, request{method: http.MethodDelete, path: "/tasks/" + id, id: id})
	assert.Equal(t, http.StatusNoContent, ctx.Response.StatusCode())
	assert.Empty(t, ctx.Response.Body())

	ctx = serve(h.GetTask, request{method: http.MethodGet, path: "/tasks/" + id, id: id})
	assert.Equal(t, http.StatusInternalServerError, ctx.Response.StatusCode())

	// Incoming edges from other tasks survive the delete.
	bid := fmt.Sprint(b.ID)
	ctx = serve(h.GetTask, request{method: http.MethodGet, path: "/tasks/" + bid, id: bid})
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	var remaining domain.Task
	decode(t, ctx, &remaining)
	assert.Equal(t, []int64{a.ID}, remaining.DependsOn())
	assert.Len(t, store.CallsOf(memory.OpPrerequisitePurge), 1)
}

func TestTaskRoutes_RequireIdentityAndID(t *testing.T) {
	h, _ := newTaskHandler(t)

	ctx := serve(h.ListTasks, request{method: http.MethodGet, path: "/tasks", anon: true})
	assert.Equal(t, http.StatusUnauthorized, ctx.Response.StatusCode())

	ctx = serve(h.GetTask, request{method: http.MethodGet, path: "/tasks/abc", id: "abc"})
	assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())
}
