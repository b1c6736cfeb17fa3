package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/zoo/api/transport"
	"github.com/fastygo/zoo/internal/infrastructure/monitor"
	"github.com/fastygo/zoo/pkg/httpcontext"
)

// StatusSource is satisfied by *monitor.Monitor.
type StatusSource interface {
	GetStatus() monitor.Status
}

type bufferReport struct {
	Online bool `json:"online"`
	Size   int  `json:"size"`
}

type dependencyReport struct {
	PostgreSQL bool         `json:"postgresql"`
	Redis      bool         `json:"redis"`
	Buffer     bufferReport `json:"buffer"`
}

type healthReport struct {
	Timestamp time.Time        `json:"timestamp"`
	LastCheck time.Time        `json:"last_check"`
	Services  dependencyReport `json:"services"`
}

type HealthHandler struct {
	baseHandler
	monitor StatusSource
	now     func() time.Time
}

func NewHealthHandler(mon StatusSource, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
		now:         time.Now,
	}
}

// Check answers 200 when every dependency is reachable and 503 DEGRADED otherwise.
// The report body is the same in both cases.
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.GetStatus()
	report := healthReport{
		Timestamp: h.now().UTC(),
		LastCheck: status.LastCheck,
		Services: dependencyReport{
			PostgreSQL: status.PostgreSQL,
			Redis:      status.Redis,
			Buffer:     bufferReport{Online: status.Buffer, Size: status.BufferSize},
		},
	}

	if !status.Healthy() {
		h.respondJSON(ctx, http.StatusServiceUnavailable, transport.NewError("DEGRADED", "dependencies unhealthy", report))
		return
	}
	h.respondSuccess(ctx, http.StatusOK, report)
}
