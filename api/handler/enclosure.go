package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/zoo/api/transport"
	"github.com/fastygo/zoo/pkg/httpcontext"
	enclosureUC "github.com/fastygo/zoo/usecase/enclosure"
	gestationUC "github.com/fastygo/zoo/usecase/gestation"
)

type ZooHandler struct {
	baseHandler
	enclosures *enclosureUC.UseCase
	gestations *gestationUC.UseCase
}

func NewZooHandler(enclosures *enclosureUC.UseCase, gestations *gestationUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *ZooHandler {
	return &ZooHandler{
		baseHandler: newBaseHandler(adapter, logger),
		enclosures:  enclosures,
		gestations:  gestations,
	}
}

// @Summary List enclosures
// @Tags zoo
// @Router /enclosures [get]
func (h *ZooHandler) ListEnclosures(ctx *fasthttp.RequestCtx) {
	_, orgID, ok := h.identity(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	enclosures, err := h.enclosures.ListEnclosures(stdCtx, orgID)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	respondList(h.baseHandler, ctx, enclosures)
}

// @Summary Create enclosure
// @Tags zoo
// @Router /enclosures [post]
func (h *ZooHandler) CreateEnclosure(ctx *fasthttp.RequestCtx) {
	_, orgID, ok := h.identity(ctx)
	if !ok {
		return
	}
	var req transport.EnclosureRequest
	if !h.decodeJSON(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	enclosure, err := h.enclosures.CreateEnclosure(stdCtx, orgID, req.Name, req.Species)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, enclosure)
}

// @Summary List gestations
// @Tags zoo
// @Router /gestations [get]
func (h *ZooHandler) ListGestations(ctx *fasthttp.RequestCtx) {
	_, orgID, ok := h.identity(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	gestations, err := h.gestations.ListGestations(stdCtx, orgID)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	respondList(h.baseHandler, ctx, gestations)
}

// @Summary Start gestation
// @Tags zoo
// @Router /gestations [post]
func (h *ZooHandler) StartGestation(ctx *fasthttp.RequestCtx) {
	_, orgID, ok := h.identity(ctx)
	if !ok {
		return
	}
	var req transport.GestationRequest
	if !h.decodeJSON(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	gestation, err := h.gestations.StartGestation(stdCtx, orgID, string(req.SpeciesID), req.EnclosureIDValue())
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, gestation)
}
