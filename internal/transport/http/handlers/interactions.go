package handlers

import (
	"context"
	"net/http"

	"github.com/baechuer/wholesale-catalog/internal/application/tracking"
	"github.com/baechuer/wholesale-catalog/internal/domain"
	"github.com/baechuer/wholesale-catalog/internal/transport/http/dto"
	"github.com/baechuer/wholesale-catalog/internal/transport/http/middleware"
	"github.com/baechuer/wholesale-catalog/internal/transport/http/response"
	"github.com/baechuer/wholesale-catalog/internal/transport/http/validate"
)

type InteractionRecorder interface {
	Record(ctx context.Context, cmd tracking.RecordCmd) (domain.Interaction, error)
}

type InteractionsHandler struct {
	svc InteractionRecorder
}

func NewInteractionsHandler(svc InteractionRecorder) *InteractionsHandler {
	return &InteractionsHandler{svc: svc}
}

func (h *InteractionsHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req dto.RecordInteractionReq
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	it, err := h.svc.Record(r.Context(), req.ToCmd())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	middleware.InteractionsTotal.WithLabelValues(string(it.Type)).Inc()
	response.Created(w, it)
}
