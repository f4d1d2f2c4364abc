package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baechuer/wholesale-catalog/internal/application/badges"
	"github.com/baechuer/wholesale-catalog/internal/domain"
	"github.com/baechuer/wholesale-catalog/internal/transport/http/dto"
	"github.com/baechuer/wholesale-catalog/internal/transport/http/middleware"
	"github.com/baechuer/wholesale-catalog/internal/transport/http/response"
	"github.com/baechuer/wholesale-catalog/internal/transport/http/validate"
)

type BadgeManager interface {
	Assign(ctx context.Context, cmd badges.AssignCmd) (domain.FireBadge, error)
	ListActive(ctx context.Context) ([]domain.FireBadge, error)
	Remove(ctx context.Context, id, actor string) error
}

type BadgesHandler struct {
	svc BadgeManager
}

func NewBadgesHandler(svc BadgeManager) *BadgesHandler {
	return &BadgesHandler{svc: svc}
}

func (h *BadgesHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListActive(r.Context())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	if list == nil {
		list = []domain.FireBadge{}
	}
	response.OK(w, list)
}

func (h *BadgesHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req dto.AssignBadgeReq
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	b, err := h.svc.Assign(r.Context(), req.ToCmd(middleware.Actor(r.Context())))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.Created(w, b)
}

func (h *BadgesHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Remove(r.Context(), chi.URLParam(r, "id"), middleware.Actor(r.Context())); err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.NoContent(w)
}
