package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/baechuer/wholesale-catalog/internal/application/ranking"
	"github.com/baechuer/wholesale-catalog/internal/domain"
	"github.com/baechuer/wholesale-catalog/internal/transport/http/dto"
	"github.com/baechuer/wholesale-catalog/internal/transport/http/middleware"
	"github.com/baechuer/wholesale-catalog/internal/transport/http/response"
	"github.com/baechuer/wholesale-catalog/internal/transport/http/validate"
)

type Ranker interface {
	GetRanked(ctx context.Context, limit int, forceRefresh bool) (domain.RankedView, error)
	SetAdminScore(ctx context.Context, cmd ranking.SetAdminScoreCmd) error
	AddProduct(ctx context.Context, cmd ranking.AddProductCmd) (domain.ProductTrendingRecord, error)
	Rebuild(ctx context.Context) (int64, error)
}

type RankingHandler struct {
	svc      Ranker
	maxLimit int
}

// NewRankingHandler caps ?limit at maxLimit; 0 means uncapped.
func NewRankingHandler(svc Ranker, maxLimit int) *RankingHandler {
	return &RankingHandler{svc: svc, maxLimit: maxLimit}
}

// Get serves GET /ranking?limit=&forceRefresh=.
func (h *RankingHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			response.WriteError(w, r, domain.ErrInvalidField("limit", "must be a non-negative integer"))
			return
		}
		limit = n
	}
	if h.maxLimit > 0 && (limit == 0 || limit > h.maxLimit) {
		limit = h.maxLimit
	}

	force := false
	if v := q.Get("forceRefresh"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			response.WriteError(w, r, domain.ErrInvalidField("forceRefresh", "must be true or false"))
			return
		}
		force = b
	}

	view, err := h.svc.GetRanked(r.Context(), limit, force)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	middleware.RankingReadsTotal.WithLabelValues(strconv.FormatBool(force)).Inc()
	response.WriteJSON(w, http.StatusOK, dto.ToRankingResp(view))
}

func (h *RankingHandler) SetAdminScore(w http.ResponseWriter, r *http.Request) {
	var req dto.AdminScoreReq
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := h.svc.SetAdminScore(r.Context(), req.ToCmd(middleware.Actor(r.Context()))); err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, response.Envelope{Success: true})
}

func (h *RankingHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	var req dto.AddProductReq
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	rec, err := h.svc.AddProduct(r.Context(), req.ToCmd(middleware.Actor(r.Context())))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.Created(w, rec)
}

func (h *RankingHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Rebuild(r.Context())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.RebuildResp{Products: n})
}
