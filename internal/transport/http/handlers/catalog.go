package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baechuer/wholesale-catalog/internal/application/catalog"
	"github.com/baechuer/wholesale-catalog/internal/domain"
	"github.com/baechuer/wholesale-catalog/internal/transport/http/dto"
	"github.com/baechuer/wholesale-catalog/internal/transport/http/response"
)

type CatalogReader interface {
	List(ctx context.Context, f catalog.Filter) ([]domain.CatalogItem, error)
	Get(ctx context.Context, sku string) (domain.CatalogItem, error)
	Brands(ctx context.Context) ([]string, error)
	Refresh(ctx context.Context) (int, error)
}

type CatalogHandler struct {
	svc CatalogReader
}

func NewCatalogHandler(svc CatalogReader) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.svc.List(r.Context(), catalog.Filter{
		Brand:    q.Get("brand"),
		Category: q.Get("category"),
		Query:    q.Get("q"),
	})
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	if items == nil {
		items = []domain.CatalogItem{}
	}
	response.OK(w, items)
}

func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.Get(r.Context(), chi.URLParam(r, "sku"))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, item)
}

func (h *CatalogHandler) Brands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.svc.Brands(r.Context())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	if brands == nil {
		brands = []string{}
	}
	response.OK(w, brands)
}

func (h *CatalogHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Refresh(r.Context())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.CatalogRefreshResp{Items: n})
}
