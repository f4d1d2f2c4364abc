package handlers

import (
	"context"
	"net/http"

	"github.com/baechuer/wholesale-catalog/internal/application/settings"
	"github.com/baechuer/wholesale-catalog/internal/domain"
	"github.com/baechuer/wholesale-catalog/internal/transport/http/dto"
	"github.com/baechuer/wholesale-catalog/internal/transport/http/middleware"
	"github.com/baechuer/wholesale-catalog/internal/transport/http/response"
	"github.com/baechuer/wholesale-catalog/internal/transport/http/validate"
)

type SettingsManager interface {
	Get(ctx context.Context) (domain.OpsSettings, error)
	Update(ctx context.Context, p settings.Patch, actor string) (domain.OpsSettings, error)
}

type BackupManager interface {
	Create(ctx context.Context, actor string) (domain.BackupInfo, error)
	List(ctx context.Context) ([]domain.BackupInfo, error)
	Restore(ctx context.Context, key, actor string) (domain.BackupDocument, error)
}

type StatsReader interface {
	Stats(ctx context.Context) domain.DashboardStats
}

// AdminHandler serves the back-office endpoints that are not part of the
// ranking core: ops settings, backups and the dashboard.
type AdminHandler struct {
	settings SettingsManager
	backups  BackupManager
	stats    StatsReader
}

func NewAdminHandler(s SettingsManager, b BackupManager, st StatsReader) *AdminHandler {
	return &AdminHandler{settings: s, backups: b, stats: st}
}

func (h *AdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	cur, err := h.settings.Get(r.Context())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, cur)
}

func (h *AdminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateSettingsReq
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	next, err := h.settings.Update(r.Context(), req.ToPatch(), middleware.Actor(r.Context()))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, next)
}

func (h *AdminHandler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	info, err := h.backups.Create(r.Context(), middleware.Actor(r.Context()))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.Created(w, info)
}

func (h *AdminHandler) ListBackups(w http.ResponseWriter, r *http.Request) {
	list, err := h.backups.List(r.Context())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	if list == nil {
		list = []domain.BackupInfo{}
	}
	response.OK(w, list)
}

func (h *AdminHandler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	var req dto.RestoreBackupReq
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	doc, err := h.backups.Restore(r.Context(), req.Key, middleware.Actor(r.Context()))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.ToRestoreResp(req.Key, doc))
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.stats.Stats(r.Context()))
}
