package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/wholesale-catalog/internal/application/auth"
	"github.com/baechuer/wholesale-catalog/internal/application/badges"
	"github.com/baechuer/wholesale-catalog/internal/application/catalog"
	"github.com/baechuer/wholesale-catalog/internal/application/ranking"
	"github.com/baechuer/wholesale-catalog/internal/application/settings"
	"github.com/baechuer/wholesale-catalog/internal/application/tracking"
	"github.com/baechuer/wholesale-catalog/internal/domain"
	"github.com/baechuer/wholesale-catalog/internal/transport/http/handlers"
	mw "github.com/baechuer/wholesale-catalog/internal/transport/http/middleware"
	"github.com/baechuer/wholesale-catalog/internal/transport/http/response"
)

type stub struct{}

func (stub) Record(_ context.Context, cmd tracking.RecordCmd) (domain.Interaction, error) {
	return domain.Interaction{ID: "i", Type: domain.InteractionType(cmd.Type)}, nil
}
func (stub) GetRanked(context.Context, int, bool) (domain.RankedView, error) {
	return domain.RankedView{}, nil
}
func (stub) SetAdminScore(context.Context, ranking.SetAdminScoreCmd) error { return nil }
func (stub) AddProduct(context.Context, ranking.AddProductCmd) (domain.ProductTrendingRecord, error) {
	return domain.ProductTrendingRecord{}, nil
}
func (stub) Rebuild(context.Context) (int64, error) { return 0, nil }
func (stub) List(context.Context, catalog.Filter) ([]domain.CatalogItem, error) {
	return nil, nil
}
func (stub) Get(context.Context, string) (domain.CatalogItem, error) {
	return domain.CatalogItem{SKU: "A1"}, nil
}
func (stub) Brands(context.Context) ([]string, error) { return nil, nil }
func (stub) Refresh(context.Context) (int, error)     { return 0, nil }
func (stub) Assign(context.Context, badges.AssignCmd) (domain.FireBadge, error) {
	return domain.FireBadge{}, nil
}
func (stub) ListActive(context.Context) ([]domain.FireBadge, error) { return nil, nil }
func (stub) Remove(context.Context, string, string) error           { return nil }
func (stub) Login(context.Context, string, string) (auth.LoginResult, error) {
	return auth.LoginResult{Token: "t"}, nil
}
func (stub) CreateUser(context.Context, auth.CreateUserCmd) (domain.Identity, error) {
	return domain.Identity{}, nil
}
func (stub) ListUsers(context.Context) ([]domain.Identity, error) { return nil, nil }

type adminStub struct{}

func (adminStub) Get(context.Context) (domain.OpsSettings, error) {
	return domain.DefaultOpsSettings(), nil
}
func (adminStub) Update(context.Context, settings.Patch, string) (domain.OpsSettings, error) {
	return domain.DefaultOpsSettings(), nil
}
func (adminStub) Create(context.Context, string) (domain.BackupInfo, error) {
	return domain.BackupInfo{}, nil
}
func (adminStub) List(context.Context) ([]domain.BackupInfo, error) { return nil, nil }
func (adminStub) Restore(context.Context, string, string) (domain.BackupDocument, error) {
	return domain.BackupDocument{}, nil
}
func (adminStub) Stats(context.Context) domain.DashboardStats { return domain.DashboardStats{} }

type tokens map[string]auth.TokenClaims

func (t tokens) VerifyAccessToken(tok string) (auth.TokenClaims, error) {
	c, ok := t[tok]
	if !ok {
		return auth.TokenClaims{}, domain.ErrTokenInvalid()
	}
	return c, nil
}

func newRouter(t *testing.T, ipLimit int) http.Handler {
	t.Helper()
	verifier := tokens{
		"admin-token": {UserID: "u1", Username: "alice", Role: "admin"},
		"staff-token": {UserID: "u2", Username: "sam", Role: "staff"},
	}
	h, err := New(Deps{
		Health:       handlers.NewHealthHandler(),
		Interactions: handlers.NewInteractionsHandler(stub{}),
		Ranking:      handlers.NewRankingHandler(stub{}, 100),
		Catalog:      handlers.NewCatalogHandler(stub{}),
		Badges:       handlers.NewBadgesHandler(stub{}),
		Auth:         handlers.NewAuthHandler(stub{}),
		Admin:        handlers.NewAdminHandler(adminStub{}, adminStub{}, adminStub{}),
		AuthMW:       mw.Auth(verifier, response.WriteError),
		AdminMW:      mw.RequireAtLeast("admin", response.WriteError),
		IPLimit:      ipLimit,
		IPWindow:     time.Minute,
		RefreshLimit: ipLimit,
	})
	require.NoError(t, err)
	return h
}

func serve(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestNew_RequiresDeps(t *testing.T) {
	_, err := New(Deps{})
	assert.Error(t, err)
}

func TestPublicRoutes(t *testing.T) {
	h := newRouter(t, 0)

	cases := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodGet, "/healthz", "", http.StatusOK},
		{http.MethodGet, "/readyz", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodGet, "/api/v1/ranking?limit=3", "", http.StatusOK},
		{http.MethodGet, "/api/v1/catalog/products", "", http.StatusOK},
		{http.MethodGet, "/api/v1/catalog/products/A1", "", http.StatusOK},
		{http.MethodGet, "/api/v1/catalog/brands", "", http.StatusOK},
		{http.MethodGet, "/api/v1/badges", "", http.StatusOK},
		{http.MethodPost, "/api/v1/interactions", `{"type":"search","sessionId":"s"}`, http.StatusCreated},
		{http.MethodPost, "/api/v1/auth/login", `{"username":"a","password":"b"}`, http.StatusOK},
		{http.MethodGet, "/api/v1/nope", "", http.StatusNotFound},
	}
	for _, tc := range cases {
		rr := serve(h, tc.method, tc.path, "", tc.body)
		assert.Equal(t, tc.want, rr.Code, tc.path)
	}
}

func TestAdminRoutes_RequireAdminToken(t *testing.T) {
	h := newRouter(t, 0)

	rr := serve(h, http.MethodGet, "/api/v1/admin/dashboard", "", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = serve(h, http.MethodGet, "/api/v1/admin/dashboard", "bogus", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = serve(h, http.MethodGet, "/api/v1/admin/dashboard", "staff-token", "")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	admin := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodGet, "/api/v1/admin/dashboard", "", http.StatusOK},
		{http.MethodPost, "/api/v1/admin/ranking/admin-score", `{"productId":"p","score":1}`, http.StatusOK},
		{http.MethodPost, "/api/v1/admin/ranking/products", `{"productId":"p","productName":"n"}`, http.StatusCreated},
		{http.MethodPost, "/api/v1/admin/ranking/rebuild", "", http.StatusOK},
		{http.MethodPost, "/api/v1/admin/badges", `{"productId":"p","position":1,"durationHours":2}`, http.StatusCreated},
		{http.MethodDelete, "/api/v1/admin/badges/b1", "", http.StatusNoContent},
		{http.MethodPost, "/api/v1/admin/catalog/refresh", "", http.StatusOK},
		{http.MethodGet, "/api/v1/admin/settings", "", http.StatusOK},
		{http.MethodPut, "/api/v1/admin/settings", `{"retentionDays":5}`, http.StatusOK},
		{http.MethodGet, "/api/v1/admin/backups", "", http.StatusOK},
		{http.MethodPost, "/api/v1/admin/backups", "", http.StatusCreated},
		{http.MethodPost, "/api/v1/admin/backups/restore", `{"key":"backups/x.json"}`, http.StatusOK},
		{http.MethodGet, "/api/v1/admin/users", "", http.StatusOK},
		{http.MethodPost, "/api/v1/admin/users", `{"username":"bob","password":"password1"}`, http.StatusCreated},
	}
	for _, tc := range admin {
		rr := serve(h, tc.method, tc.path, "admin-token", tc.body)
		assert.Equal(t, tc.want, rr.Code, tc.method+" "+tc.path)
	}
}

func TestInteractions_IPLimited(t *testing.T) {
	h := newRouter(t, 2)
	body := `{"type":"search","sessionId":"s"}`

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusCreated, serve(h, http.MethodPost, "/api/v1/interactions", "", body).Code)
	}
	rr := serve(h, http.MethodPost, "/api/v1/interactions", "", body)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Contains(t, rr.Body.String(), "rate_limited")

	// reads are not limited
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/api/v1/ranking", "", "").Code)
}

func TestRanking_ForcedRefreshIPLimited(t *testing.T) {
	h := newRouter(t, 2)

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/api/v1/ranking?forceRefresh=true", "", "").Code)
	}
	rr := serve(h, http.MethodGet, "/api/v1/ranking?forceRefresh=true", "", "")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Contains(t, rr.Body.String(), "ranking_refresh")

	// snapshot reads keep flowing from the same address
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/api/v1/ranking?forceRefresh=false", "", "").Code)
	}

	// the interaction budget is separate
	rr = serve(h, http.MethodPost, "/api/v1/interactions", "", `{"type":"search","sessionId":"s"}`)
	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	rr := serve(newRouter(t, 0), http.MethodGet, "/healthz", "", "")
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rr.Header().Get(mw.HeaderXRequestID))
}
