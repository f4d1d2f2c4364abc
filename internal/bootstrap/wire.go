package bootstrap

import (
	"context"
	"net/http"

	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/wholesale-catalog/internal/domain"
	"github.com/baechuer/wholesale-catalog/internal/infrastructure/caching/redis"
	http_handlers "github.com/baechuer/wholesale-catalog/internal/transport/http/handlers"
	"github.com/baechuer/wholesale-catalog/internal/transport/http/middleware"
	"github.com/baechuer/wholesale-catalog/internal/transport/http/response"
	"github.com/baechuer/wholesale-catalog/internal/transport/http/router"
)

/*
========================
 Public entry (prod)
========================
*/

func NewServer() (*http.Server, func(), error) {
	return newServer(Deps{})
}

// NewServerWithDeps allows injecting dependencies for testing
func NewServerWithDeps(deps Deps) (*http.Server, func(), error) {
	return newServer(deps)
}

func newServer(deps Deps) (*http.Server, func(), error) {
	ctx := context.Background()

	app, err := BuildApp(ctx, deps)
	if err != nil {
		return nil, nil, err
	}
	cfg := app.Config

	// handlers + middleware
	checks := []http_handlers.Check{{Name: "postgres", Ping: app.DB.PingContext}}
	if app.Redis != nil {
		checks = append(checks, http_handlers.Check{Name: "redis", Ping: app.Redis.Ping})
	}
	if p, ok := app.Blobs.(interface{ Ping(context.Context) error }); ok {
		checks = append(checks, http_handlers.Check{Name: "backups", Ping: p.Ping})
	}

	ipLimit, refreshLimit := 0, 0
	if cfg.RLEnabled {
		ipLimit, refreshLimit = cfg.RLLimit, cfg.RLRefreshLimit
	}

	// login limit is shared across replicas, so it needs redis (fail-open)
	var loginMW func(http.Handler) http.Handler
	if app.Redis != nil && cfg.RLEnabled {
		loginMW = middleware.RateLimitFixedWindow(
			redis.NewFixedWindowLimiter(app.Redis),
			middleware.FixedWindowConfig{RouteKey: "auth.login", Limit: cfg.LoginRLLimit, Window: cfg.LoginRLWindow},
			response.WriteError,
		)
	}

	mux, err := router.New(router.Deps{
		Health:       http_handlers.NewHealthHandler(checks...),
		Interactions: http_handlers.NewInteractionsHandler(app.Tracking),
		Ranking:      http_handlers.NewRankingHandler(app.Ranking, cfg.RankingMaxLimit),
		Catalog:      http_handlers.NewCatalogHandler(app.Catalog),
		Badges:       http_handlers.NewBadgesHandler(app.Badges),
		Auth:         http_handlers.NewAuthHandler(app.Auth),
		Admin:        http_handlers.NewAdminHandler(app.Settings, app.Backups, app.Dashboard),

		AuthMW:  middleware.Auth(app.Auth, response.WriteError),
		AdminMW: middleware.RequireAtLeast(string(domain.RoleAdmin), response.WriteError),
		LoginMW: loginMW,

		IPLimit:      ipLimit,
		IPWindow:     cfg.RLWindow,
		RefreshLimit: refreshLimit,
	})
	if err != nil {
		app.Close()
		return nil, nil, err
	}

	app.Scheduler.Start()

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	cleanup := func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPWriteTimeout)
		defer cancel()
		app.Scheduler.Stop(stopCtx)
		app.Close()
		zlog.Info().Msg("resources released")
	}
	return srv, cleanup, nil
}
