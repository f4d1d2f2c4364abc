package router

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/baechuer/wholesale-catalog/internal/domain"
	"github.com/baechuer/wholesale-catalog/internal/transport/http/handlers"
	mw "github.com/baechuer/wholesale-catalog/internal/transport/http/middleware"
	"github.com/baechuer/wholesale-catalog/internal/transport/http/response"
)

type Deps struct {
	Health       *handlers.HealthHandler
	Interactions *handlers.InteractionsHandler
	Ranking      *handlers.RankingHandler
	Catalog      *handlers.CatalogHandler
	Badges       *handlers.BadgesHandler
	Auth         *handlers.AuthHandler
	Admin        *handlers.AdminHandler

	AuthMW  func(http.Handler) http.Handler
	AdminMW func(http.Handler) http.Handler
	// LoginMW is the shared (redis) login limiter; optional.
	LoginMW func(http.Handler) http.Handler

	// per-IP limit on interaction ingest; zero disables
	IPLimit  int
	IPWindow time.Duration
	// per-IP limit on forced ranking refreshes, same window; zero disables
	RefreshLimit int
}

func New(d Deps) (http.Handler, error) {
	switch {
	case d.Health == nil:
		return nil, errors.New("nil Health handler")
	case d.Interactions == nil || d.Ranking == nil:
		return nil, errors.New("nil ranking handlers")
	case d.Catalog == nil || d.Badges == nil:
		return nil, errors.New("nil storefront handlers")
	case d.Auth == nil || d.Admin == nil:
		return nil, errors.New("nil admin handlers")
	case d.AuthMW == nil || d.AdminMW == nil:
		return nil, errors.New("nil auth middleware")
	}

	loginMW := d.LoginMW
	if loginMW == nil {
		loginMW = func(next http.Handler) http.Handler { return next }
	}

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.SecurityHeaders)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(mw.Metrics)
	r.Use(mw.AccessLog)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.WriteError(w, r, domain.New(domain.KindNotFound, "route_not_found", "route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusMethodNotAllowed, response.ErrorBody{
			Error: "method not allowed",
			Code:  "method_not_allowed",
		})
	})

	r.Get("/healthz", d.Health.Healthz)
	r.Get("/readyz", d.Health.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if d.IPLimit > 0 {
				r.Use(limitByIP(d.IPLimit, d.IPWindow, "interactions"))
			}
			r.Post("/interactions", d.Interactions.Record)
		})

		r.Group(func(r chi.Router) {
			if d.RefreshLimit > 0 {
				r.Use(whenForced(limitByIP(d.RefreshLimit, d.IPWindow, "ranking_refresh")))
			}
			r.Get("/ranking", d.Ranking.Get)
		})
		r.Get("/catalog/products", d.Catalog.List)
		r.Get("/catalog/products/{sku}", d.Catalog.Get)
		r.Get("/catalog/brands", d.Catalog.Brands)
		r.Get("/badges", d.Badges.ListActive)

		r.With(loginMW).Post("/auth/login", d.Auth.Login)

		r.Route("/admin", func(r chi.Router) {
			r.Use(d.AuthMW)
			r.Use(d.AdminMW)

			r.Post("/ranking/admin-score", d.Ranking.SetAdminScore)
			r.Post("/ranking/products", d.Ranking.AddProduct)
			r.Post("/ranking/rebuild", d.Ranking.Rebuild)

			r.Post("/badges", d.Badges.Assign)
			r.Delete("/badges/{id}", d.Badges.Remove)

			r.Post("/catalog/refresh", d.Catalog.Refresh)

			r.Get("/settings", d.Admin.GetSettings)
			r.Put("/settings", d.Admin.UpdateSettings)

			r.Get("/backups", d.Admin.ListBackups)
			r.Post("/backups", d.Admin.CreateBackup)
			r.Post("/backups/restore", d.Admin.RestoreBackup)

			r.Get("/dashboard", d.Admin.Dashboard)

			r.Get("/users", d.Auth.ListUsers)
			r.Post("/users", d.Auth.CreateUser)
		})
	})

	return r, nil
}

func limitByIP(limit int, window time.Duration, scope string) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			response.WriteError(w, r, domain.ErrRateLimited(scope))
		}),
	)
}

// whenForced applies limit only to requests asking for a snapshot rebuild;
// plain reads are served from the snapshot and pass straight through.
func whenForced(limit func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		limited := limit(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if forced, _ := strconv.ParseBool(r.URL.Query().Get("forceRefresh")); forced {
				limited.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
