package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/wholesale-catalog/internal/domain"
	"github.com/baechuer/wholesale-catalog/internal/infrastructure/caching/redis"
)

type RateLimiter interface {
	AllowFixedWindow(ctx context.Context, key string, limit int, window time.Duration) (redis.Decision, error)
}

type FixedWindowConfig struct {
	RouteKey string
	Limit    int
	Window   time.Duration
}

// RateLimitFixedWindow limits per client IP using a shared counter, so the
// limit holds across replicas. Limiter errors fail open.
func RateLimitFixedWindow(limiter RateLimiter, cfg FixedWindowConfig, writeErr WriteErrFunc) func(http.Handler) http.Handler {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.RouteKey == "" {
		cfg.RouteKey = "unknown"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil || cfg.Limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			key := fmt.Sprintf("rl:%s:%s", cfg.RouteKey, clientIP(r))
			dec, err := limiter.AllowFixedWindow(r.Context(), key, cfg.Limit, cfg.Window)
			if err != nil {
				zlog.Warn().Err(err).Str("route", cfg.RouteKey).Msg("rate limiter unavailable; allowing request")
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(dec.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(dec.Remaining))
			if !dec.Allowed {
				if dec.RetryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(dec.RetryAfter.Seconds()+0.5)))
				}
				writeErr(w, r, domain.ErrRateLimited(cfg.RouteKey))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP relies on chi's RealIP having rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
