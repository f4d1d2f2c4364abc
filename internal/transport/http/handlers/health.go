package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/baechuer/wholesale-catalog/internal/transport/http/response"
)

// Check is one readiness dependency.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type HealthHandler struct {
	checks  []Check
	timeout time.Duration
}

func NewHealthHandler(checks ...Check) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 2 * time.Second}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{"status": "ok"})
}

// Readyz pings every dependency; any failure makes the service unready.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for _, c := range h.checks {
		if err := c.Ping(ctx); err != nil {
			deps[c.Name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[c.Name] = "up"
	}

	response.WriteJSON(w, status, response.Envelope{
		Success: status == http.StatusOK,
		Data:    map[string]any{"dependencies": deps},
	})
}
