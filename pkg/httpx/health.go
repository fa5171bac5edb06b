package httpx

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker is satisfied by any infrastructure dependency that exposes
// a Ping method (Database, RedisClient, EventBus, TemporalClient all qualify).
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthChecks holds the set of dependencies to probe in the health endpoint.
// Database, Redis and EventBus are required. Workflows is optional: checkout
// falls back to inline cart clearing without it, so its failure degrades the
// report without failing the probe. A nil Workflows reports "disabled".
type HealthChecks struct {
	Database  HealthChecker
	Redis     HealthChecker
	EventBus  HealthChecker
	Workflows HealthChecker
}

type healthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Redis     string `json:"redis"`
	EventBus  string `json:"event_bus"`
	Workflows string `json:"workflows"`
}

// HealthHandler returns an http.HandlerFunc that probes all registered
// HealthCheckers. A required dependency failing answers 503 "unavailable";
// only optional ones failing answers 200 "degraded".
func HealthHandler(checks HealthChecks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		critical := false
		probe := func(c HealthChecker, required bool) string {
			if c == nil {
				return "disabled"
			}
			if err := c.Ping(ctx); err != nil {
				if required {
					critical = true
				} else if resp.Status == "ok" {
					resp.Status = "degraded"
				}
				return "unreachable"
			}
			return "ok"
		}

		resp.Database = probe(checks.Database, true)
		resp.Redis = probe(checks.Redis, true)
		resp.EventBus = probe(checks.EventBus, true)
		resp.Workflows = probe(checks.Workflows, false)

		status := http.StatusOK
		if critical {
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
		}
		JSON(w, status, resp)
	}
}
