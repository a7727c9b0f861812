package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/shopify-repricer/internal/pkg/httputil"
)

// HealthStatus is the overall health of the service.
type HealthStatus struct {
	Status string                    `json:"status"` // "healthy", "degraded"
	Uptime string                    `json:"uptime"`
	Checks map[string]ComponentCheck `json:"checks"`
}

// ComponentCheck is the health of a single dependency.
type ComponentCheck struct {
	Status  string `json:"status"` // "up", "down", "not_configured"
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// HealthChecker probes the engine's stores. Either dependency may be nil;
// nil deps report "not_configured" and don't degrade the overall status.
type HealthChecker struct {
	db        *sql.DB
	redis     *redis.Client
	startTime time.Time
}

// NewHealthChecker creates a health checker over the configured stores.
func NewHealthChecker(db *sql.DB, redisClient *redis.Client) *HealthChecker {
	return &HealthChecker{db: db, redis: redisClient, startTime: time.Now()}
}

func (hc *HealthChecker) check(ctx context.Context) HealthStatus {
	checks := make(map[string]ComponentCheck, 2)
	status := "healthy"

	if hc.db == nil {
		checks["postgres"] = ComponentCheck{Status: "not_configured"}
	} else {
		checks["postgres"] = hc.probe(ctx, func(ctx context.Context) error { return hc.db.PingContext(ctx) })
	}
	if hc.redis == nil {
		checks["redis"] = ComponentCheck{Status: "not_configured"}
	} else {
		checks["redis"] = hc.probe(ctx, func(ctx context.Context) error { return hc.redis.Ping(ctx).Err() })
	}

	for _, c := range checks {
		if c.Status == "down" {
			// The engine degrades rather than dies when a store is
			// unreachable, so a down store is "degraded", not fatal.
			status = "degraded"
		}
	}

	return HealthStatus{
		Status: status,
		Uptime: time.Since(hc.startTime).Round(time.Second).String(),
		Checks: checks,
	}
}

func (hc *HealthChecker) probe(ctx context.Context, ping func(context.Context) error) ComponentCheck {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	if err := ping(ctx); err != nil {
		return ComponentCheck{Status: "down", Message: err.Error()}
	}
	return ComponentCheck{Status: "up", Latency: time.Since(start).Round(time.Millisecond).String()}
}

// HealthCheck reports DB and Redis reachability.
//
//	GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.health == nil {
		httputil.OK(w, HealthStatus{Status: "healthy"})
		return
	}
	httputil.OK(w, h.health.check(r.Context()))
}
