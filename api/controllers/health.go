package controllers

import (
	"net/http"

	"github.com/velvetsouk/velvetsouk-backend/api/responses"
	"github.com/velvetsouk/velvetsouk-backend/pkg/config"
	"github.com/velvetsouk/velvetsouk-backend/pkg/db"
	"github.com/velvetsouk/velvetsouk-backend/pkg/logger"
	"github.com/velvetsouk/velvetsouk-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-VelvetSouk-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports per-dependency readiness. A failing dependency flips the
// status code to 503 but the body still names each component.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-VelvetSouk-Env", cfg.App.Env)

		components := map[string]string{}
		healthy := true

		if dbP != nil {
			if err := dbP.Ping(r.Context()); err != nil {
				components["database"] = "unreachable"
				healthy = false
				logg.Error(r.Context(), "health.database", err)
			} else {
				components["database"] = "ok"
			}
		}
		if redisP != nil {
			if err := redisP.Ping(r.Context()); err != nil {
				components["redis"] = "unreachable"
				healthy = false
				logg.Error(r.Context(), "health.redis", err)
			} else {
				components["redis"] = "ok"
			}
		}

		status := http.StatusOK
		overall := "ready"
		if !healthy {
			status = http.StatusServiceUnavailable
			overall = "degraded"
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"status":     overall,
			"components": components,
		})
	}
}
