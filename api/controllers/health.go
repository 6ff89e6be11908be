package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/forkline/forkline-backend/api/responses"
	"github.com/forkline/forkline-backend/pkg/config"
	pkgerrors "github.com/forkline/forkline-backend/pkg/errors"
	"github.com/forkline/forkline-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Forkline-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks the dependencies a request actually needs. Redis is
// reported but does not fail readiness; order placement degrades to
// rejecting rate-limited traffic, not the whole API.
func HealthReady(cfg *config.Config, logg *logger.Logger, database, cache pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Forkline-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		checks := map[string]string{"database": "ok", "redis": "ok"}

		if database == nil {
			checks["database"] = "unavailable"
		} else if err := database.Ping(ctx); err != nil {
			checks["database"] = "unavailable"
		}

		if cache == nil {
			checks["redis"] = "unavailable"
		} else if err := cache.Ping(ctx); err != nil {
			checks["redis"] = "degraded"
		}

		if checks["database"] != "ok" {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "database unavailable").WithDetails(checks))
			return
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
