package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/youssefloay/comebac-sub002/internal/admission/handler"
	cataloghandler "github.com/youssefloay/comebac-sub002/internal/catalog/handler"
	redisplatform "github.com/youssefloay/comebac-sub002/internal/platform/redis"
	"github.com/youssefloay/comebac-sub002/pkg/platform/httputil"
	"github.com/youssefloay/comebac-sub002/pkg/platform/middleware/metadata"
	"github.com/youssefloay/comebac-sub002/pkg/platform/middleware/requestid"
	"github.com/youssefloay/comebac-sub002/pkg/platform/middleware/requesttime"
)

type routerDeps struct {
	logger    *slog.Logger
	admission *handler.Handler
	catalog   *cataloghandler.Handler
	staff     func(http.Handler) http.Handler
	gate      func(http.Handler) http.Handler // staff JWT or provisioned kiosk key
	db        *sql.DB                         // nil with in-memory stores
	redis     *redisplatform.Client           // nil when cache disabled
}

// newRouter assembles the HTTP surface. Request-scoped middleware runs on
// every route so audit events get an operator, device and a single timestamp.
func newRouter(deps routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.Middleware)

	deps.admission.Register(r, deps.staff, deps.gate)
	deps.catalog.Register(r)

	r.Get("/healthz", handleHealthz(deps))
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func handleHealthz(deps routerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{}
		healthy := true

		if deps.db != nil {
			if err := deps.db.PingContext(ctx); err != nil {
				checks["postgres"] = err.Error()
				healthy = false
			} else {
				checks["postgres"] = "ok"
			}
		}
		if deps.redis != nil {
			if err := deps.redis.Health(ctx); err != nil {
				checks["redis"] = err.Error()
				healthy = false
			} else {
				checks["redis"] = "ok"
			}
		}

		status := http.StatusOK
		body := map[string]any{"status": "ok", "checks": checks}
		if !healthy {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
		httputil.WriteJSON(w, status, body)
	}
}
