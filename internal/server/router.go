package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"stockroom/internal/httpx"
	"stockroom/internal/infrastructure/metrics"
)

const healthTimeout = 2 * time.Second

type Pinger interface {
	PingContext(ctx context.Context) error
}

// Modules are the feature routers mounted under /api. Authenticate guards
// everything except the auth module, which protects its own private routes.
// RequireWriter further limits ledger writes. The catalog applies its own
// writer guard so that product search stays readable.
type Modules struct {
	Auth          func(chi.Router)
	Inventory     func(chi.Router)
	Stock         func(chi.Router)
	Dashboard     func(chi.Router)
	Reports       func(chi.Router)
	Authenticate  func(http.Handler) http.Handler
	RequireWriter func(http.Handler) http.Handler
}

func NewRouter(mods Modules, db Pinger, m *metrics.Metrics, allowedOrigins []string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors(allowedOrigins))
	r.Use(m.Middleware)

	r.Get("/healthz", health(db, logger))
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", mods.Auth)

		api.Group(func(private chi.Router) {
			private.Use(mods.Authenticate)

			private.Group(func(w chi.Router) {
				w.Use(mods.RequireWriter)
				w.Route("/stock", mods.Stock)
			})
			private.Route("/inventory", mods.Inventory)
			private.Route("/dashboard", mods.Dashboard)
			private.Route("/reports", mods.Reports)
		})
	})

	return r
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func health(db Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			logger.Warn("health check failed", zap.Error(err))
			httpx.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Database: "down"}, logger)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok", Database: "up"}, logger)
	}
}
