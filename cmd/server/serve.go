package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stockroom/internal/auth"
	"stockroom/internal/auth/middleware"
	"stockroom/internal/dashboard"
	dashboardsvc "stockroom/internal/dashboard/service"
	"stockroom/internal/domain"
	"stockroom/internal/infrastructure/cache"
	"stockroom/internal/infrastructure/metrics"
	"stockroom/internal/product"
	"stockroom/internal/report"
	"stockroom/internal/server"
	"stockroom/internal/stock"
)

// writerRoles may change the catalog and post ledger movements.
var writerRoles = []string{domain.RoleAdmin, domain.RoleStaff}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API until SIGINT or SIGTERM",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := boot()
		if err != nil {
			return err
		}
		defer rt.close()

		ctx := cmd.Context()
		cfg, log := rt.cfg, rt.logger

		readCache := cache.New(ctx, cfg.Cache, log)
		if closer, ok := readCache.(*cache.RedisCache); ok {
			defer closer.Close()
		}
		invalidator := cache.NewInvalidator(readCache, dashboardsvc.CachePrefix)
		m := metrics.New()

		authModule, err := auth.NewModule(rt.db, cfg, log)
		if err != nil {
			return err
		}

		router := server.NewRouter(server.Modules{
			Auth:          authModule.Controller.Routes,
			Inventory:     product.NewModule(rt.db, cfg, invalidator, middleware.RequireRole(log, writerRoles...), log).Routes,
			Stock:         stock.NewModule(rt.db, cfg, m, invalidator, log).Routes,
			Dashboard:     dashboard.NewModule(rt.db, cfg, readCache, log).Routes,
			Reports:       report.NewModule(rt.db, cfg, log).Routes,
			Authenticate:  authModule.Authenticator.Authenticate,
			RequireWriter: middleware.RequireRoleForWrites(log, writerRoles...),
		}, rt.db, m, cfg.Server.AllowedOrigins, log)

		log.Info("serving", zap.Int("port", cfg.Server.Port), zap.Strings("corsOrigins", cfg.Server.AllowedOrigins))
		return server.New(cfg.Server.Port, router, log).Run(ctx)
	},
}
