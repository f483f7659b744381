package dashboard

import (
	"database/sql"

	"go.uber.org/zap"

	"stockroom/internal/config"
	"stockroom/internal/dashboard/controller"
	"stockroom/internal/dashboard/repository"
	"stockroom/internal/dashboard/service"
	"stockroom/internal/infrastructure/cache"
)

func NewModule(db *sql.DB, cfg *config.Config, c cache.Cache, logger *zap.Logger) *controller.DashboardController {
	repo := repository.NewMySQLDashboardRepository(db)
	svc := service.NewDashboardService(repo, c, cfg.Cache.TTL, cfg.Report.LowStockThreshold, logger)
	return controller.NewDashboardController(svc, logger)
}
