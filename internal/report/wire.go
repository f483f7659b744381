package report

import (
	"database/sql"

	"go.uber.org/zap"

	"stockroom/internal/config"
	"stockroom/internal/report/controller"
	"stockroom/internal/report/repository"
	"stockroom/internal/report/service"
)

func NewModule(db *sql.DB, cfg *config.Config, logger *zap.Logger) *controller.ReportController {
	svc := service.NewReportService(repository.NewMySQLReportRepository(db), cfg.Report.LowStockThreshold, logger)
	return controller.NewReportController(svc, logger)
}
