package stock

import (
	"database/sql"

	"go.uber.org/zap"

	"stockroom/internal/config"
	"stockroom/internal/infrastructure/metrics"
	"stockroom/internal/stock/controller"
	stockrepo "stockroom/internal/stock/repository"
	"stockroom/internal/stock/service"
	"stockroom/internal/stock/usecase"
)

func NewModule(
	db *sql.DB,
	cfg *config.Config,
	m *metrics.Metrics,
	invalidator service.ReadModelInvalidator,
	logger *zap.Logger,
) *controller.StockController {
	ledger := service.NewLedgerService(
		stockrepo.NewMySQLUnitOfWork(db),
		stockrepo.NewMySQLTransactionRepository(db),
		m,
		invalidator,
		cfg.Ledger,
		logger,
	)

	uc := usecase.NewStockUseCase(ledger, m, logger, cfg.Ledger.MaxRetryAttempts)

	return controller.NewStockController(uc, logger)
}
