package product

import (
	"database/sql"
	"net/http"

	"go.uber.org/zap"

	"stockroom/internal/config"
	"stockroom/internal/product/controller"
	"stockroom/internal/product/repository"
	"stockroom/internal/product/service"
	"stockroom/internal/product/usecase"
	stockrepo "stockroom/internal/stock/repository"
)

func NewModule(
	db *sql.DB,
	cfg *config.Config,
	invalidator service.ReadModelInvalidator,
	requireWriter func(http.Handler) http.Handler,
	logger *zap.Logger,
) *controller.Controller {
	repo := repository.NewMySQLRepository(db)
	svc := service.NewService(repo, stockrepo.NewMySQLUnitOfWork(db), invalidator, cfg.Ledger.TxTimeout, logger)
	uc := usecase.NewCatalogUseCase(svc)
	return controller.NewController(uc, requireWriter, logger)
}
