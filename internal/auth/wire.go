package auth

import (
	"database/sql"

	"go.uber.org/zap"

	"stockroom/internal/auth/controller"
	"stockroom/internal/auth/middleware"
	"stockroom/internal/auth/repository"
	"stockroom/internal/auth/service"
	"stockroom/internal/auth/token"
	"stockroom/internal/config"
	"stockroom/internal/domain"
)

type Module struct {
	Controller    *controller.AuthController
	Authenticator *middleware.Authenticator
	Service       *service.AuthService
}

func NewModule(db *sql.DB, cfg *config.Config, logger *zap.Logger) (*Module, error) {
	issuer, err := token.NewIssuer(cfg.Auth)
	if err != nil {
		return nil, err
	}

	svc := service.NewAuthService(
		repository.NewMySQLUserRepository(db),
		repository.NewMySQLRequestRepository(db),
		issuer,
		logger,
	)
	authn := middleware.NewAuthenticator(issuer, logger)
	requireAdmin := middleware.RequireRole(logger, domain.RoleAdmin)

	return &Module{
		Controller:    controller.NewAuthController(svc, authn.Authenticate, requireAdmin, logger),
		Authenticator: authn,
		Service:       svc,
	}, nil
}
