package controller

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"stockroom/internal/dashboard/service"
	"stockroom/internal/domain"
	"stockroom/internal/dto"
	"stockroom/internal/httpx"
)

type DashboardService interface {
	Stats(ctx context.Context) (*domain.DashboardStats, error)
	RecentMovements(ctx context.Context, limit int) ([]domain.MovementView, error)
	TopSelling(ctx context.Context, limit int) ([]domain.TopSeller, error)
	MonthlyMovements(ctx context.Context) (domain.MonthlySeries, error)
}

type DashboardController struct {
	svc    DashboardService
	logger *zap.Logger
}

func NewDashboardController(svc DashboardService, logger *zap.Logger) *DashboardController {
	return &DashboardController{svc: svc, logger: logger}
}

func (c *DashboardController) Routes(r chi.Router) {
	r.Get("/stats", c.Stats)
	r.Get("/recent-movements", c.RecentMovements)
	r.Get("/top-selling", c.TopSelling)
	r.Get("/monthly-movements", c.MonthlyMovements)
}

func (c *DashboardController) Stats(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpx.Trace(r, c.logger)

	stats, err := c.svc.Stats(r.Context())
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.NewStatsResponse(traceID, *stats), logger)
}

func (c *DashboardController) RecentMovements(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpx.Trace(r, c.logger)

	movements, err := c.svc.RecentMovements(r.Context(), httpx.QueryInt(r, "limit", service.DefaultLimit))
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.RecentMovementsResponse{
		Success:   true,
		TraceID:   traceID,
		Movements: dto.NewActivityDTOs(movements),
	}, logger)
}

func (c *DashboardController) TopSelling(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpx.Trace(r, c.logger)

	sellers, err := c.svc.TopSelling(r.Context(), httpx.QueryInt(r, "limit", service.DefaultLimit))
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.NewTopSellingResponse(traceID, sellers), logger)
}

func (c *DashboardController) MonthlyMovements(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpx.Trace(r, c.logger)

	series, err := c.svc.MonthlyMovements(r.Context())
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.NewMonthlyMovementsResponse(traceID, series), logger)
}
