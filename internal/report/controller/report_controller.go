package controller

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"stockroom/internal/domain"
	"stockroom/internal/dto"
	apperrors "stockroom/internal/errors"
	"stockroom/internal/httpx"
)

const dateLayout = "2006-01-02"

type ReportService interface {
	StockSummary(ctx context.Context) ([]domain.TypeAggregate, domain.CatalogTotals, error)
	StockMovement(ctx context.Context, f domain.MovementFilter) (*domain.MovementReport, error)
	LowStock(ctx context.Context, threshold int) (*domain.LowStockReport, error)
	SalesAnalysis(ctx context.Context, limit int) (*domain.SalesAnalysis, error)
	Valuation(ctx context.Context) (*domain.Valuation, error)
	Filters(ctx context.Context) (domain.ReportFilters, error)
}

type ReportController struct {
	svc    ReportService
	logger *zap.Logger
}

func NewReportController(svc ReportService, logger *zap.Logger) *ReportController {
	return &ReportController{svc: svc, logger: logger}
}

func (c *ReportController) Routes(r chi.Router) {
	r.Get("/stock-summary", c.StockSummary)
	r.Get("/stock-movement", c.StockMovement)
	r.Get("/low-stock", c.LowStock)
	r.Get("/sales-analysis", c.SalesAnalysis)
	r.Get("/inventory-valuation", c.Valuation)
	r.Get("/filters", c.Filters)
}

func (c *ReportController) StockSummary(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpx.Trace(r, c.logger)

	byType, overall, err := c.svc.StockSummary(r.Context())
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.NewStockSummaryResponse(traceID, byType, overall), logger)
}

func (c *ReportController) StockMovement(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpx.Trace(r, c.logger)

	filter, err := parseMovementFilter(r)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	report, err := c.svc.StockMovement(r.Context(), filter)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.NewStockMovementResponse(traceID, *report), logger)
}

func (c *ReportController) LowStock(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpx.Trace(r, c.logger)

	report, err := c.svc.LowStock(r.Context(), httpx.QueryInt(r, "threshold", 0))
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.NewLowStockResponse(traceID, *report), logger)
}

func (c *ReportController) SalesAnalysis(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpx.Trace(r, c.logger)

	analysis, err := c.svc.SalesAnalysis(r.Context(), httpx.QueryInt(r, "limit", 0))
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.NewSalesAnalysisResponse(traceID, *analysis), logger)
}

func (c *ReportController) Valuation(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpx.Trace(r, c.logger)

	valuation, err := c.svc.Valuation(r.Context())
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.NewValuationResponse(traceID, *valuation), logger)
}

func (c *ReportController) Filters(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpx.Trace(r, c.logger)

	filters, err := c.svc.Filters(r.Context())
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.NewFiltersResponse(traceID, filters), logger)
}

func parseMovementFilter(r *http.Request) (domain.MovementFilter, error) {
	q := r.URL.Query()
	var f domain.MovementFilter
	var details []apperrors.ValidationDetail

	for _, p := range []struct {
		name string
		dst  **time.Time
	}{
		{"startDate", &f.StartDate},
		{"endDate", &f.EndDate},
	} {
		v := strings.TrimSpace(q.Get(p.name))
		if v == "" {
			continue
		}
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			details = append(details, apperrors.ValidationDetail{
				Field:   p.name,
				Message: p.name + " must be a date in YYYY-MM-DD format",
			})
			continue
		}
		*p.dst = &t
	}

	if len(details) > 0 {
		return f, apperrors.NewValidationError("Invalid date filter", details...)
	}

	f.Type = optional(q.Get("type"))
	f.Brand = optional(q.Get("brand"))
	return f, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
