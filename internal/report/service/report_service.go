package service

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"stockroom/internal/domain"
	apperrors "stockroom/internal/errors"
)

const (
	DefaultSalesLimit = 20
	MaxSalesLimit     = 200
	topValueLimit     = 20
	valuationWindow   = 30
	maxThreshold      = 1_000_000
)

type Repository interface {
	TypeAggregates(ctx context.Context) ([]domain.TypeAggregate, error)
	CatalogTotals(ctx context.Context) (domain.CatalogTotals, error)
	Movements(ctx context.Context, f domain.MovementFilter) ([]domain.MovementView, error)
	MovementTotals(ctx context.Context, f domain.MovementFilter, byProductType bool) ([]domain.MovementTotals, error)
	DailyTrend(ctx context.Context, f domain.MovementFilter) ([]domain.DailyTotal, error)
	LowStock(ctx context.Context, threshold int) ([]domain.LowStockItem, error)
	LowStockByType(ctx context.Context, threshold int) ([]domain.TypeAggregate, error)
	TopSelling(ctx context.Context, limit int) ([]domain.SalesRow, error)
	SlowMoving(ctx context.Context, limit int) ([]domain.SlowMover, error)
	MonthlySales(ctx context.Context) ([]domain.MonthlySales, error)
	SalesByCategory(ctx context.Context, byBrand bool, limit int) ([]domain.CategorySales, error)
	NetChangeByType(ctx context.Context, days int) ([]domain.NetChange, error)
	TopValue(ctx context.Context, limit int) ([]domain.Product, error)
	Filters(ctx context.Context) (domain.ReportFilters, error)
}

// ReportService composes read-only report views. Each report runs its
// queries concurrently and fails as a whole if any of them fails.
type ReportService struct {
	repo             Repository
	defaultThreshold int
	logger           *zap.Logger
}

func NewReportService(repo Repository, defaultThreshold int, logger *zap.Logger) *ReportService {
	return &ReportService{repo: repo, defaultThreshold: defaultThreshold, logger: logger}
}

func (s *ReportService) StockSummary(ctx context.Context) ([]domain.TypeAggregate, domain.CatalogTotals, error) {
	var byType []domain.TypeAggregate
	var overall domain.CatalogTotals

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		byType, err = s.repo.TypeAggregates(ctx)
		return err
	})
	g.Go(func() (err error) {
		overall, err = s.repo.CatalogTotals(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, domain.CatalogTotals{}, err
	}
	return byType, overall, nil
}

func (s *ReportService) StockMovement(ctx context.Context, f domain.MovementFilter) (*domain.MovementReport, error) {
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return nil, apperrors.NewValidationError("endDate must not be before startDate", apperrors.ValidationDetail{
			Field:   "endDate",
			Message: "endDate must not be before startDate",
		})
	}

	var report domain.MovementReport
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		report.Movements, err = s.repo.Movements(ctx, f)
		return err
	})
	g.Go(func() (err error) {
		report.Summary, err = s.repo.MovementTotals(ctx, f, false)
		return err
	})
	g.Go(func() (err error) {
		report.ByType, err = s.repo.MovementTotals(ctx, f, true)
		return err
	})
	g.Go(func() (err error) {
		report.DailyTrend, err = s.repo.DailyTrend(ctx, f)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &report, nil
}

// LowStock uses the configured threshold when threshold is not positive.
func (s *ReportService) LowStock(ctx context.Context, threshold int) (*domain.LowStockReport, error) {
	if threshold <= 0 {
		threshold = s.defaultThreshold
	}
	if threshold > maxThreshold {
		threshold = maxThreshold
	}

	report := domain.LowStockReport{Threshold: threshold}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		report.Items, err = s.repo.LowStock(ctx, threshold)
		return err
	})
	g.Go(func() (err error) {
		report.SummaryByType, err = s.repo.LowStockByType(ctx, threshold)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Debug("low stock report", zap.Int("threshold", threshold), zap.Int("items", len(report.Items)))
	return &report, nil
}

func (s *ReportService) SalesAnalysis(ctx context.Context, limit int) (*domain.SalesAnalysis, error) {
	switch {
	case limit <= 0:
		limit = DefaultSalesLimit
	case limit > MaxSalesLimit:
		limit = MaxSalesLimit
	}

	var a domain.SalesAnalysis
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		a.TopSelling, err = s.repo.TopSelling(ctx, limit)
		return err
	})
	g.Go(func() (err error) {
		a.SlowMoving, err = s.repo.SlowMoving(ctx, limit)
		return err
	})
	g.Go(func() (err error) {
		a.MonthlySales, err = s.repo.MonthlySales(ctx)
		return err
	})
	g.Go(func() (err error) {
		a.SalesByType, err = s.repo.SalesByCategory(ctx, false, MaxSalesLimit)
		return err
	})
	g.Go(func() (err error) {
		a.TopBrands, err = s.repo.SalesByCategory(ctx, true, limit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *ReportService) Valuation(ctx context.Context) (*domain.Valuation, error) {
	var v domain.Valuation
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		v.ByType, err = s.repo.TypeAggregates(ctx)
		return err
	})
	g.Go(func() (err error) {
		v.Overall, err = s.repo.CatalogTotals(ctx)
		return err
	})
	g.Go(func() (err error) {
		v.MonthlyChange, err = s.repo.NetChangeByType(ctx, valuationWindow)
		return err
	})
	g.Go(func() (err error) {
		v.TopValue, err = s.repo.TopValue(ctx, topValueLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *ReportService) Filters(ctx context.Context) (domain.ReportFilters, error) {
	return s.repo.Filters(ctx)
}
