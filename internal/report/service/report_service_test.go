package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stockroom/internal/domain"
	apperrors "stockroom/internal/errors"
)

type fakeRepository struct {
	mu      sync.Mutex
	fail    map[string]error
	limits  map[string]int
	filters []domain.MovementFilter
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{fail: map[string]error{}, limits: map[string]int{}}
}

func (f *fakeRepository) record(name string, limit int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limits[name] = limit
	return f.fail[name]
}

func (f *fakeRepository) TypeAggregates(context.Context) ([]domain.TypeAggregate, error) {
	return []domain.TypeAggregate{{Type: "Hardware", ProductCount: 2, TotalValue: decimal.NewFromInt(40)}}, f.record("TypeAggregates", 0)
}

func (f *fakeRepository) CatalogTotals(context.Context) (domain.CatalogTotals, error) {
	return domain.CatalogTotals{TotalProducts: 2, TotalQuantity: 8}, f.record("CatalogTotals", 0)
}

func (f *fakeRepository) Movements(_ context.Context, filter domain.MovementFilter) ([]domain.MovementView, error) {
	f.mu.Lock()
	f.filters = append(f.filters, filter)
	f.mu.Unlock()
	return []domain.MovementView{{ProductType: "Hardware"}}, f.record("Movements", 0)
}

func (f *fakeRepository) MovementTotals(_ context.Context, _ domain.MovementFilter, byProductType bool) ([]domain.MovementTotals, error) {
	if byProductType {
		t := "Hardware"
		return []domain.MovementTotals{{ProductType: &t, TransactionType: domain.TransactionIn}}, f.record("MovementTotalsByType", 0)
	}
	return []domain.MovementTotals{{TransactionType: domain.TransactionIn, TotalQuantity: 5}}, f.record("MovementTotals", 0)
}

func (f *fakeRepository) DailyTrend(context.Context, domain.MovementFilter) ([]domain.DailyTotal, error) {
	return []domain.DailyTotal{{Date: "2026-10-01"}}, f.record("DailyTrend", 0)
}

func (f *fakeRepository) LowStock(_ context.Context, threshold int) ([]domain.LowStockItem, error) {
	return []domain.LowStockItem{{Product: domain.Product{Quantity: 3}}}, f.record("LowStock", threshold)
}

func (f *fakeRepository) LowStockByType(_ context.Context, threshold int) ([]domain.TypeAggregate, error) {
	return []domain.TypeAggregate{{Type: "Hardware"}}, f.record("LowStockByType", threshold)
}

func (f *fakeRepository) TopSelling(_ context.Context, limit int) ([]domain.SalesRow, error) {
	return []domain.SalesRow{{TotalSold: 30}}, f.record("TopSelling", limit)
}

func (f *fakeRepository) SlowMoving(_ context.Context, limit int) ([]domain.SlowMover, error) {
	return []domain.SlowMover{{DaysInInventory: 45}}, f.record("SlowMoving", limit)
}

func (f *fakeRepository) MonthlySales(context.Context) ([]domain.MonthlySales, error) {
	return []domain.MonthlySales{{Month: "2026-09"}}, f.record("MonthlySales", 0)
}

func (f *fakeRepository) SalesByCategory(_ context.Context, byBrand bool, limit int) ([]domain.CategorySales, error) {
	if byBrand {
		return []domain.CategorySales{{Type: "Hardware"}}, f.record("TopBrands", limit)
	}
	return []domain.CategorySales{{Type: "Hardware"}, {Type: "Paint"}}, f.record("SalesByType", limit)
}

func (f *fakeRepository) NetChangeByType(_ context.Context, days int) ([]domain.NetChange, error) {
	return []domain.NetChange{{Type: "Hardware", QuantityDelta: -4}}, f.record("NetChangeByType", days)
}

func (f *fakeRepository) TopValue(_ context.Context, limit int) ([]domain.Product, error) {
	return []domain.Product{{ID: 1}}, f.record("TopValue", limit)
}

func (f *fakeRepository) Filters(context.Context) (domain.ReportFilters, error) {
	return domain.ReportFilters{Types: []string{"Hardware"}, Brands: []string{}}, f.record("Filters", 0)
}

func TestStockSummary(t *testing.T) {
	svc := NewReportService(newFakeRepository(), 50, zap.NewNop())

	byType, overall, err := svc.StockSummary(context.Background())

	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, "Hardware", byType[0].Type)
	assert.Equal(t, 8, overall.TotalQuantity)
}

func TestStockSummary_AnyQueryFailureFailsReport(t *testing.T) {
	repo := newFakeRepository()
	repo.fail["CatalogTotals"] = errors.New("timeout")
	svc := NewReportService(repo, 50, zap.NewNop())

	_, _, err := svc.StockSummary(context.Background())

	assert.EqualError(t, err, "timeout")
}

func TestStockMovement_AssemblesAllSections(t *testing.T) {
	repo := newFakeRepository()
	svc := NewReportService(repo, 50, zap.NewNop())
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	brand := "ACME"

	report, err := svc.StockMovement(context.Background(), domain.MovementFilter{StartDate: &start, Brand: &brand})

	require.NoError(t, err)
	assert.Len(t, report.Movements, 1)
	assert.Nil(t, report.Summary[0].ProductType)
	assert.Equal(t, "Hardware", *report.ByType[0].ProductType)
	assert.Len(t, report.DailyTrend, 1)
	require.Len(t, repo.filters, 1)
	assert.Equal(t, "ACME", *repo.filters[0].Brand)
}

func TestStockMovement_EndBeforeStart(t *testing.T) {
	repo := newFakeRepository()
	svc := NewReportService(repo, 50, zap.NewNop())
	start := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -1)

	_, err := svc.StockMovement(context.Background(), domain.MovementFilter{StartDate: &start, EndDate: &end})

	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok)
	assert.Empty(t, repo.filters)
}

func TestLowStock_Threshold(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"default", 0, 50},
		{"explicit", 15, 15},
		{"capped", 5_000_000, maxThreshold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepository()
			svc := NewReportService(repo, 50, zap.NewNop())

			report, err := svc.LowStock(context.Background(), tt.in)

			require.NoError(t, err)
			assert.Equal(t, tt.want, report.Threshold)
			assert.Equal(t, tt.want, repo.limits["LowStock"])
			assert.Equal(t, tt.want, repo.limits["LowStockByType"])
		})
	}
}

func TestSalesAnalysis_Limits(t *testing.T) {
	repo := newFakeRepository()
	svc := NewReportService(repo, 50, zap.NewNop())

	a, err := svc.SalesAnalysis(context.Background(), 0)

	require.NoError(t, err)
	assert.Equal(t, DefaultSalesLimit, repo.limits["TopSelling"])
	assert.Equal(t, DefaultSalesLimit, repo.limits["SlowMoving"])
	assert.Equal(t, DefaultSalesLimit, repo.limits["TopBrands"])
	assert.Len(t, a.SalesByType, 2)
	assert.Len(t, a.MonthlySales, 1)

	_, err = svc.SalesAnalysis(context.Background(), 10_000)
	require.NoError(t, err)
	assert.Equal(t, MaxSalesLimit, repo.limits["TopSelling"])
}

func TestValuation(t *testing.T) {
	repo := newFakeRepository()
	svc := NewReportService(repo, 50, zap.NewNop())

	v, err := svc.Valuation(context.Background())

	require.NoError(t, err)
	assert.Equal(t, valuationWindow, repo.limits["NetChangeByType"])
	assert.Equal(t, topValueLimit, repo.limits["TopValue"])
	assert.Equal(t, -4, v.MonthlyChange[0].QuantityDelta)
	assert.Equal(t, 2, v.Overall.TotalProducts)
}

func TestValuation_Failure(t *testing.T) {
	repo := newFakeRepository()
	repo.fail["TopValue"] = errors.New("lost connection")
	svc := NewReportService(repo, 50, zap.NewNop())

	_, err := svc.Valuation(context.Background())

	assert.EqualError(t, err, "lost connection")
}
