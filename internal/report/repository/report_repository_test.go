package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/domain"
	"stockroom/internal/testutil"
)

func TestNewMySQLReportRepository(t *testing.T) {
	db := &sql.DB{}
	repo := NewMySQLReportRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestMovementWhere(t *testing.T) {
	start := time.Date(2026, 10, 1, 15, 0, 0, 0, time.UTC)
	brand := "ACME"

	where, args := movementWhere(domain.MovementFilter{StartDate: &start, Brand: &brand})

	assert.Equal(t, ` WHERE 1=1 AND DATE(st.created_at) >= ? AND p.brand = ?`, where)
	assert.Equal(t, []interface{}{"2026-10-01", "ACME"}, args)

	where, args = movementWhere(domain.MovementFilter{})
	assert.Equal(t, ` WHERE 1=1`, where)
	assert.Empty(t, args)
}

// Integration Tests

func seed(t *testing.T) (*sql.DB, int, int) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	bolt := testutil.InsertProduct(t, db, "R-1", "Bolt", 5)
	nut := testutil.InsertProduct(t, db, "R-2", "Nut", 60)
	_, err := db.Exec(`UPDATE products SET type = 'Paint', brand = 'ACME' WHERE id = ?`, nut)
	require.NoError(t, err)

	testutil.InsertTransaction(t, db, bolt, "IN", 20)
	testutil.InsertTransaction(t, db, bolt, "OUT", 15)
	testutil.InsertTransaction(t, db, nut, "IN", 60)
	return db, bolt, nut
}

func TestReportRepository_Aggregates(t *testing.T) {
	db, _, _ := seed(t)
	repo := NewMySQLReportRepository(db)
	ctx := context.Background()

	byType, err := repo.TypeAggregates(ctx)
	require.NoError(t, err)
	require.Len(t, byType, 2)
	assert.Equal(t, "Paint", byType[0].Type)
	assert.Equal(t, "600.00", byType[0].TotalValue.StringFixed(2))

	totals, err := repo.CatalogTotals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, totals.TotalProducts)
	assert.Equal(t, 65, totals.TotalQuantity)
}

func TestReportRepository_MovementsFiltered(t *testing.T) {
	db, _, nut := seed(t)
	repo := NewMySQLReportRepository(db)
	paint := "Paint"
	filter := domain.MovementFilter{Type: &paint}

	movements, err := repo.Movements(context.Background(), filter)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, nut, movements[0].ProductID)

	totals, err := repo.MovementTotals(context.Background(), domain.MovementFilter{}, false)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, domain.TransactionIn, totals[0].TransactionType)
	assert.Equal(t, 80, totals[0].TotalQuantity)

	byType, err := repo.MovementTotals(context.Background(), domain.MovementFilter{}, true)
	require.NoError(t, err)
	assert.Len(t, byType, 3)
	require.NotNil(t, byType[0].ProductType)

	trend, err := repo.DailyTrend(context.Background(), domain.MovementFilter{})
	require.NoError(t, err)
	assert.Len(t, trend, 2)
}

func TestReportRepository_LowStock(t *testing.T) {
	db, bolt, _ := seed(t)
	repo := NewMySQLReportRepository(db)

	items, err := repo.LowStock(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, bolt, items[0].ID)
	assert.NotNil(t, items[0].LastRestock)
	assert.Equal(t, 15, items[0].OutLast30Days)

	byType, err := repo.LowStockByType(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, 1, byType[0].ProductCount)
}

func TestReportRepository_Sales(t *testing.T) {
	db, bolt, _ := seed(t)
	repo := NewMySQLReportRepository(db)
	ctx := context.Background()

	top, err := repo.TopSelling(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, bolt, top[0].ID)
	assert.Equal(t, "150.00", top[0].TotalSalesValue.StringFixed(2))

	slow, err := repo.SlowMoving(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, slow)

	monthly, err := repo.MonthlySales(ctx)
	require.NoError(t, err)
	require.Len(t, monthly, 1)
	assert.Equal(t, 1, monthly[0].UniqueProducts)

	byType, err := repo.SalesByCategory(ctx, false, 10)
	require.NoError(t, err)
	assert.Len(t, byType, 2)

	brands, err := repo.SalesByCategory(ctx, true, 10)
	require.NoError(t, err)
	assert.Empty(t, brands)
}

func TestReportRepository_Valuation(t *testing.T) {
	db, bolt, nut := seed(t)
	repo := NewMySQLReportRepository(db)
	ctx := context.Background()

	changes, err := repo.NetChangeByType(ctx, 30)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, "General", changes[0].Type)
	assert.Equal(t, 5, changes[0].QuantityDelta)

	top, err := repo.TopValue(ctx, 20)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, nut, top[0].ID)
	assert.Equal(t, bolt, top[1].ID)

	filters, err := repo.Filters(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"General", "Paint"}, filters.Types)
	assert.Equal(t, []string{"ACME"}, filters.Brands)
}
