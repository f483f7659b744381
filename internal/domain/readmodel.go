package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// MovementView is a ledger entry with the product columns the dashboard and
// the movement report display next to it.
type MovementView struct {
	TransactionView
	ProductType  string
	ProductPrice decimal.Decimal
	ProductImage *string
}

// Value is the movement quantity priced at the product's current price.
func (m MovementView) Value() decimal.Decimal {
	return m.ProductPrice.Mul(decimal.NewFromInt(int64(m.Quantity)))
}

type DashboardStats struct {
	TotalStockValue decimal.Decimal
	TotalProducts   int
	LowStockCount   int
	LowStockItems   []Product
}

type TopSeller struct {
	Product
	TotalSold int
}

// MonthTotal is the quantity moved in one direction during a YYYY-MM month.
type MonthTotal struct {
	Month string
	Type  TransactionType
	Total int
}

type MonthlySeries struct {
	Months   []string
	StockIn  []int
	StockOut []int
}

// NewMonthlySeries aligns IN and OUT totals on the sorted union of their
// months. A month with movement in one direction only reports 0 for the other.
func NewMonthlySeries(totals []MonthTotal) MonthlySeries {
	in := map[string]int{}
	out := map[string]int{}
	seen := map[string]struct{}{}
	for _, t := range totals {
		seen[t.Month] = struct{}{}
		if t.Type == TransactionOut {
			out[t.Month] += t.Total
		} else {
			in[t.Month] += t.Total
		}
	}

	series := MonthlySeries{
		Months:   make([]string, 0, len(seen)),
		StockIn:  make([]int, 0, len(seen)),
		StockOut: make([]int, 0, len(seen)),
	}
	for m := range seen {
		series.Months = append(series.Months, m)
	}
	sort.Strings(series.Months)
	for _, m := range series.Months {
		series.StockIn = append(series.StockIn, in[m])
		series.StockOut = append(series.StockOut, out[m])
	}
	return series
}

// TypeAggregate rolls up the catalog per product type.
type TypeAggregate struct {
	Type          string
	ProductCount  int
	TotalQuantity int
	TotalValue    decimal.Decimal
	AvgPrice      decimal.Decimal
	MinQuantity   int
	MaxQuantity   int
	MinValue      decimal.Decimal
	MaxValue      decimal.Decimal
}

type CatalogTotals struct {
	TotalProducts int
	TotalQuantity int
	TotalValue    decimal.Decimal
	AvgPrice      decimal.Decimal
}

type MovementFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Type      *string
	Brand     *string
}

type MovementTotals struct {
	ProductType      *string
	TransactionType  TransactionType
	TransactionCount int
	TotalQuantity    int
	TotalValue       decimal.Decimal
}

type DailyTotal struct {
	Date            string
	TransactionType TransactionType
	TotalQuantity   int
}

type MovementReport struct {
	Movements  []MovementView
	Summary    []MovementTotals
	ByType     []MovementTotals
	DailyTrend []DailyTotal
}

const restockTarget = 100

type LowStockItem struct {
	Product
	LastRestock   *time.Time
	OutLast30Days int
}

// SuggestedOrderQuantity tops an empty or nearly empty product up to 100
// units and otherwise suggests a fixed reorder of 50.
func (i LowStockItem) SuggestedOrderQuantity() int {
	switch {
	case i.Quantity <= 0:
		return restockTarget
	case i.Quantity < 20:
		return restockTarget - i.Quantity
	}
	return 50
}

type LowStockReport struct {
	Threshold     int
	Items         []LowStockItem
	SummaryByType []TypeAggregate
}

type SalesRow struct {
	Product
	TotalSold        int
	TotalSalesValue  decimal.Decimal
	TransactionCount int
}

type SlowMover struct {
	Product
	TotalSold       int
	DaysInInventory int
}

type MonthlySales struct {
	Month          string
	TotalQuantity  int
	TotalValue     decimal.Decimal
	UniqueProducts int
}

type CategorySales struct {
	Type         string
	Brand        *string
	ProductCount int
	TotalSold    int
	TotalValue   decimal.Decimal
}

type SalesAnalysis struct {
	TopSelling   []SalesRow
	SlowMoving   []SlowMover
	MonthlySales []MonthlySales
	SalesByType  []CategorySales
	TopBrands    []CategorySales
}

type NetChange struct {
	Type          string
	QuantityDelta int
	ValueDelta    decimal.Decimal
}

type Valuation struct {
	ByType        []TypeAggregate
	Overall       CatalogTotals
	MonthlyChange []NetChange
	TopValue      []Product
}

type ReportFilters struct {
	Types  []string
	Brands []string
}
