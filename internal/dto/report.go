package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"stockroom/internal/domain"
)

type TypeSummaryDTO struct {
	Type          string          `json:"type"`
	ProductCount  int             `json:"product_count"`
	TotalQuantity int             `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
	AvgPrice      decimal.Decimal `json:"avg_price"`
	MinQuantity   int             `json:"min_quantity"`
	MaxQuantity   int             `json:"max_quantity"`
}

type CatalogTotalsDTO struct {
	TotalProducts int             `json:"total_products"`
	TotalQuantity int             `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
	AvgPrice      decimal.Decimal `json:"avg_price"`
}

func newCatalogTotalsDTO(t domain.CatalogTotals) CatalogTotalsDTO {
	return CatalogTotalsDTO{
		TotalProducts: t.TotalProducts,
		TotalQuantity: t.TotalQuantity,
		TotalValue:    t.TotalValue,
		AvgPrice:      t.AvgPrice.Round(2),
	}
}

type StockSummaryResponse struct {
	Success bool             `json:"success"`
	TraceID string           `json:"traceId"`
	Summary []TypeSummaryDTO `json:"summary"`
	Overall CatalogTotalsDTO `json:"overall"`
}

func NewStockSummaryResponse(traceID string, byType []domain.TypeAggregate, overall domain.CatalogTotals) StockSummaryResponse {
	summary := make([]TypeSummaryDTO, 0, len(byType))
	for _, a := range byType {
		summary = append(summary, TypeSummaryDTO{
			Type:          a.Type,
			ProductCount:  a.ProductCount,
			TotalQuantity: a.TotalQuantity,
			TotalValue:    a.TotalValue,
			AvgPrice:      a.AvgPrice.Round(2),
			MinQuantity:   a.MinQuantity,
			MaxQuantity:   a.MaxQuantity,
		})
	}
	return StockSummaryResponse{
		Success: true,
		TraceID: traceID,
		Summary: summary,
		Overall: newCatalogTotalsDTO(overall),
	}
}

type MovementTotalsDTO struct {
	Type             *string         `json:"type,omitempty"`
	TransactionType  string          `json:"transaction_type"`
	TransactionCount int             `json:"transaction_count"`
	TotalQuantity    int             `json:"total_quantity"`
	TotalValue       decimal.Decimal `json:"total_value"`
}

type DailyTotalDTO struct {
	Date            string `json:"date"`
	TransactionType string `json:"transaction_type"`
	TotalQuantity   int    `json:"total_quantity"`
}

type StockMovementResponse struct {
	Success    bool                `json:"success"`
	TraceID    string              `json:"traceId"`
	Movements  []ActivityDTO       `json:"movements"`
	Summary    []MovementTotalsDTO `json:"summary"`
	ByType     []MovementTotalsDTO `json:"byType"`
	DailyTrend []DailyTotalDTO     `json:"dailyTrend"`
}

func NewStockMovementResponse(traceID string, r domain.MovementReport) StockMovementResponse {
	trend := make([]DailyTotalDTO, 0, len(r.DailyTrend))
	for _, d := range r.DailyTrend {
		trend = append(trend, DailyTotalDTO{
			Date:            d.Date,
			TransactionType: wireType(d.TransactionType),
			TotalQuantity:   d.TotalQuantity,
		})
	}
	return StockMovementResponse{
		Success:    true,
		TraceID:    traceID,
		Movements:  NewActivityDTOs(r.Movements),
		Summary:    newMovementTotalsDTOs(r.Summary),
		ByType:     newMovementTotalsDTOs(r.ByType),
		DailyTrend: trend,
	}
}

func newMovementTotalsDTOs(totals []domain.MovementTotals) []MovementTotalsDTO {
	out := make([]MovementTotalsDTO, 0, len(totals))
	for _, t := range totals {
		out = append(out, MovementTotalsDTO{
			Type:             t.ProductType,
			TransactionType:  wireType(t.TransactionType),
			TransactionCount: t.TransactionCount,
			TotalQuantity:    t.TotalQuantity,
			TotalValue:       t.TotalValue,
		})
	}
	return out
}

type LowStockItemDTO struct {
	ProductDTO
	SuggestedOrderQty int        `json:"suggested_order_qty"`
	LastRestockDate   *time.Time `json:"last_restock_date"`
	OutLast30Days     int        `json:"out_last_30_days"`
}

type TypeTotalsDTO struct {
	Type          string          `json:"type"`
	ProductCount  int             `json:"product_count"`
	TotalQuantity int             `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
}

type LowStockResponse struct {
	Success            bool              `json:"success"`
	TraceID            string            `json:"traceId"`
	Threshold          int               `json:"threshold"`
	Items              []LowStockItemDTO `json:"items"`
	SummaryByType      []TypeTotalsDTO   `json:"summaryByType"`
	TotalLowStockItems int               `json:"totalLowStockItems"`
}

func NewLowStockResponse(traceID string, r domain.LowStockReport) LowStockResponse {
	items := make([]LowStockItemDTO, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, LowStockItemDTO{
			ProductDTO:        NewProductDTO(item.Product),
			SuggestedOrderQty: item.SuggestedOrderQuantity(),
			LastRestockDate:   item.LastRestock,
			OutLast30Days:     item.OutLast30Days,
		})
	}
	byType := make([]TypeTotalsDTO, 0, len(r.SummaryByType))
	for _, a := range r.SummaryByType {
		byType = append(byType, TypeTotalsDTO{
			Type:          a.Type,
			ProductCount:  a.ProductCount,
			TotalQuantity: a.TotalQuantity,
			TotalValue:    a.TotalValue,
		})
	}
	return LowStockResponse{
		Success:            true,
		TraceID:            traceID,
		Threshold:          r.Threshold,
		Items:              items,
		SummaryByType:      byType,
		TotalLowStockItems: len(items),
	}
}

type SalesRowDTO struct {
	ProductDTO
	TotalSold        int             `json:"total_sold"`
	TotalSalesValue  decimal.Decimal `json:"total_sales_value"`
	TransactionCount int             `json:"transaction_count"`
}

type SlowMoverDTO struct {
	ProductDTO
	TotalSold       int `json:"total_sold"`
	DaysInInventory int `json:"days_in_inventory"`
}

type MonthlySalesDTO struct {
	Month          string          `json:"month"`
	TotalQuantity  int             `json:"total_quantity"`
	TotalValue     decimal.Decimal `json:"total_value"`
	UniqueProducts int             `json:"unique_products"`
}

type CategorySalesDTO struct {
	Type         string          `json:"type"`
	Brand        *string         `json:"brand,omitempty"`
	ProductCount int             `json:"product_count"`
	TotalSold    int             `json:"total_sold"`
	TotalValue   decimal.Decimal `json:"total_value"`
}

type SalesAnalysisResponse struct {
	Success             bool               `json:"success"`
	TraceID             string             `json:"traceId"`
	TopSelling          []SalesRowDTO      `json:"topSelling"`
	SlowMoving          []SlowMoverDTO     `json:"slowMoving"`
	MonthlySales        []MonthlySalesDTO  `json:"monthlySales"`
	SalesByType         []CategorySalesDTO `json:"salesByType"`
	TopBrandsByCategory []CategorySalesDTO `json:"topBrandsByCategory"`
}

func NewSalesAnalysisResponse(traceID string, a domain.SalesAnalysis) SalesAnalysisResponse {
	resp := SalesAnalysisResponse{
		Success:             true,
		TraceID:             traceID,
		TopSelling:          make([]SalesRowDTO, 0, len(a.TopSelling)),
		SlowMoving:          make([]SlowMoverDTO, 0, len(a.SlowMoving)),
		MonthlySales:        make([]MonthlySalesDTO, 0, len(a.MonthlySales)),
		SalesByType:         newCategorySalesDTOs(a.SalesByType),
		TopBrandsByCategory: newCategorySalesDTOs(a.TopBrands),
	}
	for _, s := range a.TopSelling {
		resp.TopSelling = append(resp.TopSelling, SalesRowDTO{
			ProductDTO:       NewProductDTO(s.Product),
			TotalSold:        s.TotalSold,
			TotalSalesValue:  s.TotalSalesValue,
			TransactionCount: s.TransactionCount,
		})
	}
	for _, s := range a.SlowMoving {
		resp.SlowMoving = append(resp.SlowMoving, SlowMoverDTO{
			ProductDTO:      NewProductDTO(s.Product),
			TotalSold:       s.TotalSold,
			DaysInInventory: s.DaysInInventory,
		})
	}
	for _, m := range a.MonthlySales {
		resp.MonthlySales = append(resp.MonthlySales, MonthlySalesDTO(m))
	}
	return resp
}

func newCategorySalesDTOs(sales []domain.CategorySales) []CategorySalesDTO {
	out := make([]CategorySalesDTO, 0, len(sales))
	for _, c := range sales {
		out = append(out, CategorySalesDTO(c))
	}
	return out
}

type TypeValuationDTO struct {
	Type          string          `json:"type"`
	ProductCount  int             `json:"product_count"`
	TotalQuantity int             `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
	AvgPrice      decimal.Decimal `json:"avg_price"`
	MinValue      decimal.Decimal `json:"min_value"`
	MaxValue      decimal.Decimal `json:"max_value"`
}

type NetChangeDTO struct {
	Type              string          `json:"type"`
	NetChangeQuantity int             `json:"net_change_quantity"`
	NetChangeValue    decimal.Decimal `json:"net_change_value"`
}

type CurrentValuationDTO struct {
	ByType  []TypeValuationDTO `json:"byType"`
	Overall CatalogTotalsDTO   `json:"overall"`
}

type ValuationResponse struct {
	Success          bool                `json:"success"`
	TraceID          string              `json:"traceId"`
	Current          CurrentValuationDTO `json:"current"`
	MonthlyChange    []NetChangeDTO      `json:"monthlyChange"`
	TopValueProducts []ProductDTO        `json:"topValueProducts"`
}

func NewValuationResponse(traceID string, v domain.Valuation) ValuationResponse {
	byType := make([]TypeValuationDTO, 0, len(v.ByType))
	for _, a := range v.ByType {
		byType = append(byType, TypeValuationDTO{
			Type:          a.Type,
			ProductCount:  a.ProductCount,
			TotalQuantity: a.TotalQuantity,
			TotalValue:    a.TotalValue,
			AvgPrice:      a.AvgPrice.Round(2),
			MinValue:      a.MinValue,
			MaxValue:      a.MaxValue,
		})
	}
	changes := make([]NetChangeDTO, 0, len(v.MonthlyChange))
	for _, c := range v.MonthlyChange {
		changes = append(changes, NetChangeDTO{
			Type:              c.Type,
			NetChangeQuantity: c.QuantityDelta,
			NetChangeValue:    c.ValueDelta,
		})
	}
	return ValuationResponse{
		Success: true,
		TraceID: traceID,
		Current: CurrentValuationDTO{
			ByType:  byType,
			Overall: newCatalogTotalsDTO(v.Overall),
		},
		MonthlyChange:    changes,
		TopValueProducts: NewProductDTOs(v.TopValue),
	}
}

type FiltersResponse struct {
	Success bool     `json:"success"`
	TraceID string   `json:"traceId"`
	Types   []string `json:"types"`
	Brands  []string `json:"brands"`
}

func NewFiltersResponse(traceID string, f domain.ReportFilters) FiltersResponse {
	resp := FiltersResponse{Success: true, TraceID: traceID, Types: f.Types, Brands: f.Brands}
	if resp.Types == nil {
		resp.Types = []string{}
	}
	if resp.Brands == nil {
		resp.Brands = []string{}
	}
	return resp
}
