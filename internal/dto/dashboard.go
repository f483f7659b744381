package dto

import (
	"github.com/shopspring/decimal"

	"stockroom/internal/domain"
)

// ActivityDTO is a ledger entry as the dashboard and reports list it, with
// the product details and the movement priced at the current unit price.
type ActivityDTO struct {
	TransactionDTO
	ProductType      string          `json:"product_type"`
	ProductPrice     decimal.Decimal `json:"product_price"`
	ProductImage     *string         `json:"product_image"`
	TransactionValue decimal.Decimal `json:"transaction_value"`
}

func NewActivityDTOs(movements []domain.MovementView) []ActivityDTO {
	out := make([]ActivityDTO, 0, len(movements))
	for _, m := range movements {
		out = append(out, ActivityDTO{
			TransactionDTO:   newTransactionDTO(m.TransactionView),
			ProductType:      m.ProductType,
			ProductPrice:     m.ProductPrice,
			ProductImage:     m.ProductImage,
			TransactionValue: m.Value(),
		})
	}
	return out
}

type StatsDTO struct {
	TotalStockValue decimal.Decimal `json:"totalStockValue"`
	TotalProducts   int             `json:"totalProducts"`
	LowStockCount   int             `json:"lowStockCount"`
	LowStockItems   []ProductDTO    `json:"lowStockItems"`
}

type StatsResponse struct {
	Success bool     `json:"success"`
	TraceID string   `json:"traceId"`
	Stats   StatsDTO `json:"stats"`
}

func NewStatsResponse(traceID string, s domain.DashboardStats) StatsResponse {
	return StatsResponse{
		Success: true,
		TraceID: traceID,
		Stats: StatsDTO{
			TotalStockValue: s.TotalStockValue,
			TotalProducts:   s.TotalProducts,
			LowStockCount:   s.LowStockCount,
			LowStockItems:   NewProductDTOs(s.LowStockItems),
		},
	}
}

type RecentMovementsResponse struct {
	Success   bool          `json:"success"`
	TraceID   string        `json:"traceId"`
	Movements []ActivityDTO `json:"movements"`
}

type TopSellerDTO struct {
	ProductDTO
	TotalSold int `json:"total_sold"`
}

type TopSellingResponse struct {
	Success    bool           `json:"success"`
	TraceID    string         `json:"traceId"`
	TopSelling []TopSellerDTO `json:"topSelling"`
}

func NewTopSellingResponse(traceID string, sellers []domain.TopSeller) TopSellingResponse {
	out := make([]TopSellerDTO, 0, len(sellers))
	for _, s := range sellers {
		out = append(out, TopSellerDTO{ProductDTO: NewProductDTO(s.Product), TotalSold: s.TotalSold})
	}
	return TopSellingResponse{Success: true, TraceID: traceID, TopSelling: out}
}

type MonthlySeriesDTO struct {
	Months   []string `json:"months"`
	StockIn  []int    `json:"stockIn"`
	StockOut []int    `json:"stockOut"`
}

type MonthlyMovementsResponse struct {
	Success bool             `json:"success"`
	TraceID string           `json:"traceId"`
	Data    MonthlySeriesDTO `json:"data"`
}

func NewMonthlyMovementsResponse(traceID string, s domain.MonthlySeries) MonthlyMovementsResponse {
	return MonthlyMovementsResponse{
		Success: true,
		TraceID: traceID,
		Data: MonthlySeriesDTO{
			Months:   s.Months,
			StockIn:  s.StockIn,
			StockOut: s.StockOut,
		},
	}
}
