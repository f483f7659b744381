package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"stockroom/internal/domain"
)

// ProductRequest is the body of POST and PUT /products. Price accepts a JSON
// number or a numeric string.
type ProductRequest struct {
	Code      string           `json:"code"`
	Name      string           `json:"name"`
	Type      string           `json:"type"`
	Brand     *string          `json:"brand"`
	Price     *decimal.Decimal `json:"price"`
	Quantity  *int             `json:"quantity"`
	Image     *string          `json:"image"`
	CreatedBy *string          `json:"created_by"`
}

type SearchProductsRequest struct {
	ProductIDs []int `json:"productIds"`
}

type ProductDTO struct {
	ID         int             `json:"id"`
	Code       string          `json:"code"`
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	Brand      *string         `json:"brand"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
	StockValue decimal.Decimal `json:"stock_value"`
	Image      *string         `json:"image"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func NewProductDTO(p domain.Product) ProductDTO {
	return ProductDTO{
		ID:         p.ID,
		Code:       p.Code,
		Name:       p.Name,
		Type:       p.Type,
		Brand:      p.Brand,
		Price:      p.Price,
		Quantity:   p.Quantity,
		StockValue: p.StockValue(),
		Image:      p.Image,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func NewProductDTOs(products []domain.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		out = append(out, NewProductDTO(p))
	}
	return out
}

type ProductsResponse struct {
	Success  bool         `json:"success"`
	TraceID  string       `json:"traceId"`
	Products []ProductDTO `json:"products"`
}

type ProductResponse struct {
	Success bool       `json:"success"`
	TraceID string     `json:"traceId"`
	Product ProductDTO `json:"product"`
}

type ProductCreatedResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	TraceID   string `json:"traceId"`
	ProductID int    `json:"productId"`
}

type SearchProductsResponse struct {
	Success  bool         `json:"success"`
	TraceID  string       `json:"traceId"`
	Products []ProductDTO `json:"products"`
	NotFound []int        `json:"notFound"`
}

// MessageResponse acknowledges a write that returns no resource.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	TraceID string `json:"traceId"`
}
