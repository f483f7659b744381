package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	apperrors "stockroom/internal/errors"
)

// Storage bounds of the products table: quantity is a signed INT and price
// a DECIMAL(12,2).
const (
	MaxQuantity   = math.MaxInt32
	PriceDecimals = 2
)

var MaxPrice = decimal.RequireFromString("9999999999.99")

type Product struct {
	ID        int
	Code      string
	Name      string
	Type      string
	Brand     *string
	Price     decimal.Decimal
	Quantity  int
	Image     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Apply returns the quantity on hand after a movement of the given type.
// The product itself is not modified.
func (p Product) Apply(txType TransactionType, quantity int) (int, error) {
	switch txType {
	case TransactionIn:
		if quantity > MaxQuantity-p.Quantity {
			return p.Quantity, apperrors.NewValidationError(
				fmt.Sprintf("Quantity would exceed the maximum stock of %d", MaxQuantity),
				apperrors.ValidationDetail{
					Field:   "quantity",
					Message: fmt.Sprintf("at most %d can be added to the current %d", MaxQuantity-p.Quantity, p.Quantity),
				},
			)
		}
		return p.Quantity + quantity, nil
	case TransactionOut:
		if quantity > p.Quantity {
			return p.Quantity, apperrors.NewInsufficientStockError(p.ID, p.Quantity, quantity)
		}
		return p.Quantity - quantity, nil
	}
	return p.Quantity, apperrors.NewValidationError("Invalid transaction type", apperrors.ValidationDetail{
		Field:   "type",
		Message: "type must be \"in\" or \"out\"",
	})
}

// ValidPrice reports whether price is non-negative, fits the price column
// and has no more than two decimal places.
func ValidPrice(price decimal.Decimal) bool {
	return !price.IsNegative() &&
		price.LessThanOrEqual(MaxPrice) &&
		price.Equal(price.Truncate(PriceDecimals))
}

// StockValue is price times quantity on hand.
func (p Product) StockValue() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(p.Quantity)))
}

func (p Product) IsLowStock(threshold int) bool {
	return p.Quantity < threshold
}
