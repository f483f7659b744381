package domain

import (
	"strings"
	"time"
)

type TransactionType string

const (
	TransactionIn  TransactionType = "IN"
	TransactionOut TransactionType = "OUT"
)

// ParseTransactionType accepts "in"/"out" in any case.
func ParseTransactionType(s string) (TransactionType, bool) {
	switch TransactionType(strings.ToUpper(strings.TrimSpace(s))) {
	case TransactionIn:
		return TransactionIn, true
	case TransactionOut:
		return TransactionOut, true
	}
	return "", false
}

// Inverse is the movement type that compensates this one.
func (t TransactionType) Inverse() TransactionType {
	if t == TransactionIn {
		return TransactionOut
	}
	return TransactionIn
}

// Signed returns quantity with the sign this type contributes to quantity on hand.
func (t TransactionType) Signed(quantity int) int {
	if t == TransactionOut {
		return -quantity
	}
	return quantity
}

// StockTransaction is an immutable ledger entry. It is only ever inserted or deleted.
type StockTransaction struct {
	ID              int64
	ProductID       int
	Type            TransactionType
	Quantity        int
	ReferenceNumber *string
	Notes           *string
	CreatedBy       *string
	CreatedAt       time.Time
}

type TransactionFilter struct {
	ProductID *int
	Type      *TransactionType
	Limit     int
}

// ProductSummary is the per-product rollup of the ledger.
type ProductSummary struct {
	ProductID         int
	Name              string
	Code              string
	Brand             *string
	CurrentQuantity   int
	TotalStockIn      int
	TotalStockOut     int
	TotalTransactions int
}

// Net is the quantity the ledger history accounts for.
func (s ProductSummary) Net() int {
	return s.TotalStockIn - s.TotalStockOut
}

// TransactionView is a ledger entry joined with the product it references.
type TransactionView struct {
	StockTransaction
	ProductName  string
	ProductCode  string
	ProductBrand *string
}
