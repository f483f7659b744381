package dto

import "stockroom/internal/domain"

// MovementInput is a single stock-in or stock-out request after decoding.
type MovementInput struct {
	ProductID       int
	Quantity        int
	ReferenceNumber *string
	Notes           *string
	Actor           *string
}

type MovementResult struct {
	TransactionID    int64
	ProductID        int
	ProductName      string
	ProductCode      string
	Type             domain.TransactionType
	Quantity         int
	PreviousQuantity int
	NewQuantity      int
}

// BulkOperation keeps the raw type string so an unknown type is reported
// per operation instead of failing the decode.
type BulkOperation struct {
	ProductID       int
	Type            string
	Quantity        int
	ReferenceNumber *string
	Notes           *string
}

type BulkItemResult struct {
	Index            int
	TransactionID    int64
	ProductID        int
	ProductName      string
	Type             domain.TransactionType
	Quantity         int
	PreviousQuantity int
	NewQuantity      int
}

type BulkResult struct {
	Results []BulkItemResult
	Total   int
}

// Reversal describes the compensation applied when a transaction is deleted.
type Reversal struct {
	TransactionID    int64
	ProductID        int
	Type             domain.TransactionType
	Quantity         int
	PreviousQuantity int
	NewQuantity      int
}
