package dto

import (
	"fmt"
	"strings"
	"time"

	"stockroom/internal/domain"
)

type MovementDTO struct {
	ID               int64  `json:"id"`
	ProductName      string `json:"product_name"`
	ProductCode      string `json:"product_code"`
	PreviousQuantity int    `json:"previous_quantity"`
	AddedQuantity    *int   `json:"added_quantity,omitempty"`
	RemovedQuantity  *int   `json:"removed_quantity,omitempty"`
	NewQuantity      int    `json:"new_quantity"`
}

type MovementResponse struct {
	Success     bool        `json:"success"`
	Message     string      `json:"message"`
	TraceID     string      `json:"traceId"`
	Transaction MovementDTO `json:"transaction"`
}

func NewMovementResponse(traceID string, r MovementResult) MovementResponse {
	qty := r.Quantity
	m := MovementDTO{
		ID:               r.TransactionID,
		ProductName:      r.ProductName,
		ProductCode:      r.ProductCode,
		PreviousQuantity: r.PreviousQuantity,
		NewQuantity:      r.NewQuantity,
	}
	message := "Stock in successful"
	if r.Type == domain.TransactionOut {
		m.RemovedQuantity = &qty
		message = "Stock out successful"
	} else {
		m.AddedQuantity = &qty
	}
	return MovementResponse{Success: true, Message: message, TraceID: traceID, Transaction: m}
}

type BulkResultDTO struct {
	Index            int    `json:"index"`
	TransactionID    int64  `json:"transaction_id"`
	ProductID        int    `json:"product_id"`
	ProductName      string `json:"product_name"`
	Type             string `json:"type"`
	Quantity         int    `json:"quantity"`
	PreviousQuantity int    `json:"previous_quantity"`
	NewQuantity      int    `json:"new_quantity"`
}

type BulkResponse struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	TraceID    string          `json:"traceId"`
	Results    []BulkResultDTO `json:"results"`
	Total      int             `json:"total"`
	Successful int             `json:"successful"`
	Failed     int             `json:"failed"`
}

func NewBulkResponse(traceID string, r BulkResult) BulkResponse {
	results := make([]BulkResultDTO, len(r.Results))
	for i, item := range r.Results {
		results[i] = BulkResultDTO{
			Index:            item.Index,
			TransactionID:    item.TransactionID,
			ProductID:        item.ProductID,
			ProductName:      item.ProductName,
			Type:             wireType(item.Type),
			Quantity:         item.Quantity,
			PreviousQuantity: item.PreviousQuantity,
			NewQuantity:      item.NewQuantity,
		}
	}
	return BulkResponse{
		Success:    true,
		Message:    fmt.Sprintf("%d operation(s) completed successfully", len(results)),
		TraceID:    traceID,
		Results:    results,
		Total:      r.Total,
		Successful: len(results),
		Failed:     0,
	}
}

type ReversalDTO struct {
	TransactionID    int64  `json:"transaction_id"`
	ProductID        int    `json:"product_id"`
	Type             string `json:"type"`
	Quantity         int    `json:"quantity"`
	PreviousQuantity int    `json:"previous_quantity"`
	NewQuantity      int    `json:"new_quantity"`
}

type ReversalResponse struct {
	Success  bool        `json:"success"`
	Message  string      `json:"message"`
	TraceID  string      `json:"traceId"`
	Reversal ReversalDTO `json:"reversal"`
}

func NewReversalResponse(traceID string, r Reversal) ReversalResponse {
	return ReversalResponse{
		Success: true,
		Message: "Transaction deleted and stock reverted",
		TraceID: traceID,
		Reversal: ReversalDTO{
			TransactionID:    r.TransactionID,
			ProductID:        r.ProductID,
			Type:             wireType(r.Type),
			Quantity:         r.Quantity,
			PreviousQuantity: r.PreviousQuantity,
			NewQuantity:      r.NewQuantity,
		},
	}
}

type TransactionDTO struct {
	ID              int64     `json:"id"`
	ProductID       int       `json:"product_id"`
	TransactionType string    `json:"transaction_type"`
	Quantity        int       `json:"quantity"`
	ReferenceNumber *string   `json:"reference_number"`
	Notes           *string   `json:"notes"`
	CreatedBy       *string   `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
	ProductName     string    `json:"product_name"`
	ProductCode     string    `json:"product_code"`
	ProductBrand    *string   `json:"product_brand"`
}

type TransactionsResponse struct {
	Success      bool             `json:"success"`
	TraceID      string           `json:"traceId"`
	Transactions []TransactionDTO `json:"transactions"`
}

func NewTransactionsResponse(traceID string, views []domain.TransactionView) TransactionsResponse {
	out := make([]TransactionDTO, len(views))
	for i, v := range views {
		out[i] = newTransactionDTO(v)
	}
	return TransactionsResponse{Success: true, TraceID: traceID, Transactions: out}
}

func newTransactionDTO(v domain.TransactionView) TransactionDTO {
	return TransactionDTO{
		ID:              v.ID,
		ProductID:       v.ProductID,
		TransactionType: wireType(v.Type),
		Quantity:        v.Quantity,
		ReferenceNumber: v.ReferenceNumber,
		Notes:           v.Notes,
		CreatedBy:       v.CreatedBy,
		CreatedAt:       v.CreatedAt,
		ProductName:     v.ProductName,
		ProductCode:     v.ProductCode,
		ProductBrand:    v.ProductBrand,
	}
}

type SummaryDTO struct {
	ID                int     `json:"id"`
	Name              string  `json:"name"`
	Code              string  `json:"code"`
	Brand             *string `json:"brand"`
	CurrentQuantity   int     `json:"current_quantity"`
	TotalStockIn      int     `json:"total_stock_in"`
	TotalStockOut     int     `json:"total_stock_out"`
	TotalTransactions int     `json:"total_transactions"`
}

type SummaryResponse struct {
	Success bool       `json:"success"`
	TraceID string     `json:"traceId"`
	Summary SummaryDTO `json:"summary"`
}

func NewSummaryResponse(traceID string, s domain.ProductSummary) SummaryResponse {
	return SummaryResponse{
		Success: true,
		TraceID: traceID,
		Summary: SummaryDTO{
			ID:                s.ProductID,
			Name:              s.Name,
			Code:              s.Code,
			Brand:             s.Brand,
			CurrentQuantity:   s.CurrentQuantity,
			TotalStockIn:      s.TotalStockIn,
			TotalStockOut:     s.TotalStockOut,
			TotalTransactions: s.TotalTransactions,
		},
	}
}

// Clients send and receive transaction types in lower case.
func wireType(t domain.TransactionType) string {
	return strings.ToLower(string(t))
}
