package dto

import (
	"bytes"
	"encoding/json"
)

type StockMovementRequest struct {
	ProductID       int     `json:"product_id"`
	Quantity        int     `json:"quantity"`
	ReferenceNumber *string `json:"reference_number"`
	Notes           *string `json:"notes"`
	CreatedBy       *string `json:"created_by"`
}

type BulkOperationRequest struct {
	ProductID       int     `json:"product_id"`
	Type            string  `json:"type"`
	Quantity        int     `json:"quantity"`
	ReferenceNumber *string `json:"reference_number"`
	Notes           *string `json:"notes"`
}

// Operations decodes either a single operation object or an array of them.
type Operations []BulkOperationRequest

func (o *Operations) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*o = nil
		return nil
	}

	if trimmed[0] == '{' {
		var single BulkOperationRequest
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return err
		}
		*o = Operations{single}
		return nil
	}

	var many []BulkOperationRequest
	if err := json.Unmarshal(trimmed, &many); err != nil {
		return err
	}
	*o = many
	return nil
}

type BulkRequest struct {
	Operations Operations `json:"operations"`
	CreatedBy  *string    `json:"created_by"`
}

// ToBulkOperations converts the decoded request to ledger input.
func (r BulkRequest) ToBulkOperations() []BulkOperation {
	ops := make([]BulkOperation, len(r.Operations))
	for i, op := range r.Operations {
		ops[i] = BulkOperation{
			ProductID:       op.ProductID,
			Type:            op.Type,
			Quantity:        op.Quantity,
			ReferenceNumber: op.ReferenceNumber,
			Notes:           op.Notes,
		}
	}
	return ops
}
