package controller

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"stockroom/internal/auth/token"
	"stockroom/internal/domain"
	"stockroom/internal/dto"
	apperrors "stockroom/internal/errors"
	"stockroom/internal/httpx"
)

type StockUseCase interface {
	StockIn(ctx context.Context, in dto.MovementInput) (*dto.MovementResult, error)
	StockOut(ctx context.Context, in dto.MovementInput) (*dto.MovementResult, error)
	Bulk(ctx context.Context, ops []dto.BulkOperation, actor *string) (*dto.BulkResult, error)
	DeleteTransaction(ctx context.Context, id int64) (*dto.Reversal, error)
	ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.TransactionView, error)
	Summary(ctx context.Context, productID int) (*domain.ProductSummary, error)
}

type StockController struct {
	useCase StockUseCase
	logger  *zap.Logger
}

func NewStockController(useCase StockUseCase, logger *zap.Logger) *StockController {
	return &StockController{
		useCase: useCase,
		logger:  logger,
	}
}

// Routes mounts the ledger endpoints under the caller's prefix.
func (c *StockController) Routes(r chi.Router) {
	r.Get("/transactions", c.ListTransactions)
	r.Get("/summary/{productId}", c.Summary)
	r.Post("/in", c.StockIn)
	r.Post("/out", c.StockOut)
	r.Post("/bulk", c.Bulk)
	r.Delete("/transaction/{id}", c.DeleteTransaction)
}

func (c *StockController) StockIn(w http.ResponseWriter, r *http.Request) {
	c.movement(w, r, c.useCase.StockIn)
}

func (c *StockController) StockOut(w http.ResponseWriter, r *http.Request) {
	c.movement(w, r, c.useCase.StockOut)
}

func (c *StockController) movement(
	w http.ResponseWriter,
	r *http.Request,
	record func(context.Context, dto.MovementInput) (*dto.MovementResult, error),
) {
	traceID, logger := httpx.Trace(r, c.logger)

	var req dto.StockMovementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	if err := validateMovementRequest(req); err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	result, err := record(r.Context(), dto.MovementInput{
		ProductID:       req.ProductID,
		Quantity:        req.Quantity,
		ReferenceNumber: blankToNil(req.ReferenceNumber),
		Notes:           blankToNil(req.Notes),
		Actor:           token.ActorOr(r.Context(), req.CreatedBy),
	})
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.NewMovementResponse(traceID, *result), logger)
}

func (c *StockController) Bulk(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpx.Trace(r, c.logger)

	var req dto.BulkRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	ops := req.ToBulkOperations()
	for i := range ops {
		ops[i].ReferenceNumber = blankToNil(ops[i].ReferenceNumber)
		ops[i].Notes = blankToNil(ops[i].Notes)
	}

	result, err := c.useCase.Bulk(r.Context(), ops, token.ActorOr(r.Context(), req.CreatedBy))
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.NewBulkResponse(traceID, *result), logger)
}

func (c *StockController) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpx.Trace(r, c.logger)

	id, err := httpx.PathInt(r, "id")
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	reversal, err := c.useCase.DeleteTransaction(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.NewReversalResponse(traceID, *reversal), logger)
}

func (c *StockController) ListTransactions(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpx.Trace(r, c.logger)

	filter, err := parseFilter(r)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	views, err := c.useCase.ListTransactions(r.Context(), filter)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.NewTransactionsResponse(traceID, views), logger)
}

func (c *StockController) Summary(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpx.Trace(r, c.logger)

	id, err := httpx.PathInt(r, "productId")
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	summary, err := c.useCase.Summary(r.Context(), int(id))
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.NewSummaryResponse(traceID, *summary), logger)
}

func validateMovementRequest(req dto.StockMovementRequest) error {
	var details []apperrors.ValidationDetail

	if req.ProductID <= 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "product_id",
			Message: "product_id must be a positive integer",
		})
	}

	if req.Quantity <= 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "quantity",
			Message: "quantity must be greater than 0",
		})
	} else if req.Quantity > domain.MaxQuantity {
		details = append(details, apperrors.ValidationDetail{
			Field:   "quantity",
			Message: fmt.Sprintf("quantity must be at most %d", domain.MaxQuantity),
		})
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("Product ID and valid quantity are required", details...)
	}
	return nil
}

func parseFilter(r *http.Request) (domain.TransactionFilter, error) {
	q := r.URL.Query()
	filter := domain.TransactionFilter{Limit: httpx.QueryInt(r, "limit", 0)}

	if raw := q.Get("product_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			return filter, apperrors.NewValidationError("invalid product_id", apperrors.ValidationDetail{
				Field:   "product_id",
				Message: "product_id must be a positive integer",
			})
		}
		filter.ProductID = &id
	}

	if raw := q.Get("type"); raw != "" {
		t, ok := domain.ParseTransactionType(raw)
		if !ok {
			return filter, apperrors.NewValidationError("Invalid transaction type", apperrors.ValidationDetail{
				Field:   "type",
				Message: "type must be \"in\" or \"out\"",
			})
		}
		filter.Type = &t
	}

	return filter, nil
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
