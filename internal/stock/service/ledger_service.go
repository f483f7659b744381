package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"stockroom/internal/config"
	"stockroom/internal/domain"
	"stockroom/internal/domain/repository"
	"stockroom/internal/dto"
	apperrors "stockroom/internal/errors"
)

const (
	OperationStockIn  = "stock_in"
	OperationStockOut = "stock_out"
	OperationBulk     = "bulk"
	OperationDelete   = "delete_transaction"

	DefaultListLimit = 100
	MaxListLimit     = 1000
)

type TransactionReader interface {
	List(ctx context.Context, filter domain.TransactionFilter) ([]domain.TransactionView, error)
	Summary(ctx context.Context, productID int) (*domain.ProductSummary, error)
}

type Recorder interface {
	ObserveLedger(operation, outcome string, start time.Time)
	AddQuantity(txType string, quantity int)
}

// ReadModelInvalidator drops cached aggregates after a committed write.
type ReadModelInvalidator interface {
	Invalidate(ctx context.Context) error
}

// LedgerService is the only writer of product quantities. Every mutation
// appends or removes ledger rows and updates the product row in the same
// unit of work.
type LedgerService struct {
	uow         repository.UnitOfWork
	reader      TransactionReader
	recorder    Recorder
	invalidator ReadModelInvalidator
	logger      *zap.Logger
	txTimeout   time.Duration
	maxBulkOps  int
}

func NewLedgerService(
	uow repository.UnitOfWork,
	reader TransactionReader,
	recorder Recorder,
	invalidator ReadModelInvalidator,
	cfg config.LedgerConfig,
	logger *zap.Logger,
) *LedgerService {
	return &LedgerService{
		uow:         uow,
		reader:      reader,
		recorder:    recorder,
		invalidator: invalidator,
		logger:      logger,
		txTimeout:   cfg.TxTimeout,
		maxBulkOps:  cfg.MaxBulkOps,
	}
}

func (s *LedgerService) RecordIn(ctx context.Context, in dto.MovementInput) (*dto.MovementResult, error) {
	return s.record(ctx, domain.TransactionIn, in)
}

func (s *LedgerService) RecordOut(ctx context.Context, in dto.MovementInput) (*dto.MovementResult, error) {
	return s.record(ctx, domain.TransactionOut, in)
}

func (s *LedgerService) record(ctx context.Context, txType domain.TransactionType, in dto.MovementInput) (*dto.MovementResult, error) {
	if err := validateMovement(in); err != nil {
		return nil, err
	}

	op := OperationStockIn
	if txType == domain.TransactionOut {
		op = OperationStockOut
	}

	start := time.Now()
	txCtx, cancel := s.unitOfWorkContext(ctx)
	defer cancel()

	var result *dto.MovementResult
	err := s.uow.Run(txCtx, func(products repository.ProductRepository, transactions repository.StockTransactionRepository) error {
		product, err := products.FindByIDForUpdate(txCtx, in.ProductID)
		if err != nil {
			return err
		}

		newQuantity, err := product.Apply(txType, in.Quantity)
		if err != nil {
			return err
		}

		if err := products.UpdateQuantity(txCtx, product.ID, newQuantity); err != nil {
			return err
		}

		id, err := transactions.Insert(txCtx, domain.StockTransaction{
			ProductID:       product.ID,
			Type:            txType,
			Quantity:        in.Quantity,
			ReferenceNumber: in.ReferenceNumber,
			Notes:           in.Notes,
			CreatedBy:       in.Actor,
		})
		if err != nil {
			return err
		}

		result = &dto.MovementResult{
			TransactionID:    id,
			ProductID:        product.ID,
			ProductName:      product.Name,
			ProductCode:      product.Code,
			Type:             txType,
			Quantity:         in.Quantity,
			PreviousQuantity: product.Quantity,
			NewQuantity:      newQuantity,
		}
		return nil
	})
	if err != nil {
		s.rollback(op, start, err, zap.Int("productId", in.ProductID), zap.Int("quantity", in.Quantity))
		return nil, err
	}

	s.recorder.AddQuantity(string(txType), in.Quantity)
	s.commit(ctx, op, start,
		zap.Int64("transactionId", result.TransactionID),
		zap.Int("productId", result.ProductID),
		zap.Int("previousQuantity", result.PreviousQuantity),
		zap.Int("newQuantity", result.NewQuantity),
	)
	return result, nil
}

type plannedOp struct {
	index   int
	product *domain.Product
	txType  domain.TransactionType
	op      dto.BulkOperation
	prev    int
	next    int
}

// RecordBulk applies every operation or none. Operations are checked in
// request order against a running per-product quantity, so an OUT sees the
// effect of earlier operations of the same batch. All failures are reported.
func (s *LedgerService) RecordBulk(ctx context.Context, ops []dto.BulkOperation, actor *string) (*dto.BulkResult, error) {
	if len(ops) == 0 {
		return nil, apperrors.NewValidationError("Operations array is required", apperrors.ValidationDetail{
			Field:   "operations",
			Message: "at least one operation is required",
		})
	}
	if s.maxBulkOps > 0 && len(ops) > s.maxBulkOps {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("At most %d operations are allowed per request", s.maxBulkOps),
			apperrors.ValidationDetail{Field: "operations", Message: fmt.Sprintf("got %d operations", len(ops))},
		)
	}

	types := make([]domain.TransactionType, len(ops))
	invalid := make([]string, len(ops))
	var productIDs []int
	seen := make(map[int]bool)
	for i, op := range ops {
		if op.ProductID <= 0 || op.Quantity <= 0 || op.Quantity > domain.MaxQuantity || strings.TrimSpace(op.Type) == "" {
			invalid[i] = "Invalid operation data"
			continue
		}
		t, ok := domain.ParseTransactionType(op.Type)
		if !ok {
			invalid[i] = "Invalid transaction type"
			continue
		}
		types[i] = t
		if !seen[op.ProductID] {
			seen[op.ProductID] = true
			productIDs = append(productIDs, op.ProductID)
		}
	}
	// lock order is ascending product id for every batch
	sort.Ints(productIDs)

	start := time.Now()
	if len(productIDs) == 0 {
		err := apperrors.NewBulkError(staticFailures(ops, invalid))
		s.rollback(OperationBulk, start, err, zap.Int("operations", len(ops)))
		return nil, err
	}

	txCtx, cancel := s.unitOfWorkContext(ctx)
	defer cancel()

	var results []dto.BulkItemResult
	err := s.uow.Run(txCtx, func(products repository.ProductRepository, transactions repository.StockTransactionRepository) error {
		locked := make(map[int]*domain.Product, len(productIDs))
		for _, id := range productIDs {
			p, err := products.FindByIDForUpdate(txCtx, id)
			if err != nil {
				if _, ok := apperrors.IsNotFoundError(err); ok {
					continue
				}
				return err
			}
			locked[id] = p
		}

		working := make(map[int]int, len(locked))
		for id, p := range locked {
			working[id] = p.Quantity
		}

		var failures []apperrors.BulkItemError
		planned := make([]plannedOp, 0, len(ops))
		for i, op := range ops {
			if invalid[i] != "" {
				failures = append(failures, apperrors.BulkItemError{Index: i, ProductID: op.ProductID, Error: invalid[i]})
				continue
			}

			p, ok := locked[op.ProductID]
			if !ok {
				failures = append(failures, apperrors.BulkItemError{Index: i, ProductID: op.ProductID, Error: "Product not found"})
				continue
			}

			current := *p
			current.Quantity = working[p.ID]
			next, err := current.Apply(types[i], op.Quantity)
			if err != nil {
				failures = append(failures, apperrors.BulkItemError{
					Index:       i,
					ProductID:   op.ProductID,
					ProductName: p.Name,
					Error:       err.Error(),
				})
				continue
			}

			working[p.ID] = next
			planned = append(planned, plannedOp{index: i, product: p, txType: types[i], op: op, prev: current.Quantity, next: next})
		}

		if len(failures) > 0 {
			return apperrors.NewBulkError(failures)
		}

		results = make([]dto.BulkItemResult, 0, len(planned))
		for _, pl := range planned {
			id, err := transactions.Insert(txCtx, domain.StockTransaction{
				ProductID:       pl.product.ID,
				Type:            pl.txType,
				Quantity:        pl.op.Quantity,
				ReferenceNumber: pl.op.ReferenceNumber,
				Notes:           pl.op.Notes,
				CreatedBy:       actor,
			})
			if err != nil {
				return err
			}
			results = append(results, dto.BulkItemResult{
				Index:            pl.index,
				TransactionID:    id,
				ProductID:        pl.product.ID,
				ProductName:      pl.product.Name,
				Type:             pl.txType,
				Quantity:         pl.op.Quantity,
				PreviousQuantity: pl.prev,
				NewQuantity:      pl.next,
			})
		}

		for _, id := range productIDs {
			if err := products.UpdateQuantity(txCtx, id, working[id]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.rollback(OperationBulk, start, err, zap.Int("operations", len(ops)))
		return nil, err
	}

	for _, r := range results {
		s.recorder.AddQuantity(string(r.Type), r.Quantity)
	}
	s.commit(ctx, OperationBulk, start, zap.Int("operations", len(results)), zap.Ints("productIds", productIDs))
	return &dto.BulkResult{Results: results, Total: len(ops)}, nil
}

func staticFailures(ops []dto.BulkOperation, invalid []string) []apperrors.BulkItemError {
	failures := make([]apperrors.BulkItemError, 0, len(ops))
	for i, op := range ops {
		failures = append(failures, apperrors.BulkItemError{Index: i, ProductID: op.ProductID, Error: invalid[i]})
	}
	return failures
}

// DeleteTransaction removes a ledger row and applies the inverse movement to
// its product. The result is not checked for negativity.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) (*dto.Reversal, error) {
	if id <= 0 {
		return nil, apperrors.NewValidationError("Invalid transaction id", apperrors.ValidationDetail{
			Field:   "id",
			Message: "must be a positive integer",
		})
	}

	start := time.Now()
	txCtx, cancel := s.unitOfWorkContext(ctx)
	defer cancel()

	var reversal *dto.Reversal
	err := s.uow.Run(txCtx, func(products repository.ProductRepository, transactions repository.StockTransactionRepository) error {
		entry, err := transactions.FindByID(txCtx, id)
		if err != nil {
			return err
		}

		// product row first, same order as every other ledger write
		product, err := products.FindByIDForUpdate(txCtx, entry.ProductID)
		if err != nil {
			return err
		}
		entry, err = transactions.FindByIDForUpdate(txCtx, id)
		if err != nil {
			return err
		}

		newQuantity := product.Quantity - entry.Type.Signed(entry.Quantity)
		if newQuantity < 0 {
			s.logger.Warn("reversal drives quantity negative",
				zap.Int64("transactionId", id),
				zap.Int("productId", product.ID),
				zap.Int("previousQuantity", product.Quantity),
				zap.Int("newQuantity", newQuantity),
			)
		}

		if err := products.UpdateQuantity(txCtx, product.ID, newQuantity); err != nil {
			return err
		}
		if err := transactions.Delete(txCtx, id); err != nil {
			return err
		}

		reversal = &dto.Reversal{
			TransactionID:    id,
			ProductID:        product.ID,
			Type:             entry.Type,
			Quantity:         entry.Quantity,
			PreviousQuantity: product.Quantity,
			NewQuantity:      newQuantity,
		}
		return nil
	})
	if err != nil {
		s.rollback(OperationDelete, start, err, zap.Int64("transactionId", id))
		return nil, err
	}

	s.commit(ctx, OperationDelete, start,
		zap.Int64("transactionId", id),
		zap.Int("productId", reversal.ProductID),
		zap.Int("newQuantity", reversal.NewQuantity),
	)
	return reversal, nil
}

func (s *LedgerService) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.TransactionView, error) {
	switch {
	case filter.Limit <= 0:
		filter.Limit = DefaultListLimit
	case filter.Limit > MaxListLimit:
		filter.Limit = MaxListLimit
	}
	return s.reader.List(ctx, filter)
}

func (s *LedgerService) Summary(ctx context.Context, productID int) (*domain.ProductSummary, error) {
	if productID <= 0 {
		return nil, apperrors.NewValidationError("Invalid product id", apperrors.ValidationDetail{
			Field:   "productId",
			Message: "must be a positive integer",
		})
	}
	return s.reader.Summary(ctx, productID)
}

// unitOfWorkContext detaches the transaction from request cancellation so a
// client disconnect cannot leave it half finished. txTimeout still bounds it.
func (s *LedgerService) unitOfWorkContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if s.txTimeout <= 0 {
		return context.WithCancel(detached)
	}
	return context.WithTimeout(detached, s.txTimeout)
}

func (s *LedgerService) commit(ctx context.Context, op string, start time.Time, fields ...zap.Field) {
	s.recorder.ObserveLedger(op, "committed", start)
	s.logger.Info("ledger transaction committed", append([]zap.Field{zap.String("operation", op)}, fields...)...)

	if err := s.invalidator.Invalidate(context.WithoutCancel(ctx)); err != nil {
		s.logger.Warn("failed to invalidate read models", zap.String("operation", op), zap.Error(err))
	}
}

func (s *LedgerService) rollback(op string, start time.Time, err error, fields ...zap.Field) {
	fields = append([]zap.Field{zap.String("operation", op), zap.Error(err)}, fields...)
	if isRejection(err) {
		s.recorder.ObserveLedger(op, "rejected", start)
		s.logger.Warn("ledger transaction rejected", fields...)
		return
	}
	s.recorder.ObserveLedger(op, "failed", start)
	s.logger.Error("ledger transaction rolled back", fields...)
}

func isRejection(err error) bool {
	if _, ok := apperrors.IsValidationError(err); ok {
		return true
	}
	if _, ok := apperrors.IsNotFoundError(err); ok {
		return true
	}
	if _, ok := apperrors.IsInsufficientStockError(err); ok {
		return true
	}
	if _, ok := apperrors.IsBulkError(err); ok {
		return true
	}
	return false
}

func validateMovement(in dto.MovementInput) error {
	var details []apperrors.ValidationDetail
	if in.ProductID <= 0 {
		details = append(details, apperrors.ValidationDetail{Field: "product_id", Message: "product_id is required"})
	}
	if in.Quantity <= 0 {
		details = append(details, apperrors.ValidationDetail{Field: "quantity", Message: "quantity must be greater than 0"})
	} else if in.Quantity > domain.MaxQuantity {
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
