package usecase

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"stockroom/internal/domain"
	"stockroom/internal/dto"
	apperrors "stockroom/internal/errors"
	"stockroom/internal/infrastructure/mysql"
)

type Ledger interface {
	RecordIn(ctx context.Context, in dto.MovementInput) (*dto.MovementResult, error)
	RecordOut(ctx context.Context, in dto.MovementInput) (*dto.MovementResult, error)
	RecordBulk(ctx context.Context, ops []dto.BulkOperation, actor *string) (*dto.BulkResult, error)
	DeleteTransaction(ctx context.Context, id int64) (*dto.Reversal, error)
	ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.TransactionView, error)
	Summary(ctx context.Context, productID int) (*domain.ProductSummary, error)
}

type RetryRecorder interface {
	IncRetry()
}

// StockUseCase retries a ledger unit of work that MySQL chose as a deadlock
// victim. The server has already rolled the whole transaction back, so the
// operation is re-run from the start.
type StockUseCase struct {
	ledger           Ledger
	recorder         RetryRecorder
	logger           *zap.Logger
	maxRetryAttempts int
	backoffs         []time.Duration
	isRetryable      func(error) bool
}

func NewStockUseCase(
	ledger Ledger,
	recorder RetryRecorder,
	logger *zap.Logger,
	maxRetryAttempts int,
) *StockUseCase {
	if maxRetryAttempts < 1 {
		maxRetryAttempts = 1
	}
	return &StockUseCase{
		ledger:           ledger,
		recorder:         recorder,
		logger:           logger,
		maxRetryAttempts: maxRetryAttempts,
		backoffs:         []time.Duration{50 * time.Millisecond, 100 * time.Millisecond, 200 * time.Millisecond},
		isRetryable:      mysql.IsDeadlock,
	}
}

func (uc *StockUseCase) StockIn(ctx context.Context, in dto.MovementInput) (*dto.MovementResult, error) {
	return withRetry(ctx, uc, "stock_in", func() (*dto.MovementResult, error) {
		return uc.ledger.RecordIn(ctx, in)
	})
}

func (uc *StockUseCase) StockOut(ctx context.Context, in dto.MovementInput) (*dto.MovementResult, error) {
	return withRetry(ctx, uc, "stock_out", func() (*dto.MovementResult, error) {
		return uc.ledger.RecordOut(ctx, in)
	})
}

func (uc *StockUseCase) Bulk(ctx context.Context, ops []dto.BulkOperation, actor *string) (*dto.BulkResult, error) {
	uc.logger.Info("bulk stock operation started", zap.Int("operations", len(ops)))
	return withRetry(ctx, uc, "bulk", func() (*dto.BulkResult, error) {
		return uc.ledger.RecordBulk(ctx, ops, actor)
	})
}

func (uc *StockUseCase) DeleteTransaction(ctx context.Context, id int64) (*dto.Reversal, error) {
	return withRetry(ctx, uc, "delete_transaction", func() (*dto.Reversal, error) {
		return uc.ledger.DeleteTransaction(ctx, id)
	})
}

func (uc *StockUseCase) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.TransactionView, error) {
	return uc.ledger.ListTransactions(ctx, filter)
}

func (uc *StockUseCase) Summary(ctx context.Context, productID int) (*domain.ProductSummary, error) {
	return uc.ledger.Summary(ctx, productID)
}

func withRetry[T any](ctx context.Context, uc *StockUseCase, op string, fn func() (T, error)) (T, error) {
	var zero T
	for attempt := 1; attempt <= uc.maxRetryAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if !uc.isRetryable(err) {
			return zero, err
		}
		if attempt == uc.maxRetryAttempts {
			break
		}

		uc.recorder.IncRetry()
		wait := uc.backoff(attempt)
		uc.logger.Warn("deadlock detected, retrying",
			zap.String("operation", op),
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", uc.maxRetryAttempts),
			zap.Duration("backoff", wait),
		)

		select {
		case <-ctx.Done():
			return zero, apperrors.NewDeadlockError("request cancelled while retrying")
		case <-time.After(wait):
		}
	}

	uc.logger.Error("deadlock retries exhausted", zap.String("operation", op), zap.Int("attempts", uc.maxRetryAttempts))
	return zero, apperrors.NewDeadlockError("max retries exceeded")
}

// backoff is the base delay for the attempt with ±20% jitter.
func (uc *StockUseCase) backoff(attempt int) time.Duration {
	base := uc.backoffs[len(uc.backoffs)-1]
	if attempt-1 < len(uc.backoffs) {
		base = uc.backoffs[attempt-1]
	}
	factor := 0.8 + rand.Float64()*0.4
	return time.Duration(float64(base) * factor)
}
