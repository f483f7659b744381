package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	driver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stockroom/internal/domain"
	"stockroom/internal/dto"
	apperrors "stockroom/internal/errors"
)

func createDeadlockError() error {
	return fmt.Errorf("updating quantity: %w", &driver.MySQLError{Number: 1213})
}

type mockLedger struct {
	RecordInFunc          func(ctx context.Context, in dto.MovementInput) (*dto.MovementResult, error)
	RecordOutFunc         func(ctx context.Context, in dto.MovementInput) (*dto.MovementResult, error)
	RecordBulkFunc        func(ctx context.Context, ops []dto.BulkOperation, actor *string) (*dto.BulkResult, error)
	DeleteTransactionFunc func(ctx context.Context, id int64) (*dto.Reversal, error)
	ListFunc              func(ctx context.Context, filter domain.TransactionFilter) ([]domain.TransactionView, error)
	SummaryFunc           func(ctx context.Context, productID int) (*domain.ProductSummary, error)
}

func (m *mockLedger) RecordIn(ctx context.Context, in dto.MovementInput) (*dto.MovementResult, error) {
	return m.RecordInFunc(ctx, in)
}

func (m *mockLedger) RecordOut(ctx context.Context, in dto.MovementInput) (*dto.MovementResult, error) {
	return m.RecordOutFunc(ctx, in)
}

func (m *mockLedger) RecordBulk(ctx context.Context, ops []dto.BulkOperation, actor *string) (*dto.BulkResult, error) {
	return m.RecordBulkFunc(ctx, ops, actor)
}

func (m *mockLedger) DeleteTransaction(ctx context.Context, id int64) (*dto.Reversal, error) {
	return m.DeleteTransactionFunc(ctx, id)
}

func (m *mockLedger) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.TransactionView, error) {
	return m.ListFunc(ctx, filter)
}

func (m *mockLedger) Summary(ctx context.Context, productID int) (*domain.ProductSummary, error) {
	return m.SummaryFunc(ctx, productID)
}

type countingRecorder struct{ retries int }

func (c *countingRecorder) IncRetry() { c.retries++ }

func newTestStockUseCase(ledger Ledger, rec *countingRecorder) *StockUseCase {
	uc := NewStockUseCase(ledger, rec, zap.NewNop(), 3)
	uc.backoffs = []time.Duration{time.Millisecond}
	return uc
}

func TestStockIn_RetriesDeadlockThenSucceeds(t *testing.T) {
	calls := 0
	ledger := &mockLedger{
		RecordInFunc: func(ctx context.Context, in dto.MovementInput) (*dto.MovementResult, error) {
			calls++
			if calls < 3 {
				return nil, createDeadlockError()
			}
			return &dto.MovementResult{TransactionID: 42, NewQuantity: in.Quantity}, nil
		},
	}
	rec := &countingRecorder{}

	res, err := newTestStockUseCase(ledger, rec).StockIn(context.Background(), dto.MovementInput{ProductID: 1, Quantity: 5})

	require.NoError(t, err)
	assert.Equal(t, int64(42), res.TransactionID)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, rec.retries)
}

func TestStockOut_ExhaustedRetriesReturnDeadlockError(t *testing.T) {
	calls := 0
	ledger := &mockLedger{
		RecordOutFunc: func(ctx context.Context, in dto.MovementInput) (*dto.MovementResult, error) {
			calls++
			return nil, createDeadlockError()
		},
	}

	_, err := newTestStockUseCase(ledger, &countingRecorder{}).StockOut(context.Background(), dto.MovementInput{ProductID: 1, Quantity: 1})

	_, ok := apperrors.IsDeadlockError(err)
	assert.True(t, ok, "expected DeadlockError, got %T", err)
	assert.Equal(t, 3, calls)
}

func TestStockOut_DomainErrorIsNotRetried(t *testing.T) {
	calls := 0
	ledger := &mockLedger{
		RecordOutFunc: func(ctx context.Context, in dto.MovementInput) (*dto.MovementResult, error) {
			calls++
			return nil, apperrors.NewInsufficientStockError(in.ProductID, 100, in.Quantity)
		},
	}

	_, err := newTestStockUseCase(ledger, &countingRecorder{}).StockOut(context.Background(), dto.MovementInput{ProductID: 1, Quantity: 150})

	ise, ok := apperrors.IsInsufficientStockError(err)
	require.True(t, ok)
	assert.Equal(t, 100, ise.Available)
	assert.Equal(t, 1, calls)
}

func TestBulk_PassesActorAndOperations(t *testing.T) {
	var gotActor *string
	var gotOps []dto.BulkOperation
	ledger := &mockLedger{
		RecordBulkFunc: func(ctx context.Context, ops []dto.BulkOperation, actor *string) (*dto.BulkResult, error) {
			gotOps, gotActor = ops, actor
			return &dto.BulkResult{Total: len(ops)}, nil
		},
	}
	who := "carol"
	ops := []dto.BulkOperation{{ProductID: 2, Type: "in", Quantity: 1}}

	res, err := newTestStockUseCase(ledger, &countingRecorder{}).Bulk(context.Background(), ops, &who)

	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, ops, gotOps)
	assert.Equal(t, &who, gotActor)
}

func TestDeleteTransaction_StopsRetryingWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	ledger := &mockLedger{
		DeleteTransactionFunc: func(ctx context.Context, id int64) (*dto.Reversal, error) {
			calls++
			cancel()
			return nil, createDeadlockError()
		},
	}
	uc := newTestStockUseCase(ledger, &countingRecorder{})
	uc.backoffs = []time.Duration{time.Hour}

	_, err := uc.DeleteTransaction(ctx, 9)

	_, ok := apperrors.IsDeadlockError(err)
	assert.True(t, ok)
	assert.Equal(t, 1, calls)
}

func TestReads_PassThrough(t *testing.T) {
	boom := errors.New("db down")
	ledger := &mockLedger{
		ListFunc: func(ctx context.Context, filter domain.TransactionFilter) ([]domain.TransactionView, error) {
			return nil, boom
		},
		SummaryFunc: func(ctx context.Context, productID int) (*domain.ProductSummary, error) {
			return &domain.ProductSummary{ProductID: productID}, nil
		},
	}
	uc := newTestStockUseCase(ledger, &countingRecorder{})

	_, err := uc.ListTransactions(context.Background(), domain.TransactionFilter{})
	assert.ErrorIs(t, err, boom)

	s, err := uc.Summary(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 4, s.ProductID)
}

func TestBackoff_StaysWithinJitter(t *testing.T) {
	uc := NewStockUseCase(&mockLedger{}, &countingRecorder{}, zap.NewNop(), 0)
	assert.Equal(t, 1, uc.maxRetryAttempts)

	for attempt := 1; attempt <= 5; attempt++ {
		base := uc.backoffs[len(uc.backoffs)-1]
		if attempt-1 < len(uc.backoffs) {
			base = uc.backoffs[attempt-1]
		}
		got := uc.backoff(attempt)
		assert.GreaterOrEqual(t, got, time.Duration(float64(base)*0.8))
		assert.LessOrEqual(t, got, time.Duration(float64(base)*1.2))
	}
}
