package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"stockroom/internal/domain"
	"stockroom/internal/domain/repository"
	apperrors "stockroom/internal/errors"
)

const (
	openingBalanceNote = "Opening balance"
	adjustmentNote     = "Quantity adjustment"
)

type Repository interface {
	List(ctx context.Context) ([]domain.Product, error)
	FindByID(ctx context.Context, id int) (*domain.Product, error)
	FindByIDs(ctx context.Context, ids []int) ([]domain.Product, error)
	Delete(ctx context.Context, id int) error
}

// ReadModelInvalidator drops cached aggregates after a committed write.
type ReadModelInvalidator interface {
	Invalidate(ctx context.Context) error
}

// ProductService owns the catalog. Quantity changes it makes are written as
// ledger entries in the same unit of work as the product row.
type ProductService struct {
	repo        Repository
	uow         repository.UnitOfWork
	invalidator ReadModelInvalidator
	txTimeout   time.Duration
	logger      *zap.Logger
}

func NewService(
	repo Repository,
	uow repository.UnitOfWork,
	invalidator ReadModelInvalidator,
	txTimeout time.Duration,
	logger *zap.Logger,
) *ProductService {
	return &ProductService{
		repo:        repo,
		uow:         uow,
		invalidator: invalidator,
		txTimeout:   txTimeout,
		logger:      logger,
	}
}

func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	return s.repo.List(ctx)
}

func (s *ProductService) Get(ctx context.Context, id int) (*domain.Product, error) {
	return s.repo.FindByID(ctx, id)
}

// Search returns the products that exist among ids and, in request order, the
// ids that do not.
func (s *ProductService) Search(ctx context.Context, ids []int) ([]domain.Product, []int, error) {
	found, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	foundSet := make(map[int]struct{}, len(found))
	for _, p := range found {
		foundSet[p.ID] = struct{}{}
	}

	var notFoundIDs []int
	for _, id := range ids {
		if _, ok := foundSet[id]; !ok {
			notFoundIDs = append(notFoundIDs, id)
		}
	}

	return found, notFoundIDs, nil
}

// Create inserts the product with zero stock and posts p.Quantity, when
// positive, as an opening IN entry.
func (s *ProductService) Create(ctx context.Context, p domain.Product, actor *string) (int, error) {
	if p.Quantity < 0 {
		return 0, negativeQuantity()
	}

	opening := p.Quantity
	p.Quantity = 0

	txCtx, cancel := s.unitOfWorkContext(ctx)
	defer cancel()

	var id int
	err := s.uow.Run(txCtx, func(products repository.ProductRepository, transactions repository.StockTransactionRepository) error {
		exists, err := products.CodeExists(txCtx, p.Code, 0)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.NewConflictError("Product code already exists")
		}

		id, err = products.Insert(txCtx, p)
		if err != nil {
			return err
		}
		p.ID = id

		if opening == 0 {
			return nil
		}
		return post(txCtx, products, transactions, p, domain.TransactionIn, opening, openingBalanceNote, actor)
	})
	if err != nil {
		s.logger.Warn("product create rolled back", zap.String("code", p.Code), zap.Error(err))
		return 0, err
	}

	s.logger.Info("product created",
		zap.Int("productId", id),
		zap.String("code", p.Code),
		zap.Int("openingQuantity", opening),
	)
	s.invalidate(ctx, "create")
	return id, nil
}

// Update rewrites the descriptive fields. The code is the product's business
// key and cannot change. A quantity that differs from the stock on hand is
// reconciled with an adjustment entry rather than written directly.
func (s *ProductService) Update(ctx context.Context, p domain.Product, quantity *int, actor *string) error {
	if quantity != nil && *quantity < 0 {
		return negativeQuantity()
	}

	txCtx, cancel := s.unitOfWorkContext(ctx)
	defer cancel()

	err := s.uow.Run(txCtx, func(products repository.ProductRepository, transactions repository.StockTransactionRepository) error {
		current, err := products.FindByIDForUpdate(txCtx, p.ID)
		if err != nil {
			return err
		}

		if p.Code != "" && p.Code != current.Code {
			return apperrors.NewValidationError("Product code cannot be changed", apperrors.ValidationDetail{
				Field:   "code",
				Message: "code is immutable, expected " + current.Code,
			})
		}
		p.Code = current.Code

		if err := products.UpdateDetails(txCtx, p); err != nil {
			return err
		}

		if quantity == nil || *quantity == current.Quantity {
			return nil
		}

		diff := *quantity - current.Quantity
		txType := domain.TransactionIn
		if diff < 0 {
			txType = domain.TransactionOut
			diff = -diff
		}
		return post(txCtx, products, transactions, *current, txType, diff, adjustmentNote, actor)
	})
	if err != nil {
		s.logger.Warn("product update rolled back", zap.Int("productId", p.ID), zap.Error(err))
		return err
	}

	s.logger.Info("product updated", zap.Int("productId", p.ID))
	s.invalidate(ctx, "update")
	return nil
}

// Delete removes the product and, through the foreign key, its ledger.
func (s *ProductService) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("product deleted", zap.Int("productId", id))
	s.invalidate(ctx, "delete")
	return nil
}

func post(
	ctx context.Context,
	products repository.ProductRepository,
	transactions repository.StockTransactionRepository,
	p domain.Product,
	txType domain.TransactionType,
	quantity int,
	note string,
	actor *string,
) error {
	newQuantity, err := p.Apply(txType, quantity)
	if err != nil {
		return err
	}

	if _, err := transactions.Insert(ctx, domain.StockTransaction{
		ProductID: p.ID,
		Type:      txType,
		Quantity:  quantity,
		Notes:     &note,
		CreatedBy: actor,
	}); err != nil {
		return err
	}

	return products.UpdateQuantity(ctx, p.ID, newQuantity)
}

func (s *ProductService) unitOfWorkContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if s.txTimeout <= 0 {
		return context.WithCancel(detached)
	}
	return context.WithTimeout(detached, s.txTimeout)
}

func (s *ProductService) invalidate(ctx context.Context, op string) {
	if err := s.invalidator.Invalidate(context.WithoutCancel(ctx)); err != nil {
		s.logger.Warn("failed to invalidate read models", zap.String("operation", op), zap.Error(err))
	}
}

func negativeQuantity() error {
	return apperrors.NewValidationError("Quantity cannot be negative", apperrors.ValidationDetail{
		Field:   "quantity",
		Message: "quantity must be zero or greater",
	})
}
