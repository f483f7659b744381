// Package repository declares the persistence contracts shared by the catalog
// and the stock ledger. Implementations are bound either to the connection
// pool or to one database transaction.
package repository

import (
	"context"

	"stockroom/internal/domain"
)

type ProductRepository interface {
	List(ctx context.Context) ([]domain.Product, error)
	FindByID(ctx context.Context, id int) (*domain.Product, error)
	FindByIDs(ctx context.Context, ids []int) ([]domain.Product, error)
	// FindByIDForUpdate locks the product row until the enclosing unit of work ends.
	FindByIDForUpdate(ctx context.Context, id int) (*domain.Product, error)
	CodeExists(ctx context.Context, code string, excludeID int) (bool, error)
	Insert(ctx context.Context, p domain.Product) (int, error)
	UpdateDetails(ctx context.Context, p domain.Product) error
	UpdateQuantity(ctx context.Context, id int, quantity int) error
	Delete(ctx context.Context, id int) error
}

type StockTransactionRepository interface {
	Insert(ctx context.Context, t domain.StockTransaction) (int64, error)
	FindByID(ctx context.Context, id int64) (*domain.StockTransaction, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*domain.StockTransaction, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter domain.TransactionFilter) ([]domain.TransactionView, error)
	Summary(ctx context.Context, productID int) (*domain.ProductSummary, error)
}

// UnitOfWork runs fn with repositories bound to a single database transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type UnitOfWork interface {
	Run(ctx context.Context, fn func(products ProductRepository, transactions StockTransactionRepository) error) error
}
