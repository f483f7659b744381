package repository

import (
	"context"
	"database/sql"

	domainrepo "stockroom/internal/domain/repository"
	"stockroom/internal/infrastructure/mysql"
	productrepo "stockroom/internal/product/repository"
)

// MySQLUnitOfWork runs ledger writes in a REPEATABLE READ transaction. Rows
// read with FindByIDForUpdate stay locked until commit or rollback.
type MySQLUnitOfWork struct {
	db *sql.DB
}

func NewMySQLUnitOfWork(db *sql.DB) *MySQLUnitOfWork {
	return &MySQLUnitOfWork{db: db}
}

func (u *MySQLUnitOfWork) Run(
	ctx context.Context,
	fn func(products domainrepo.ProductRepository, transactions domainrepo.StockTransactionRepository) error,
) error {
	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead}
	return mysql.WithinTx(ctx, u.db, opts, func(tx *sql.Tx) error {
		return fn(productrepo.NewMySQLRepository(tx), NewMySQLTransactionRepository(tx))
	})
}
