package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"stockroom/internal/domain"
	apperrors "stockroom/internal/errors"
	"stockroom/internal/infrastructure/mysql"
)

const transactionColumns = `id, product_id, transaction_type, quantity, reference_number, notes, created_by, created_at`

type MySQLTransactionRepository struct {
	db mysql.DBTX
}

func NewMySQLTransactionRepository(db mysql.DBTX) *MySQLTransactionRepository {
	return &MySQLTransactionRepository{db: db}
}

func (r *MySQLTransactionRepository) Insert(ctx context.Context, t domain.StockTransaction) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO stock_transactions
			(product_id, transaction_type, quantity, reference_number, notes, created_by)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ProductID, string(t.Type), t.Quantity, t.ReferenceNumber, t.Notes, t.CreatedBy,
	)
	if err != nil {
		if mysql.IsForeignKeyViolation(err) {
			return 0, apperrors.NewNotFoundError("Product not found")
		}
		return 0, fmt.Errorf("inserting stock transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting stock transaction id: %w", err)
	}
	return id, nil
}

func (r *MySQLTransactionRepository) FindByID(ctx context.Context, id int64) (*domain.StockTransaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM stock_transactions WHERE id = ?`, id)
	return findTransaction(row, id)
}

func (r *MySQLTransactionRepository) FindByIDForUpdate(ctx context.Context, id int64) (*domain.StockTransaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM stock_transactions WHERE id = ? FOR UPDATE`, id)
	return findTransaction(row, id)
}

func findTransaction(row *sql.Row, id int64) (*domain.StockTransaction, error) {
	var t domain.StockTransaction
	var txType string
	var ref, notes, createdBy sql.NullString
	err := row.Scan(&t.ID, &t.ProductID, &txType, &t.Quantity, &ref, &notes, &createdBy, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("Transaction not found")
	}
	if err != nil {
		return nil, fmt.Errorf("fetching stock transaction %d: %w", id, err)
	}

	t.Type = domain.TransactionType(strings.ToUpper(txType))
	t.ReferenceNumber = mysql.NullableString(ref)
	t.Notes = mysql.NullableString(notes)
	t.CreatedBy = mysql.NullableString(createdBy)
	return &t, nil
}

func (r *MySQLTransactionRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM stock_transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting stock transaction %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if n == 0 {
		return apperrors.NewNotFoundError("Transaction not found")
	}
	return nil
}

// List returns the newest entries first, joined with their product.
func (r *MySQLTransactionRepository) List(ctx context.Context, filter domain.TransactionFilter) ([]domain.TransactionView, error) {
	var b strings.Builder
	b.WriteString(`
		SELECT st.id, st.product_id, st.transaction_type, st.quantity, st.reference_number,
		       st.notes, st.created_by, st.created_at, p.name, p.code, p.brand
		FROM stock_transactions st
		JOIN products p ON st.product_id = p.id
		WHERE 1=1`)

	var args []interface{}
	if filter.ProductID != nil {
		b.WriteString(` AND st.product_id = ?`)
		args = append(args, *filter.ProductID)
	}
	if filter.Type != nil {
		b.WriteString(` AND st.transaction_type = ?`)
		args = append(args, string(*filter.Type))
	}
	b.WriteString(` ORDER BY st.created_at DESC, st.id DESC LIMIT ?`)
	args = append(args, filter.Limit)

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying stock transactions: %w", err)
	}
	defer rows.Close()

	views := []domain.TransactionView{}
	for rows.Next() {
		var v domain.TransactionView
		var txType string
		var ref, notes, createdBy, brand sql.NullString
		err := rows.Scan(
			&v.ID, &v.ProductID, &txType, &v.Quantity, &ref,
			&notes, &createdBy, &v.CreatedAt, &v.ProductName, &v.ProductCode, &brand,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning stock transaction row: %w", err)
		}
		v.Type = domain.TransactionType(strings.ToUpper(txType))
		v.ReferenceNumber = mysql.NullableString(ref)
		v.Notes = mysql.NullableString(notes)
		v.CreatedBy = mysql.NullableString(createdBy)
		v.ProductBrand = mysql.NullableString(brand)
		views = append(views, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stock transaction rows: %w", err)
	}

	return views, nil
}

func (r *MySQLTransactionRepository) Summary(ctx context.Context, productID int) (*domain.ProductSummary, error) {
	var s domain.ProductSummary
	var brand sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT p.id, p.name, p.code, p.brand, p.quantity,
		       COALESCE(SUM(CASE WHEN st.transaction_type = 'IN' THEN st.quantity ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN st.transaction_type = 'OUT' THEN st.quantity ELSE 0 END), 0),
		       COUNT(st.id)
		FROM products p
		LEFT JOIN stock_transactions st ON p.id = st.product_id
		WHERE p.id = ?
		GROUP BY p.id, p.name, p.code, p.brand, p.quantity`, productID,
	).Scan(
		&s.ProductID, &s.Name, &s.Code, &brand, &s.CurrentQuantity,
		&s.TotalStockIn, &s.TotalStockOut, &s.TotalTransactions,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("Product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("summarizing product %d: %w", productID, err)
	}

	s.Brand = mysql.NullableString(brand)
	return &s, nil
}
