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

const productColumns = `id, code, name, type, brand, price, quantity, image, created_at, updated_at`

type MySQLRepository struct {
	db mysql.DBTX
}

// NewMySQLRepository binds the repository to a pool or to a single transaction.
func NewMySQLRepository(db mysql.DBTX) *MySQLRepository {
	return &MySQLRepository{db: db}
}

func (r *MySQLRepository) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := ScanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating product rows: %w", err)
	}

	return products, nil
}

func (r *MySQLRepository) FindByID(ctx context.Context, id int) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	return r.findOne(row, id)
}

func (r *MySQLRepository) FindByIDs(ctx context.Context, ids []int) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`SELECT `+productColumns+` FROM products WHERE id IN (%s) ORDER BY id`,
		strings.Join(placeholders, ", "),
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying products by id: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := ScanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating product rows: %w", err)
	}

	return products, nil
}

func (r *MySQLRepository) FindByIDForUpdate(ctx context.Context, id int) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ? FOR UPDATE`, id)
	return r.findOne(row, id)
}

func (r *MySQLRepository) findOne(row *sql.Row, id int) (*domain.Product, error) {
	p, err := ScanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("Product not found")
		}
		return nil, fmt.Errorf("fetching product %d: %w", id, err)
	}
	return p, nil
}

func (r *MySQLRepository) CodeExists(ctx context.Context, code string, excludeID int) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE code = ? AND id <> ?`, code, excludeID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking product code: %w", err)
	}
	return n > 0, nil
}

func (r *MySQLRepository) Insert(ctx context.Context, p domain.Product) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO products (code, name, type, brand, price, quantity, image)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Code, p.Name, p.Type, p.Brand, p.Price, p.Quantity, p.Image,
	)
	if err != nil {
		if mysql.IsDuplicateEntry(err) {
			return 0, apperrors.NewConflictError("Product code already exists")
		}
		return 0, fmt.Errorf("inserting product: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting product id: %w", err)
	}
	return int(id), nil
}

// UpdateDetails writes the descriptive columns. The code is immutable and
// quantity is owned by the ledger, so neither is touched.
func (r *MySQLRepository) UpdateDetails(ctx context.Context, p domain.Product) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name = ?, type = ?, brand = ?, price = ?, image = ?
		WHERE id = ?`,
		p.Name, p.Type, p.Brand, p.Price, p.Image, p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating product %d: %w", p.ID, err)
	}
	return requireAffected(res, p.ID)
}

func (r *MySQLRepository) UpdateQuantity(ctx context.Context, id int, quantity int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE products SET quantity = ? WHERE id = ?`, quantity, id)
	if err != nil {
		return fmt.Errorf("updating quantity of product %d: %w", id, err)
	}
	return requireAffected(res, id)
}

// Delete removes the product. Its ledger entries go with it through the foreign key.
func (r *MySQLRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting product %d: %w", id, err)
	}
	return requireAffected(res, id)
}

// requireAffected maps a zero-row write to NotFound. MySQL reports zero affected
// rows for an UPDATE that changes nothing, so the DSN sets clientFoundRows.
func requireAffected(res sql.Result, id int) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows for product %d: %w", id, err)
	}
	if n == 0 {
		return apperrors.NewNotFoundError("Product not found")
	}
	return nil
}

type Scanner interface {
	Scan(dest ...interface{}) error
}

// QualifiedColumns is the product column list prefixed with a table alias,
// for joins that scan through ScanProduct.
func QualifiedColumns(alias string) string {
	cols := strings.Split(productColumns, ", ")
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

// ScanProduct reads the product columns followed by any extra selected columns.
func ScanProduct(s Scanner, extra ...interface{}) (*domain.Product, error) {
	var p domain.Product
	var brand, image sql.NullString
	dest := []interface{}{
		&p.ID, &p.Code, &p.Name, &p.Type, &brand, &p.Price,
		&p.Quantity, &image, &p.CreatedAt, &p.UpdatedAt,
	}
	err := s.Scan(append(dest, extra...)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning product row: %w", err)
	}
	if brand.Valid {
		p.Brand = &brand.String
	}
	if image.Valid {
		p.Image = &image.String
	}
	return &p, nil
}
