package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"stockroom/internal/domain"
	"stockroom/internal/infrastructure/mysql"
	productrepo "stockroom/internal/product/repository"
)

const lowStockPreview = 10

type MySQLDashboardRepository struct {
	db mysql.DBTX
}

func NewMySQLDashboardRepository(db mysql.DBTX) *MySQLDashboardRepository {
	return &MySQLDashboardRepository{db: db}
}

// Stats totals the catalog and lists the ten emptiest products below threshold.
func (r *MySQLDashboardRepository) Stats(ctx context.Context, threshold int) (*domain.DashboardStats, error) {
	var s domain.DashboardStats
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(price * quantity), 0),
		       COUNT(*),
		       COALESCE(SUM(CASE WHEN quantity < ? THEN 1 ELSE 0 END), 0)
		FROM products`, threshold,
	).Scan(&s.TotalStockValue, &s.TotalProducts, &s.LowStockCount)
	if err != nil {
		return nil, fmt.Errorf("totalling products: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+productrepo.QualifiedColumns("p")+`
		FROM products p
		WHERE p.quantity < ?
		ORDER BY p.quantity ASC, p.id ASC
		LIMIT ?`, threshold, lowStockPreview)
	if err != nil {
		return nil, fmt.Errorf("querying low stock products: %w", err)
	}
	defer rows.Close()

	s.LowStockItems = []domain.Product{}
	for rows.Next() {
		p, err := productrepo.ScanProduct(rows)
		if err != nil {
			return nil, err
		}
		s.LowStockItems = append(s.LowStockItems, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating low stock rows: %w", err)
	}

	return &s, nil
}

func (r *MySQLDashboardRepository) RecentMovements(ctx context.Context, limit int) ([]domain.MovementView, error) {
	return QueryMovements(ctx, r.db, ` ORDER BY st.created_at DESC, st.id DESC LIMIT ?`, limit)
}

// TopSelling ranks every product by units shipped out. Products that never
// shipped rank last with zero.
func (r *MySQLDashboardRepository) TopSelling(ctx context.Context, limit int) ([]domain.TopSeller, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+productrepo.QualifiedColumns("p")+`, COALESCE(SUM(st.quantity), 0) AS total_sold
		FROM products p
		LEFT JOIN stock_transactions st ON st.product_id = p.id AND st.transaction_type = 'OUT'
		GROUP BY p.id
		ORDER BY total_sold DESC, p.id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying top selling products: %w", err)
	}
	defer rows.Close()

	sellers := []domain.TopSeller{}
	for rows.Next() {
		var t domain.TopSeller
		p, err := productrepo.ScanProduct(rows, &t.TotalSold)
		if err != nil {
			return nil, err
		}
		t.Product = *p
		sellers = append(sellers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating top selling rows: %w", err)
	}

	return sellers, nil
}

// MonthlyTotals sums each direction per calendar month over the last year.
func (r *MySQLDashboardRepository) MonthlyTotals(ctx context.Context) ([]domain.MonthTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DATE_FORMAT(created_at, '%Y-%m') AS month, transaction_type, SUM(quantity)
		FROM stock_transactions
		WHERE created_at >= DATE_SUB(NOW(), INTERVAL 12 MONTH)
		GROUP BY month, transaction_type
		ORDER BY month ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying monthly movements: %w", err)
	}
	defer rows.Close()

	var totals []domain.MonthTotal
	for rows.Next() {
		var t domain.MonthTotal
		var txType string
		if err := rows.Scan(&t.Month, &txType, &t.Total); err != nil {
			return nil, fmt.Errorf("scanning monthly movement row: %w", err)
		}
		t.Type = domain.TransactionType(strings.ToUpper(txType))
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating monthly movement rows: %w", err)
	}

	return totals, nil
}

const movementSelect = `
		SELECT st.id, st.product_id, st.transaction_type, st.quantity, st.reference_number,
		       st.notes, st.created_by, st.created_at,
		       p.name, p.code, p.brand, p.type, p.price, p.image
		FROM stock_transactions st
		JOIN products p ON st.product_id = p.id`

// QueryMovements runs the movement projection with the given WHERE/ORDER tail.
// The reports package shares it for the filtered movement listing.
func QueryMovements(ctx context.Context, db mysql.DBTX, tail string, args ...interface{}) ([]domain.MovementView, error) {
	rows, err := db.QueryContext(ctx, movementSelect+tail, args...)
	if err != nil {
		return nil, fmt.Errorf("querying movements: %w", err)
	}
	defer rows.Close()

	movements := []domain.MovementView{}
	for rows.Next() {
		var m domain.MovementView
		var txType string
		var ref, notes, createdBy, brand, image sql.NullString
		err := rows.Scan(
			&m.ID, &m.ProductID, &txType, &m.Quantity, &ref,
			&notes, &createdBy, &m.CreatedAt,
			&m.ProductName, &m.ProductCode, &brand, &m.ProductType, &m.ProductPrice, &image,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning movement row: %w", err)
		}
		m.Type = domain.TransactionType(strings.ToUpper(txType))
		m.ReferenceNumber = mysql.NullableString(ref)
		m.Notes = mysql.NullableString(notes)
		m.CreatedBy = mysql.NullableString(createdBy)
		m.ProductBrand = mysql.NullableString(brand)
		m.ProductImage = mysql.NullableString(image)
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating movement rows: %w", err)
	}

	return movements, nil
}
