package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	dashboardrepo "stockroom/internal/dashboard/repository"
	"stockroom/internal/domain"
	"stockroom/internal/infrastructure/mysql"
	productrepo "stockroom/internal/product/repository"
)

const dateLayout = "2006-01-02"

type MySQLReportRepository struct {
	db mysql.DBTX
}

func NewMySQLReportRepository(db mysql.DBTX) *MySQLReportRepository {
	return &MySQLReportRepository{db: db}
}

// TypeAggregates rolls the catalog up per product type, most valuable first.
func (r *MySQLReportRepository) TypeAggregates(ctx context.Context) ([]domain.TypeAggregate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT type,
		       COUNT(*),
		       COALESCE(SUM(quantity), 0),
		       COALESCE(SUM(price * quantity), 0) AS total_value,
		       COALESCE(AVG(price), 0),
		       COALESCE(MIN(quantity), 0),
		       COALESCE(MAX(quantity), 0),
		       COALESCE(MIN(price * quantity), 0),
		       COALESCE(MAX(price * quantity), 0)
		FROM products
		GROUP BY type
		ORDER BY total_value DESC, type ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying type aggregates: %w", err)
	}
	defer rows.Close()

	out := []domain.TypeAggregate{}
	for rows.Next() {
		var a domain.TypeAggregate
		err := rows.Scan(
			&a.Type, &a.ProductCount, &a.TotalQuantity, &a.TotalValue, &a.AvgPrice,
			&a.MinQuantity, &a.MaxQuantity, &a.MinValue, &a.MaxValue,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning type aggregate row: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating type aggregate rows: %w", err)
	}
	return out, nil
}

func (r *MySQLReportRepository) CatalogTotals(ctx context.Context) (domain.CatalogTotals, error) {
	var t domain.CatalogTotals
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(quantity), 0),
		       COALESCE(SUM(price * quantity), 0),
		       COALESCE(AVG(price), 0)
		FROM products`,
	).Scan(&t.TotalProducts, &t.TotalQuantity, &t.TotalValue, &t.AvgPrice)
	if err != nil {
		return t, fmt.Errorf("totalling catalog: %w", err)
	}
	return t, nil
}

// Movements lists ledger entries matching the filter, newest first.
func (r *MySQLReportRepository) Movements(ctx context.Context, f domain.MovementFilter) ([]domain.MovementView, error) {
	where, args := movementWhere(f)
	return dashboardrepo.QueryMovements(ctx, r.db, where+` ORDER BY st.created_at DESC, st.id DESC`, args...)
}

// MovementTotals groups the filtered movements by transaction type, and by
// product type first when byProductType is set.
func (r *MySQLReportRepository) MovementTotals(ctx context.Context, f domain.MovementFilter, byProductType bool) ([]domain.MovementTotals, error) {
	where, args := movementWhere(f)

	group := `st.transaction_type`
	cols := `NULL`
	if byProductType {
		group = `p.type, st.transaction_type`
		cols = `p.type`
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+cols+`, st.transaction_type, COUNT(*),
		       SUM(st.quantity), SUM(st.quantity * p.price)
		FROM stock_transactions st
		JOIN products p ON st.product_id = p.id`+where+`
		GROUP BY `+group+`
		ORDER BY `+group, args...)
	if err != nil {
		return nil, fmt.Errorf("querying movement totals: %w", err)
	}
	defer rows.Close()

	out := []domain.MovementTotals{}
	for rows.Next() {
		var m domain.MovementTotals
		var productType sql.NullString
		var txType string
		err := rows.Scan(&productType, &txType, &m.TransactionCount, &m.TotalQuantity, &m.TotalValue)
		if err != nil {
			return nil, fmt.Errorf("scanning movement totals row: %w", err)
		}
		m.ProductType = mysql.NullableString(productType)
		m.TransactionType = domain.TransactionType(strings.ToUpper(txType))
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating movement totals rows: %w", err)
	}
	return out, nil
}

func (r *MySQLReportRepository) DailyTrend(ctx context.Context, f domain.MovementFilter) ([]domain.DailyTotal, error) {
	where, args := movementWhere(f)
	rows, err := r.db.QueryContext(ctx, `
		SELECT DATE_FORMAT(st.created_at, '%Y-%m-%d') AS day, st.transaction_type, SUM(st.quantity)
		FROM stock_transactions st
		JOIN products p ON st.product_id = p.id`+where+`
		GROUP BY day, st.transaction_type
		ORDER BY day ASC, st.transaction_type ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying daily trend: %w", err)
	}
	defer rows.Close()

	out := []domain.DailyTotal{}
	for rows.Next() {
		var d domain.DailyTotal
		var txType string
		if err := rows.Scan(&d.Date, &txType, &d.TotalQuantity); err != nil {
			return nil, fmt.Errorf("scanning daily trend row: %w", err)
		}
		d.TransactionType = domain.TransactionType(strings.ToUpper(txType))
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating daily trend rows: %w", err)
	}
	return out, nil
}

func movementWhere(f domain.MovementFilter) (string, []interface{}) {
	var b strings.Builder
	var args []interface{}
	b.WriteString(` WHERE 1=1`)
	if f.StartDate != nil {
		b.WriteString(` AND DATE(st.created_at) >= ?`)
		args = append(args, f.StartDate.Format(dateLayout))
	}
	if f.EndDate != nil {
		b.WriteString(` AND DATE(st.created_at) <= ?`)
		args = append(args, f.EndDate.Format(dateLayout))
	}
	if f.Type != nil {
		b.WriteString(` AND p.type = ?`)
		args = append(args, *f.Type)
	}
	if f.Brand != nil {
		b.WriteString(` AND p.brand = ?`)
		args = append(args, *f.Brand)
	}
	return b.String(), args
}

// LowStock lists products under threshold, emptiest first, with their last
// restock and the units shipped over the past 30 days.
func (r *MySQLReportRepository) LowStock(ctx context.Context, threshold int) ([]domain.LowStockItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+productrepo.QualifiedColumns("p")+`,
		       (SELECT MAX(st.created_at) FROM stock_transactions st
		         WHERE st.product_id = p.id AND st.transaction_type = 'IN'),
		       (SELECT COALESCE(SUM(st.quantity), 0) FROM stock_transactions st
		         WHERE st.product_id = p.id AND st.transaction_type = 'OUT'
		           AND st.created_at >= DATE_SUB(NOW(), INTERVAL 30 DAY))
		FROM products p
		WHERE p.quantity < ?
		ORDER BY p.quantity ASC, p.type ASC, p.id ASC`, threshold)
	if err != nil {
		return nil, fmt.Errorf("querying low stock items: %w", err)
	}
	defer rows.Close()

	out := []domain.LowStockItem{}
	for rows.Next() {
		var item domain.LowStockItem
		var restock sql.NullTime
		p, err := productrepo.ScanProduct(rows, &restock, &item.OutLast30Days)
		if err != nil {
			return nil, err
		}
		item.Product = *p
		if restock.Valid {
			item.LastRestock = &restock.Time
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating low stock rows: %w", err)
	}
	return out, nil
}

func (r *MySQLReportRepository) LowStockByType(ctx context.Context, threshold int) ([]domain.TypeAggregate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT type, COUNT(*) AS product_count, SUM(quantity), SUM(price * quantity)
		FROM products
		WHERE quantity < ?
		GROUP BY type
		ORDER BY product_count DESC, type ASC`, threshold)
	if err != nil {
		return nil, fmt.Errorf("querying low stock by type: %w", err)
	}
	defer rows.Close()

	out := []domain.TypeAggregate{}
	for rows.Next() {
		var a domain.TypeAggregate
		if err := rows.Scan(&a.Type, &a.ProductCount, &a.TotalQuantity, &a.TotalValue); err != nil {
			return nil, fmt.Errorf("scanning low stock type row: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating low stock type rows: %w", err)
	}
	return out, nil
}

func (r *MySQLReportRepository) TopSelling(ctx context.Context, limit int) ([]domain.SalesRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+productrepo.QualifiedColumns("p")+`,
		       SUM(st.quantity) AS total_sold,
		       SUM(st.quantity * p.price),
		       COUNT(st.id)
		FROM products p
		JOIN stock_transactions st ON st.product_id = p.id AND st.transaction_type = 'OUT'
		GROUP BY p.id
		HAVING total_sold > 0
		ORDER BY total_sold DESC, p.id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying top selling: %w", err)
	}
	defer rows.Close()

	out := []domain.SalesRow{}
	for rows.Next() {
		var s domain.SalesRow
		p, err := productrepo.ScanProduct(rows, &s.TotalSold, &s.TotalSalesValue, &s.TransactionCount)
		if err != nil {
			return nil, err
		}
		s.Product = *p
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating top selling rows: %w", err)
	}
	return out, nil
}

// SlowMoving lists products older than 30 days that have shipped fewer than
// 10 units in total.
func (r *MySQLReportRepository) SlowMoving(ctx context.Context, limit int) ([]domain.SlowMover, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+productrepo.QualifiedColumns("p")+`,
		       COALESCE(SUM(st.quantity), 0) AS total_sold,
		       DATEDIFF(NOW(), p.created_at) AS days_in_inventory
		FROM products p
		LEFT JOIN stock_transactions st ON st.product_id = p.id AND st.transaction_type = 'OUT'
		GROUP BY p.id
		HAVING total_sold < 10 AND days_in_inventory > 30
		ORDER BY total_sold ASC, days_in_inventory DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying slow moving products: %w", err)
	}
	defer rows.Close()

	out := []domain.SlowMover{}
	for rows.Next() {
		var s domain.SlowMover
		p, err := productrepo.ScanProduct(rows, &s.TotalSold, &s.DaysInInventory)
		if err != nil {
			return nil, err
		}
		s.Product = *p
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating slow moving rows: %w", err)
	}
	return out, nil
}

func (r *MySQLReportRepository) MonthlySales(ctx context.Context) ([]domain.MonthlySales, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DATE_FORMAT(st.created_at, '%Y-%m') AS month,
		       SUM(st.quantity),
		       SUM(st.quantity * p.price),
		       COUNT(DISTINCT st.product_id)
		FROM stock_transactions st
		JOIN products p ON st.product_id = p.id
		WHERE st.transaction_type = 'OUT'
		  AND st.created_at >= DATE_SUB(NOW(), INTERVAL 12 MONTH)
		GROUP BY month
		ORDER BY month ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying monthly sales: %w", err)
	}
	defer rows.Close()

	out := []domain.MonthlySales{}
	for rows.Next() {
		var m domain.MonthlySales
		if err := rows.Scan(&m.Month, &m.TotalQuantity, &m.TotalValue, &m.UniqueProducts); err != nil {
			return nil, fmt.Errorf("scanning monthly sales row: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating monthly sales rows: %w", err)
	}
	return out, nil
}

// SalesByCategory sums shipped units per product type, or per type and brand
// when byBrand is set. Brandless products are left out of the brand ranking.
func (r *MySQLReportRepository) SalesByCategory(ctx context.Context, byBrand bool, limit int) ([]domain.CategorySales, error) {
	query := `
		SELECT p.type, NULL, COUNT(DISTINCT p.id),
		       COALESCE(SUM(st.quantity), 0) AS total_sold,
		       COALESCE(SUM(st.quantity * p.price), 0)
		FROM products p
		LEFT JOIN stock_transactions st ON st.product_id = p.id AND st.transaction_type = 'OUT'
		GROUP BY p.type
		ORDER BY total_sold DESC, p.type ASC
		LIMIT ?`
	if byBrand {
		query = `
		SELECT p.type, p.brand, COUNT(DISTINCT p.id),
		       SUM(st.quantity) AS total_sold,
		       SUM(st.quantity * p.price)
		FROM products p
		JOIN stock_transactions st ON st.product_id = p.id AND st.transaction_type = 'OUT'
		WHERE p.brand IS NOT NULL AND p.brand <> ''
		GROUP BY p.type, p.brand
		HAVING total_sold > 0
		ORDER BY p.type ASC, total_sold DESC
		LIMIT ?`
	}

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sales by category: %w", err)
	}
	defer rows.Close()

	out := []domain.CategorySales{}
	for rows.Next() {
		var c domain.CategorySales
		var brand sql.NullString
		if err := rows.Scan(&c.Type, &brand, &c.ProductCount, &c.TotalSold, &c.TotalValue); err != nil {
			return nil, fmt.Errorf("scanning category sales row: %w", err)
		}
		c.Brand = mysql.NullableString(brand)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating category sales rows: %w", err)
	}
	return out, nil
}

// NetChangeByType is the signed ledger movement per product type over the
// last days, priced at current unit prices.
func (r *MySQLReportRepository) NetChangeByType(ctx context.Context, days int) ([]domain.NetChange, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.type,
		       SUM(CASE WHEN st.transaction_type = 'IN' THEN st.quantity ELSE -st.quantity END),
		       SUM(CASE WHEN st.transaction_type = 'IN' THEN st.quantity ELSE -st.quantity END * p.price)
		FROM stock_transactions st
		JOIN products p ON st.product_id = p.id
		WHERE st.created_at >= DATE_SUB(NOW(), INTERVAL ? DAY)
		GROUP BY p.type
		ORDER BY p.type ASC`, days)
	if err != nil {
		return nil, fmt.Errorf("querying net change: %w", err)
	}
	defer rows.Close()

	out := []domain.NetChange{}
	for rows.Next() {
		var n domain.NetChange
		if err := rows.Scan(&n.Type, &n.QuantityDelta, &n.ValueDelta); err != nil {
			return nil, fmt.Errorf("scanning net change row: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating net change rows: %w", err)
	}
	return out, nil
}

func (r *MySQLReportRepository) TopValue(ctx context.Context, limit int) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+productrepo.QualifiedColumns("p")+`
		FROM products p
		ORDER BY p.price * p.quantity DESC, p.id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying top value products: %w", err)
	}
	defer rows.Close()

	out := []domain.Product{}
	for rows.Next() {
		p, err := productrepo.ScanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating top value rows: %w", err)
	}
	return out, nil
}

// Filters returns the distinct non-empty product types and brands.
func (r *MySQLReportRepository) Filters(ctx context.Context) (domain.ReportFilters, error) {
	types, err := r.distinct(ctx, "type")
	if err != nil {
		return domain.ReportFilters{}, err
	}
	brands, err := r.distinct(ctx, "brand")
	if err != nil {
		return domain.ReportFilters{}, err
	}
	return domain.ReportFilters{Types: types, Brands: brands}, nil
}

// column is one of a fixed set of identifiers, never user input.
func (r *MySQLReportRepository) distinct(ctx context.Context, column string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT DISTINCT %[1]s FROM products
		WHERE %[1]s IS NOT NULL AND %[1]s <> ''
		ORDER BY %[1]s`, column))
	if err != nil {
		return nil, fmt.Errorf("querying distinct %s: %w", column, err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning distinct %s: %w", column, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating distinct %s: %w", column, err)
	}
	return out, nil
}
