package mysql

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order by Migrate. Statements are idempotent.
var schema = []struct {
	name  string
	query string
}{
	{"users", `
	CREATE TABLE IF NOT EXISTS users (
		id INT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(50) NOT NULL UNIQUE,
		password VARCHAR(255) NOT NULL,
		email VARCHAR(100) NOT NULL UNIQUE,
		firstname VARCHAR(100) NULL,
		lastname VARCHAR(100) NULL,
		role ENUM('admin', 'staff', 'user') NOT NULL DEFAULT 'user',
		profile_picture MEDIUMTEXT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`},
	{"user_requests", `
	CREATE TABLE IF NOT EXISTS user_requests (
		id INT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(50) NOT NULL,
		password VARCHAR(255) NOT NULL,
		email VARCHAR(100) NOT NULL,
		processed TINYINT(1) NOT NULL DEFAULT 0,
		processed_at DATETIME NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_user_requests_processed (processed)
	)`},
	{"products", `
	CREATE TABLE IF NOT EXISTS products (
		id INT AUTO_INCREMENT PRIMARY KEY,
		code VARCHAR(50) NOT NULL UNIQUE,
		name VARCHAR(255) NOT NULL,
		type VARCHAR(100) NOT NULL,
		brand VARCHAR(100) NULL,
		price DECIMAL(12,2) NOT NULL DEFAULT 0.00,
		quantity INT NOT NULL DEFAULT 0,
		image MEDIUMTEXT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT chk_products_price CHECK (price >= 0),
		INDEX idx_products_type (type),
		INDEX idx_products_quantity (quantity)
	)`},
	{"stock_transactions", `
	CREATE TABLE IF NOT EXISTS stock_transactions (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		product_id INT NOT NULL,
		transaction_type ENUM('IN', 'OUT') NOT NULL,
		quantity INT NOT NULL,
		reference_number VARCHAR(100) NULL,
		notes TEXT NULL,
		created_by VARCHAR(50) NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT chk_stock_transactions_quantity CHECK (quantity > 0),
		CONSTRAINT fk_stock_transactions_product FOREIGN KEY (product_id)
			REFERENCES products(id) ON DELETE CASCADE,
		INDEX idx_stock_transactions_product (product_id),
		INDEX idx_stock_transactions_created (created_at)
	)`},
}

// addedColumns were introduced after their table; Migrate adds them to
// databases created before.
var addedColumns = []struct {
	table, column, definition string
}{
	{"users", "profile_picture", "MEDIUMTEXT NULL AFTER role"},
}

// Tables lists the managed tables, children first.
func Tables() []string {
	return []string{"stock_transactions", "products", "user_requests", "users"}
}

// Migrate creates the tables the service needs and adds any column an
// older schema lacks.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt.query); err != nil {
			return fmt.Errorf("creating table %s: %w", stmt.name, err)
		}
	}

	for _, c := range addedColumns {
		var n int
		err := db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM information_schema.COLUMNS
			WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND COLUMN_NAME = ?`,
			c.table, c.column,
		).Scan(&n)
		if err != nil {
			return fmt.Errorf("inspecting %s.%s: %w", c.table, c.column, err)
		}
		if n > 0 {
			continue
		}
		if _, err := db.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", c.table, c.column, c.definition)); err != nil {
			return fmt.Errorf("adding column %s.%s: %w", c.table, c.column, err)
		}
	}
	return nil
}
