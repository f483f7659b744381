package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	_ "github.com/go-sql-driver/mysql"

	"stockroom/internal/infrastructure/mysql"
)

const defaultTestDSN = "root:@tcp(localhost:3306)/stockroom_test?parseTime=true&clientFoundRows=true"

// SetupTestDB opens the integration database and skips the test when it is
// unreachable. TEST_DATABASE_DSN overrides the default local instance.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = defaultTestDSN
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("test database not available: %v", err)
	}

	return db
}

// SetupTestTables creates the schema used by the service.
func SetupTestTables(t *testing.T, db *sql.DB) {
	t.Helper()

	if err := mysql.Migrate(context.Background(), db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
}

// CleanupTestDB empties every managed table and closes db.
func CleanupTestDB(t *testing.T, db *sql.DB) {
	if db == nil {
		return
	}

	for _, table := range mysql.Tables() {
		if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}

	db.Close()
}

// InsertProduct seeds a product row directly and returns its id.
func InsertProduct(t *testing.T, db *sql.DB, code, name string, quantity int) int {
	t.Helper()

	res, err := db.Exec(`
		INSERT INTO products (code, name, type, brand, price, quantity)
		VALUES (?, ?, 'General', NULL, 10.00, ?)`, code, name, quantity)
	if err != nil {
		t.Fatalf("failed to insert product %s: %v", code, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("failed to read product id: %v", err)
	}
	return int(id)
}

// InsertTransaction seeds a ledger row without touching the product quantity.
func InsertTransaction(t *testing.T, db *sql.DB, productID int, txType string, quantity int) int64 {
	t.Helper()

	res, err := db.Exec(`
		INSERT INTO stock_transactions (product_id, transaction_type, quantity)
		VALUES (?, ?, ?)`, productID, txType, quantity)
	if err != nil {
		t.Fatalf("failed to insert %s transaction for product %d: %v", txType, productID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("failed to read transaction id: %v", err)
	}
	return id
}
