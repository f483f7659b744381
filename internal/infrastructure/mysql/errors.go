package mysql

import (
	"errors"

	driver "github.com/go-sql-driver/mysql"
)

const (
	errDuplicateEntry  = 1062
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
	errNoReferencedRow = 1452
)

func errorNumber(err error) (uint16, bool) {
	var mysqlErr *driver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number, true
	}
	return 0, false
}

// IsDeadlock reports whether MySQL aborted the transaction as a deadlock victim
// or on lock wait timeout. The whole transaction has been rolled back by the
// server and can be retried from the start.
func IsDeadlock(err error) bool {
	n, ok := errorNumber(err)
	return ok && (n == errDeadlock || n == errLockWaitTimeout)
}

func IsDuplicateEntry(err error) bool {
	n, ok := errorNumber(err)
	return ok && n == errDuplicateEntry
}

func IsForeignKeyViolation(err error) bool {
	n, ok := errorNumber(err)
	return ok && n == errNoReferencedRow
}
