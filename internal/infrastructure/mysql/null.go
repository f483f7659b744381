package mysql

import "database/sql"

// NullableString maps SQL NULL to a nil pointer.
func NullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
