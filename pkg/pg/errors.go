package pg

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes for objects the query names but the database lacks.
const (
	codeUndefinedTable  = "42P01"
	codeUndefinedSchema = "3F000"
	codeUndefinedColumn = "42703"
)

// IsUndefinedObjectError reports whether err names a table, schema or column
// that does not exist. Such a lookup is misconfigured and retrying it is pointless.
func IsUndefinedObjectError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case codeUndefinedTable, codeUndefinedSchema, codeUndefinedColumn:
		return true
	}
	return false
}
