package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes the repositories translate.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeInsufficientPrivs   = "42501" // also raised by row-level policy failures
)

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool { return hasCode(err, codeUniqueViolation) }

// IsForeignKeyViolation reports whether err is a foreign key violation.
func IsForeignKeyViolation(err error) bool { return hasCode(err, codeForeignKeyViolation) }

// IsCheckViolation reports whether err is a check constraint violation.
func IsCheckViolation(err error) bool { return hasCode(err, codeCheckViolation) }

// IsPolicyViolation reports whether a row-level policy rejected the statement.
func IsPolicyViolation(err error) bool { return hasCode(err, codeInsufficientPrivs) }

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
