package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes mapped to domain errors.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeInvalidTextRep      = "22P02"
)

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// IsPgDuplicateError checks if error is a unique constraint violation
func IsPgDuplicateError(err error) bool {
	return hasCode(err, codeUniqueViolation)
}

// IsPgNoRowsError checks if error is a "no rows" error
func IsPgNoRowsError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsPgForeignKeyError checks if error is a foreign key violation
func IsPgForeignKeyError(err error) bool {
	return hasCode(err, codeForeignKeyViolation)
}

// IsPgCheckViolation checks if error is a CHECK constraint violation, such
// as an unknown role.
func IsPgCheckViolation(err error) bool {
	return hasCode(err, codeCheckViolation)
}

// IsPgInvalidTextError checks if a value failed to parse for its column
// type, typically a malformed UUID.
func IsPgInvalidTextError(err error) bool {
	return hasCode(err, codeInvalidTextRep)
}
