package postgres

import (
	"errors"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// UniqueViolation reports whether err is a unique violation on the named
// constraint (any constraint when name is empty).
func UniqueViolation(err error, constraint string) bool {
	return pgCode(err, codeUniqueViolation, constraint)
}

func ForeignKeyViolation(err error) bool {
	return pgCode(err, codeForeignKeyViolation, "")
}

func CheckViolation(err error, constraint string) bool {
	return pgCode(err, codeCheckViolation, constraint)
}

func pgCode(err error, code, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != code {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
