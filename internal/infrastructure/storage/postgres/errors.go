package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"pricebook/internal/core/apperror"
)

// SQLSTATE codes the repositories translate.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// MapError translates constraint violations on table into application errors.
// Other errors are returned unchanged.
func MapError(err error, table string) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		return apperror.NewDuplicate(table, pgErr.ConstraintName, pgErr.Detail).WithCause(err)
	case codeForeignKeyViolation:
		return apperror.NewConflict("referenced by other records").
			WithDetail("entity", table).
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case codeCheckViolation:
		return apperror.NewValidation("value rejected by constraint "+pgErr.ConstraintName).
			WithDetail("entity", table).
			WithCause(err)
	}
	return err
}
