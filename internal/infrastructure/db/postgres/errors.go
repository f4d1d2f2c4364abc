package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/baechuer/wholesale-catalog/internal/domain"
)

const uniqueViolation = "23505"

// pgDiag extracts SQLSTATE and hint from either driver's error type.
func pgDiag(err error) (code, hint, constraint string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.Hint, pgErr.ConstraintName
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Hint, pqErr.Constraint
	}
	return "", "", ""
}

func isUniqueViolation(err error) bool {
	code, _, _ := pgDiag(err)
	return code == uniqueViolation
}

// storageErr wraps a driver error, keeping domain errors untouched.
func storageErr(err error) error {
	if err == nil {
		return nil
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	code, hint, _ := pgDiag(err)
	return domain.ErrStorage(err, code, hint)
}
