package store

import (
	"context"
	"errors"

	"github.com/Govind-619/LinkSphere/utils"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Postgres error codes that mean "someone else got there first"
const (
	pgUniqueViolation        = "23505"
	pgSerializationFailure   = "40001"
	pgDeadlockDetected       = "40P01"
	pgLockNotAvailable       = "55P03"
	pgForeignKeyViolation    = "23503"
	pgCheckConstraintFailure = "23514"
)

// translateError maps driver errors onto the application taxonomy.
// AppErrors pass through untouched.
func translateError(err error, what string) error {
	if err == nil {
		return nil
	}
	if utils.IsAppError(err) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.NotFoundError(what+" not found", err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return utils.ServiceUnavailableError("request cancelled", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return utils.ConflictError("concurrent update on "+what, err)
		case pgForeignKeyViolation, pgCheckConstraintFailure:
			return utils.InvalidInputError("invalid reference on "+what, err)
		}
	}
	return utils.InternalError("database error on "+what, err)
}
