package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"

	"barberpro/backend/internal/domain"
	"barberpro/backend/internal/store"
)

// Postgres SQLSTATE codes the store reacts to.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeExclusionViolation   = "23P01"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

var errSerialization = errors.New("serialization failure")

// classify translates driver and context errors. ok is false when err did not
// come from the database layer, e.g. a domain error returned by a TxFunc.
func classify(err error) (mapped error, ok bool) {
	if err == nil {
		return nil, true
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound, true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeExclusionViolation, codeUniqueViolation:
			return store.ErrConflict, true
		case codeForeignKeyViolation:
			return store.ErrNotFound, true
		case codeSerializationFailure, codeDeadlockDetected:
			return fmt.Errorf("%w: %w", errSerialization, err), true
		}
		return domain.StoreUnavailable(err), true
	}

	switch {
	case errors.Is(err, context.Canceled):
		return err, true
	case errors.Is(err, context.DeadlineExceeded):
		return domain.StoreUnavailable(err), true
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, sql.ErrConnDone), errors.Is(err, sql.ErrTxDone):
		return domain.StoreUnavailable(err), true
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return domain.StoreUnavailable(err), true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.StoreUnavailable(err), true
	}
	return err, false
}

// mapErr is used on errors that are known to come from a query, so anything
// unrecognised still counts as a store failure.
func mapErr(err error) error {
	if mapped, ok := classify(err); ok {
		return mapped
	}
	return domain.StoreUnavailable(err)
}
