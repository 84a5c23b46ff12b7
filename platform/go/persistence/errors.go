package persistence

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrOwnerNotFound indicates a missing business owner record.
	ErrOwnerNotFound = errors.New("business owner not found")
	// ErrOwnerConflict indicates a uniqueness violation (duplicated user or email).
	ErrOwnerConflict = errors.New("business owner conflict")
	// ErrRenewalTooEarly indicates the current payment has not lapsed yet.
	ErrRenewalTooEarly = errors.New("current payment has not expired")
	// ErrPaymentNotFound indicates no payment record matched.
	ErrPaymentNotFound = errors.New("payment not found")
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
