package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	PaymentsTable     = "payments"
	RenewalLinksTable = "business_owners_payments"
	AccessTable       = "access_control"
)

// Payment represents a row in the payments table. Rows are immutable facts
// once written, except for the latest_payment marker which is flipped off when
// a renewal supersedes them.
type Payment struct {
	PaymentID       uuid.UUID `db:"payment_id" json:"paymentId"`
	BusinessOwnerID uuid.UUID `db:"business_owner_id" json:"businessOwnerId"`
	Amount          float64   `db:"amount" json:"amount"`
	DurationMonths  float64   `db:"duration_months" json:"durationMonths"`
	PaymentDate     time.Time `db:"payment_date" json:"paymentDate"`
	ExpiryDate      time.Time `db:"expiry_date" json:"expiryDate"`
	LatestPayment   bool      `db:"latest_payment" json:"latestPayment"`
}

const paymentColumns = `payment_id, business_owner_id, amount, duration_months, payment_date, expiry_date, latest_payment`

// PaymentStore persists the payment ledger together with the renewal link and
// access flag that must stay consistent with it.
type PaymentStore struct {
	pool *pgxpool.Pool
}

// NewPaymentStore returns a store bound to the given pool.
func NewPaymentStore(pool *pgxpool.Pool) (*PaymentStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &PaymentStore{pool: pool}, nil
}

// RecordPaymentParams carries one payment fact plus the decision instant the
// renewal rule is evaluated against. Expiry is computed by the caller.
type RecordPaymentParams struct {
	PaymentID      uuid.UUID
	OwnerID        uuid.UUID
	Amount         float64
	DurationMonths float64
	PaidAt         time.Time
	ExpiresAt      time.Time
}

// RecordPayment creates the first payment for an owner or renews a lapsed one.
// The whole operation runs in one transaction: owner row lock, renewal-rule
// check, old current demotion, new payment insert, renewal link and access
// flag upsert, owner pointer update. A failure at any step discards all
// writes. The owner row lock serializes concurrent renewals and sweeps
// touching the same owner.
func (s *PaymentStore) RecordPayment(ctx context.Context, params RecordPaymentParams) (Payment, error) {
	if params.PaymentID == uuid.Nil || params.OwnerID == uuid.Nil {
		return Payment{}, errors.New("payment id and owner id are required")
	}

	var payment Payment
	err := withTx(ctx, s.pool, func(tx pgx.Tx) error {
		var ownerID uuid.UUID
		err := tx.QueryRow(ctx, fmt.Sprintf(`
            SELECT id FROM %s WHERE id = $1 FOR UPDATE
        `, OwnersTable), params.OwnerID).Scan(&ownerID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrOwnerNotFound
			}
			return fmt.Errorf("lock owner: %w", err)
		}

		var currentID uuid.UUID
		var currentExpiry time.Time
		err = tx.QueryRow(ctx, fmt.Sprintf(`
            SELECT payment_id, expiry_date FROM %s
            WHERE business_owner_id = $1 AND latest_payment
        `, PaymentsTable), params.OwnerID).Scan(&currentID, &currentExpiry)
		switch {
		case err == nil:
			// Renewal path: strictly no renewal before the current payment lapses.
			if params.PaidAt.Before(currentExpiry) {
				return ErrRenewalTooEarly
			}
			if _, err := tx.Exec(ctx, fmt.Sprintf(`
                UPDATE %s SET latest_payment = FALSE WHERE payment_id = $1
            `, PaymentsTable), currentID); err != nil {
				return fmt.Errorf("demote current payment: %w", err)
			}
		case errors.Is(err, pgx.ErrNoRows):
			// First payment: expiry of prior state is never inspected.
		default:
			return fmt.Errorf("load current payment: %w", err)
		}

		row := tx.QueryRow(ctx, fmt.Sprintf(`
            INSERT INTO %s (payment_id, business_owner_id, amount, duration_months, payment_date, expiry_date, latest_payment)
            VALUES ($1, $2, $3, $4, $5, $6, TRUE)
            RETURNING %s
        `, PaymentsTable, paymentColumns),
			params.PaymentID, params.OwnerID, params.Amount, params.DurationMonths, params.PaidAt, params.ExpiresAt,
		)
		if payment, err = scanPayment(row); err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}

		if _, err := tx.Exec(ctx, fmt.Sprintf(`
            INSERT INTO %s (business_owner_id, payment_id)
            VALUES ($1, $2)
            ON CONFLICT (business_owner_id)
            DO UPDATE SET payment_id = EXCLUDED.payment_id, updated_at = NOW()
        `, RenewalLinksTable), params.OwnerID, params.PaymentID); err != nil {
			return fmt.Errorf("upsert renewal link: %w", err)
		}

		// Upsert keeps the flag self-healing when the row went missing.
		if _, err := tx.Exec(ctx, fmt.Sprintf(`
            INSERT INTO %s (access_control_id, business_owner_id, access_allowed)
            VALUES ($1, $2, TRUE)
            ON CONFLICT (business_owner_id)
            DO UPDATE SET access_allowed = TRUE
        `, AccessTable), uuid.New(), params.OwnerID); err != nil {
			return fmt.Errorf("upsert access flag: %w", err)
		}

		if _, err := tx.Exec(ctx, fmt.Sprintf(`
            UPDATE %s
            SET monthly_fee_paid = TRUE, latest_payment_id = $1, latest_payment_date = $2
            WHERE id = $3
        `, OwnersTable), params.PaymentID, params.PaidAt, params.OwnerID); err != nil {
			return fmt.Errorf("update owner pointers: %w", err)
		}

		return nil
	})
	if err != nil {
		return Payment{}, err
	}

	return payment, nil
}

// ListPayments returns every payment for the owner, newest first.
func (s *PaymentStore) ListPayments(ctx context.Context, ownerID uuid.UUID) ([]Payment, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
        SELECT %s FROM %s
        WHERE business_owner_id = $1
        ORDER BY payment_date DESC
    `, paymentColumns, PaymentsTable), ownerID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	payments := make([]Payment, 0)
	for rows.Next() {
		payment, scanErr := scanPayment(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan payment: %w", scanErr)
		}
		payments = append(payments, payment)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}

	return payments, nil
}

// CurrentPayment returns the single payment marked current for the owner.
func (s *PaymentStore) CurrentPayment(ctx context.Context, ownerID uuid.UUID) (Payment, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT %s FROM %s
        WHERE business_owner_id = $1 AND latest_payment
    `, paymentColumns, PaymentsTable), ownerID)

	payment, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payment{}, ErrPaymentNotFound
		}
		return Payment{}, err
	}

	return payment, nil
}

func scanPayment(row pgx.Row) (Payment, error) {
	var payment Payment

	if err := row.Scan(
		&payment.PaymentID,
		&payment.BusinessOwnerID,
		&payment.Amount,
		&payment.DurationMonths,
		&payment.PaymentDate,
		&payment.ExpiryDate,
		&payment.LatestPayment,
	); err != nil {
		return Payment{}, err
	}

	return payment, nil
}
