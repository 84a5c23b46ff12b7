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

// AccessStore reads the materialized access flag and runs the expiry sweep.
type AccessStore struct {
	pool *pgxpool.Pool
}

// NewAccessStore returns a store bound to the given pool.
func NewAccessStore(pool *pgxpool.Pool) (*AccessStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &AccessStore{pool: pool}, nil
}

// AccessAllowed returns the materialized flag for the owner. A missing row
// reads as not allowed; expiry is never computed here.
func (s *AccessStore) AccessAllowed(ctx context.Context, ownerID uuid.UUID) (bool, error) {
	var allowed bool
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT access_allowed FROM %s WHERE business_owner_id = $1
    `, AccessTable), ownerID).Scan(&allowed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("read access flag: %w", err)
	}

	return allowed, nil
}

// SweepResult reports one sweep pass: Updated counts owners whose access flag
// was flipped off because their current payment expired; Repaired counts fee
// flags corrected by the consistency pass.
type SweepResult struct {
	Updated  int
	Repaired int
}

// SweepExpired disables access for every owner whose current payment expired
// before now, then repairs any owner whose fee flag drifted from a disallowed
// access flag. The whole sweep is one transaction; a mid-sweep failure leaves
// the database untouched. Owner rows are locked so an overlapping renewal for
// the same owner serializes against the sweep rather than reading stale state.
func (s *AccessStore) SweepExpired(ctx context.Context, now time.Time) (SweepResult, error) {
	var result SweepResult

	err := withTx(ctx, s.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, fmt.Sprintf(`
            SELECT bo.id
            FROM %s bo
            JOIN %s p ON p.business_owner_id = bo.id AND p.latest_payment
            WHERE p.expiry_date < $1
            FOR UPDATE OF bo
        `, OwnersTable, PaymentsTable), now)
		if err != nil {
			return fmt.Errorf("select expired owners: %w", err)
		}

		expired := make([]uuid.UUID, 0)
		for rows.Next() {
			var id uuid.UUID
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("scan expired owner: %w", err)
			}
			expired = append(expired, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate expired owners: %w", err)
		}

		if len(expired) > 0 {
			tag, err := tx.Exec(ctx, fmt.Sprintf(`
                UPDATE %s SET access_allowed = FALSE
                WHERE business_owner_id = ANY($1) AND access_allowed
            `, AccessTable), expired)
			if err != nil {
				return fmt.Errorf("disable access flags: %w", err)
			}
			result.Updated = int(tag.RowsAffected())

			if _, err := tx.Exec(ctx, fmt.Sprintf(`
                UPDATE %s SET monthly_fee_paid = FALSE
                WHERE id = ANY($1) AND monthly_fee_paid
            `, OwnersTable), expired); err != nil {
				return fmt.Errorf("clear fee flags: %w", err)
			}
		}

		// Consistency pass: any disallowed access flag implies the fee flag
		// must be off, regardless of how the drift happened.
		tag, err := tx.Exec(ctx, fmt.Sprintf(`
            UPDATE %s bo SET monthly_fee_paid = FALSE
            FROM %s ac
            WHERE ac.business_owner_id = bo.id
              AND NOT ac.access_allowed
              AND bo.monthly_fee_paid
        `, OwnersTable, AccessTable))
		if err != nil {
			return fmt.Errorf("repair fee flags: %w", err)
		}
		result.Repaired = int(tag.RowsAffected())

		return nil
	})
	if err != nil {
		return SweepResult{}, err
	}

	return result, nil
}
