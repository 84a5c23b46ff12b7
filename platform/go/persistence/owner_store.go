package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const OwnersTable = "business_owners"

// BusinessOwner represents a row in the business_owners table. MonthlyFeePaid
// is the fast-read access gate; LatestPaymentID/LatestPaymentAt denormalize
// the current payment for O(1) lookup.
type BusinessOwner struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	UserID          uuid.UUID  `db:"user_id" json:"userId"`
	Email           string     `db:"email" json:"email"`
	Name            string     `db:"name" json:"name"`
	Address         string     `db:"address" json:"address"`
	Telephone1      string     `db:"telephone1" json:"telephone1"`
	Telephone2      string     `db:"telephone2" json:"telephone2"`
	ImageURL        string     `db:"image_url" json:"imageUrl"`
	Role            string     `db:"role" json:"role"`
	MonthlyFeePaid  bool       `db:"monthly_fee_paid" json:"monthlyFeePaid"`
	LatestPaymentID *uuid.UUID `db:"latest_payment_id" json:"latestPaymentId,omitempty"`
	LatestPaymentAt *time.Time `db:"latest_payment_date" json:"latestPaymentDate,omitempty"`
}

const ownerColumns = `id, user_id, email, name, address, telephone1, telephone2, image_url, role, monthly_fee_paid, latest_payment_id, latest_payment_date`

// OwnerStore exposes persistence helpers for the business_owners table.
type OwnerStore struct {
	pool *pgxpool.Pool
}

// NewOwnerStore returns a store bound to the given pool.
func NewOwnerStore(pool *pgxpool.Pool) (*OwnerStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &OwnerStore{pool: pool}, nil
}

// CreateOwnerParams captures the fields required to insert a new owner record.
type CreateOwnerParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Email  string
	Name   string
}

// CreateOwner inserts a new business owner with the fee flag off.
func (s *OwnerStore) CreateOwner(ctx context.Context, params CreateOwnerParams) (BusinessOwner, error) {
	if params.ID == uuid.Nil || params.UserID == uuid.Nil {
		return BusinessOwner{}, errors.New("owner id and user id are required")
	}

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (id, user_id, email, name)
        VALUES ($1, $2, $3, $4)
        RETURNING %s
    `, OwnersTable, ownerColumns),
		params.ID,
		params.UserID,
		strings.TrimSpace(params.Email),
		strings.TrimSpace(params.Name),
	)

	owner, err := scanOwner(row)
	if err != nil {
		if isUniqueViolation(err) {
			return BusinessOwner{}, ErrOwnerConflict
		}
		return BusinessOwner{}, err
	}

	return owner, nil
}

// GetOwner returns a single owner by identifier.
func (s *OwnerStore) GetOwner(ctx context.Context, id uuid.UUID) (BusinessOwner, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT %s FROM %s WHERE id = $1
    `, ownerColumns, OwnersTable), id)

	return ownerOrNotFound(scanOwner(row))
}

// GetOwnerByUserID returns the owner bound to the given user account.
func (s *OwnerStore) GetOwnerByUserID(ctx context.Context, userID uuid.UUID) (BusinessOwner, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT %s FROM %s WHERE user_id = $1
    `, ownerColumns, OwnersTable), userID)

	return ownerOrNotFound(scanOwner(row))
}

// FindOwnerByEmail returns the owner with the given email.
func (s *OwnerStore) FindOwnerByEmail(ctx context.Context, email string) (BusinessOwner, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT %s FROM %s WHERE LOWER(email) = LOWER($1)
    `, ownerColumns, OwnersTable), strings.TrimSpace(email))

	return ownerOrNotFound(scanOwner(row))
}

// UpdateOwnerParams represents the owner-editable profile fields.
type UpdateOwnerParams struct {
	Name       *string
	Address    *string
	Telephone1 *string
	Telephone2 *string
	ImageURL   *string
}

// UpdateOwner applies the provided fields and returns the updated record.
func (s *OwnerStore) UpdateOwner(ctx context.Context, id uuid.UUID, params UpdateOwnerParams) (BusinessOwner, error) {
	setParts := []string{}
	var args []any

	appendField := func(column string, value *string) {
		if value != nil {
			args = append(args, strings.TrimSpace(*value))
			setParts = append(setParts, fmt.Sprintf("%s = $%d", column, len(args)))
		}
	}

	appendField("name", params.Name)
	appendField("address", params.Address)
	appendField("telephone1", params.Telephone1)
	appendField("telephone2", params.Telephone2)
	appendField("image_url", params.ImageURL)

	if len(setParts) == 0 {
		return BusinessOwner{}, errors.New("no fields to update")
	}

	args = append(args, id)

	query := fmt.Sprintf(`
        UPDATE %s
        SET %s
        WHERE id = $%d
        RETURNING %s
    `, OwnersTable, strings.Join(setParts, ", "), len(args), ownerColumns)

	return ownerOrNotFound(scanOwner(s.pool.QueryRow(ctx, query, args...)))
}

// DeleteOwner removes the owner and all dependent records in one transaction,
// in dependency order: payments, renewal link, access flag, owner row. The
// cascade is explicit rather than delegated to the storage engine.
func (s *OwnerStore) DeleteOwner(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrOwnerNotFound
	}

	return withTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM payments WHERE business_owner_id = $1`, id); err != nil {
			return fmt.Errorf("delete payments: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM business_owners_payments WHERE business_owner_id = $1`, id); err != nil {
			return fmt.Errorf("delete renewal link: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM access_control WHERE business_owner_id = $1`, id); err != nil {
			return fmt.Errorf("delete access flag: %w", err)
		}

		tag, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, OwnersTable), id)
		if err != nil {
			return fmt.Errorf("delete owner: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrOwnerNotFound
		}
		return nil
	})
}

func ownerOrNotFound(owner BusinessOwner, err error) (BusinessOwner, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BusinessOwner{}, ErrOwnerNotFound
		}
		return BusinessOwner{}, err
	}
	return owner, nil
}

func scanOwner(row pgx.Row) (BusinessOwner, error) {
	var owner BusinessOwner

	if err := row.Scan(
		&owner.ID,
		&owner.UserID,
		&owner.Email,
		&owner.Name,
		&owner.Address,
		&owner.Telephone1,
		&owner.Telephone2,
		&owner.ImageURL,
		&owner.Role,
		&owner.MonthlyFeePaid,
		&owner.LatestPaymentID,
		&owner.LatestPaymentAt,
	); err != nil {
		return BusinessOwner{}, err
	}

	return owner, nil
}
