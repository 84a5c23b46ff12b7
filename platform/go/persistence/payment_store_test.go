package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func seedOwner(t *testing.T, store *OwnerStore) BusinessOwner {
	t.Helper()

	owner, err := store.CreateOwner(context.Background(), CreateOwnerParams{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Email:  fmt.Sprintf("owner-%s@example.com", uuid.NewString()[:8]),
		Name:   "Test Owner",
	})
	require.NoError(t, err)
	return owner
}

func TestRecordPaymentFirstAndRenew(t *testing.T) {
	pool, cleanup := mustTestPool(t)
	defer cleanup()

	ctx := context.Background()
	owners, err := NewOwnerStore(pool)
	require.NoError(t, err)
	payments, err := NewPaymentStore(pool)
	require.NoError(t, err)
	access, err := NewAccessStore(pool)
	require.NoError(t, err)

	owner := seedOwner(t, owners)
	now := time.Now().UTC().Truncate(time.Microsecond)

	first, err := payments.RecordPayment(ctx, RecordPaymentParams{
		PaymentID:      uuid.New(),
		OwnerID:        owner.ID,
		Amount:         50,
		DurationMonths: 1,
		PaidAt:         now.Add(-40 * 24 * time.Hour),
		ExpiresAt:      now.Add(-10 * 24 * time.Hour),
	})
	require.NoError(t, err)
	require.True(t, first.LatestPayment)

	allowed, err := access.AccessAllowed(ctx, owner.ID)
	require.NoError(t, err)
	require.True(t, allowed)

	reloaded, err := owners.GetOwner(ctx, owner.ID)
	require.NoError(t, err)
	require.True(t, reloaded.MonthlyFeePaid)
	require.NotNil(t, reloaded.LatestPaymentID)
	require.Equal(t, first.PaymentID, *reloaded.LatestPaymentID)

	// Renewal after expiry demotes the old payment and installs the new one.
	renewed, err := payments.RecordPayment(ctx, RecordPaymentParams{
		PaymentID:      uuid.New(),
		OwnerID:        owner.ID,
		Amount:         50,
		DurationMonths: 0.1,
		PaidAt:         now,
		ExpiresAt:      now.Add(3 * 24 * time.Hour),
	})
	require.NoError(t, err)

	current, err := payments.CurrentPayment(ctx, owner.ID)
	require.NoError(t, err)
	require.Equal(t, renewed.PaymentID, current.PaymentID)

	all, err := payments.ListPayments(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, renewed.PaymentID, all[0].PaymentID)

	// Renewal link, owner pointer and current payment all name the same record.
	var linked uuid.UUID
	err = pool.QueryRow(ctx, `SELECT payment_id FROM business_owners_payments WHERE business_owner_id = $1`, owner.ID).Scan(&linked)
	require.NoError(t, err)
	require.Equal(t, renewed.PaymentID, linked)

	afterRenew, err := owners.GetOwner(ctx, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, afterRenew.LatestPaymentID)
	require.Equal(t, renewed.PaymentID, *afterRenew.LatestPaymentID)

	// A second renewal before the fresh expiry is rejected with no state change.
	_, err = payments.RecordPayment(ctx, RecordPaymentParams{
		PaymentID:      uuid.New(),
		OwnerID:        owner.ID,
		Amount:         50,
		DurationMonths: 1,
		PaidAt:         now.Add(time.Hour),
		ExpiresAt:      now.Add(31 * 24 * time.Hour),
	})
	require.ErrorIs(t, err, ErrRenewalTooEarly)

	after, err := payments.ListPayments(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, after, 2)

	err = pool.QueryRow(ctx, `SELECT payment_id FROM business_owners_payments WHERE business_owner_id = $1`, owner.ID).Scan(&linked)
	require.NoError(t, err)
	require.Equal(t, renewed.PaymentID, linked)
}

func TestRecordPaymentOwnerMissing(t *testing.T) {
	pool, cleanup := mustTestPool(t)
	defer cleanup()

	payments, err := NewPaymentStore(pool)
	require.NoError(t, err)

	now := time.Now().UTC()
	_, err = payments.RecordPayment(context.Background(), RecordPaymentParams{
		PaymentID:      uuid.New(),
		OwnerID:        uuid.New(),
		Amount:         50,
		DurationMonths: 1,
		PaidAt:         now,
		ExpiresAt:      now.Add(30 * 24 * time.Hour),
	})
	require.ErrorIs(t, err, ErrOwnerNotFound)
}

func TestSweepExpiredFlipsAndRepairs(t *testing.T) {
	pool, cleanup := mustTestPool(t)
	defer cleanup()

	ctx := context.Background()
	owners, err := NewOwnerStore(pool)
	require.NoError(t, err)
	payments, err := NewPaymentStore(pool)
	require.NoError(t, err)
	access, err := NewAccessStore(pool)
	require.NoError(t, err)

	owner := seedOwner(t, owners)
	now := time.Now().UTC()

	_, err = payments.RecordPayment(ctx, RecordPaymentParams{
		PaymentID:      uuid.New(),
		OwnerID:        owner.ID,
		Amount:         50,
		DurationMonths: 1,
		PaidAt:         now.Add(-40 * 24 * time.Hour),
		ExpiresAt:      now.Add(-10 * 24 * time.Hour),
	})
	require.NoError(t, err)

	result, err := access.SweepExpired(ctx, now)
	require.NoError(t, err)
	require.GreaterOrEqual(t, result.Updated, 1)

	allowed, err := access.AccessAllowed(ctx, owner.ID)
	require.NoError(t, err)
	require.False(t, allowed)

	reloaded, err := owners.GetOwner(ctx, owner.ID)
	require.NoError(t, err)
	require.False(t, reloaded.MonthlyFeePaid)

	// Second sweep is a no-op for this owner.
	again, err := access.SweepExpired(ctx, now)
	require.NoError(t, err)
	require.Equal(t, 0, again.Updated)
}

func TestDeleteOwnerCascades(t *testing.T) {
	pool, cleanup := mustTestPool(t)
	defer cleanup()

	ctx := context.Background()
	owners, err := NewOwnerStore(pool)
	require.NoError(t, err)
	payments, err := NewPaymentStore(pool)
	require.NoError(t, err)

	owner := seedOwner(t, owners)
	now := time.Now().UTC()

	_, err = payments.RecordPayment(ctx, RecordPaymentParams{
		PaymentID:      uuid.New(),
		OwnerID:        owner.ID,
		Amount:         50,
		DurationMonths: 1,
		PaidAt:         now,
		ExpiresAt:      now.Add(30 * 24 * time.Hour),
	})
	require.NoError(t, err)

	require.NoError(t, owners.DeleteOwner(ctx, owner.ID))

	_, err = owners.GetOwner(ctx, owner.ID)
	require.ErrorIs(t, err, ErrOwnerNotFound)

	list, err := payments.ListPayments(ctx, owner.ID)
	require.NoError(t, err)
	require.Empty(t, list)

	require.ErrorIs(t, owners.DeleteOwner(ctx, owner.ID), ErrOwnerNotFound)
}
