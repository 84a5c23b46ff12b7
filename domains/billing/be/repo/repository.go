package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vcp-platform/vcp-backend/platform/go/persistence"
)

// Repository defines the persistence operations required by the billing
// service and the expiry sweeper.
type Repository interface {
	RecordPayment(ctx context.Context, params persistence.RecordPaymentParams) (persistence.Payment, error)
	ListPayments(ctx context.Context, ownerID uuid.UUID) ([]persistence.Payment, error)
	CurrentPayment(ctx context.Context, ownerID uuid.UUID) (persistence.Payment, error)
	AccessAllowed(ctx context.Context, ownerID uuid.UUID) (bool, error)
	SweepExpired(ctx context.Context, now time.Time) (persistence.SweepResult, error)
}

type postgresRepository struct {
	payments *persistence.PaymentStore
	access   *persistence.AccessStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(payments *persistence.PaymentStore, access *persistence.AccessStore) Repository {
	if payments == nil {
		panic("payment store is required")
	}
	if access == nil {
		panic("access store is required")
	}
	return &postgresRepository{payments: payments, access: access}
}

func (r *postgresRepository) RecordPayment(ctx context.Context, params persistence.RecordPaymentParams) (persistence.Payment, error) {
	return r.payments.RecordPayment(ctx, params)
}

func (r *postgresRepository) ListPayments(ctx context.Context, ownerID uuid.UUID) ([]persistence.Payment, error) {
	return r.payments.ListPayments(ctx, ownerID)
}

func (r *postgresRepository) CurrentPayment(ctx context.Context, ownerID uuid.UUID) (persistence.Payment, error) {
	return r.payments.CurrentPayment(ctx, ownerID)
}

func (r *postgresRepository) AccessAllowed(ctx context.Context, ownerID uuid.UUID) (bool, error) {
	return r.access.AccessAllowed(ctx, ownerID)
}

func (r *postgresRepository) SweepExpired(ctx context.Context, now time.Time) (persistence.SweepResult, error) {
	return r.access.SweepExpired(ctx, now)
}
