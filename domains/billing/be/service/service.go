package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/vcp-platform/vcp-backend/domains/billing/be/repo"
	"github.com/vcp-platform/vcp-backend/platform/go/persistence"
)

// FieldErrors maps request fields to validation issues.
type FieldErrors map[string][]string

func (f FieldErrors) add(field, message string) {
	f[field] = append(f[field], message)
}

// ValidationError is returned when the input payload is invalid.
type ValidationError struct {
	Fields FieldErrors
}

func (v *ValidationError) Error() string {
	return "validation error"
}

// Domain sentinel errors.
var (
	ErrNotFound        = errors.New("payment not found")
	ErrOwnerNotFound   = errors.New("business owner not found")
	ErrRenewalTooEarly = errors.New("current subscription has not expired yet")
)

// Payment is the domain view of one ledger entry.
type Payment struct {
	ID             uuid.UUID
	OwnerID        uuid.UUID
	Amount         float64
	DurationMonths float64
	PaidAt         time.Time
	ExpiresAt      time.Time
	Current        bool
}

// CurrentPayment is the active ledger entry plus how long it has left.
type CurrentPayment struct {
	Payment
	RemainingDays int
}

// CreateInput represents the payload required to record a payment.
type CreateInput struct {
	Amount         float64
	DurationMonths float64
}

// Service defines the business operations for the billing domain.
type Service interface {
	CreateOrRenew(ctx context.Context, ownerID uuid.UUID, input CreateInput) (Payment, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]Payment, error)
	Current(ctx context.Context, ownerID uuid.UUID) (CurrentPayment, error)
}

type service struct {
	repo repo.Repository
	now  func() time.Time
}

// Option customizes service construction.
type Option func(*service)

// WithClock overrides the service clock. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// New constructs a billing Service backed by the provided repository.
func New(r repo.Repository, opts ...Option) Service {
	if r == nil {
		panic("billing repository is required")
	}
	s := &service{repo: r, now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// subscriptionDays converts a subscription duration in months to whole days.
// Fractional trial durations have fixed day counts; everything else rounds
// down on a 30-day month.
func subscriptionDays(durationMonths float64) int {
	switch durationMonths {
	case 0.1:
		return 3
	case 0.5:
		return 15
	default:
		return int(math.Floor(durationMonths * 30))
	}
}

func (s *service) CreateOrRenew(ctx context.Context, ownerID uuid.UUID, input CreateInput) (Payment, error) {
	if ownerID == uuid.Nil {
		return Payment{}, ErrOwnerNotFound
	}

	fieldErrors := FieldErrors{}
	if input.Amount <= 0 {
		fieldErrors.add("amount", "amount must be greater than zero")
	}
	if input.DurationMonths <= 0 {
		fieldErrors.add("durationMonths", "durationMonths must be greater than zero")
	}
	if len(fieldErrors) > 0 {
		return Payment{}, &ValidationError{Fields: fieldErrors}
	}

	now := s.now()
	expiresAt := now.AddDate(0, 0, subscriptionDays(input.DurationMonths))

	record, err := s.repo.RecordPayment(ctx, persistence.RecordPaymentParams{
		PaymentID:      uuid.New(),
		OwnerID:        ownerID,
		Amount:         input.Amount,
		DurationMonths: input.DurationMonths,
		PaidAt:         now,
		ExpiresAt:      expiresAt,
	})
	if err != nil {
		return Payment{}, mapPersistenceError(err)
	}

	return mapPayment(record), nil
}

func (s *service) List(ctx context.Context, ownerID uuid.UUID) ([]Payment, error) {
	if ownerID == uuid.Nil {
		return nil, ErrOwnerNotFound
	}

	records, err := s.repo.ListPayments(ctx, ownerID)
	if err != nil {
		return nil, mapPersistenceError(err)
	}

	payments := make([]Payment, 0, len(records))
	for _, record := range records {
		payments = append(payments, mapPayment(record))
	}
	return payments, nil
}

func (s *service) Current(ctx context.Context, ownerID uuid.UUID) (CurrentPayment, error) {
	if ownerID == uuid.Nil {
		return CurrentPayment{}, ErrOwnerNotFound
	}

	record, err := s.repo.CurrentPayment(ctx, ownerID)
	if err != nil {
		return CurrentPayment{}, mapPersistenceError(err)
	}

	return CurrentPayment{
		Payment:       mapPayment(record),
		RemainingDays: remainingDays(s.now(), record.ExpiryDate),
	}, nil
}

// remainingDays rounds up so a subscription with any time left today reports
// at least one day. Expired subscriptions report zero, never negative.
func remainingDays(now, expiresAt time.Time) int {
	remaining := expiresAt.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Hours() / 24))
}

func mapPayment(record persistence.Payment) Payment {
	return Payment{
		ID:             record.PaymentID,
		OwnerID:        record.BusinessOwnerID,
		Amount:         record.Amount,
		DurationMonths: record.DurationMonths,
		PaidAt:         record.PaymentDate,
		ExpiresAt:      record.ExpiryDate,
		Current:        record.LatestPayment,
	}
}

func mapPersistenceError(err error) error {
	switch {
	case errors.Is(err, persistence.ErrOwnerNotFound):
		return ErrOwnerNotFound
	case errors.Is(err, persistence.ErrRenewalTooEarly):
		return ErrRenewalTooEarly
	case errors.Is(err, persistence.ErrPaymentNotFound):
		return ErrNotFound
	default:
		return err
	}
}
