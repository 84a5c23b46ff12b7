package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vcp-platform/vcp-backend/platform/go/persistence"
)

type memoryOwner struct {
	monthlyFeePaid  bool
	latestPaymentID *uuid.UUID
	latestPaymentAt *time.Time
}

// MemoryRepository is an in-memory Repository used by tests. It reproduces
// the transactional semantics of the Postgres implementation: an operation
// either applies all of its writes or none of them, guarded by one mutex.
type MemoryRepository struct {
	mu       sync.Mutex
	owners   map[uuid.UUID]*memoryOwner
	payments []persistence.Payment
	access   map[uuid.UUID]bool
	links    map[uuid.UUID]uuid.UUID
}

// NewMemoryRepository returns an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		owners: make(map[uuid.UUID]*memoryOwner),
		access: make(map[uuid.UUID]bool),
		links:  make(map[uuid.UUID]uuid.UUID),
	}
}

// AddOwner registers an owner with the fee flag off and no payments.
func (m *MemoryRepository) AddOwner(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owners[id] = &memoryOwner{}
}

// FeePaid reports the owner's monthly fee flag. Test helper.
func (m *MemoryRepository) FeePaid(id uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok := m.owners[id]
	return ok && owner.monthlyFeePaid
}

// RenewalLink returns the payment the owner's renewal link points at. Test helper.
func (m *MemoryRepository) RenewalLink(id uuid.UUID) (uuid.UUID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	paymentID, ok := m.links[id]
	return paymentID, ok
}

// LatestPaymentID returns the owner's denormalized current-payment pointer. Test helper.
func (m *MemoryRepository) LatestPaymentID(id uuid.UUID) *uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok := m.owners[id]
	if !ok || owner.latestPaymentID == nil {
		return nil
	}
	paymentID := *owner.latestPaymentID
	return &paymentID
}

// ForceFeePaid overwrites the owner's fee flag without touching the access
// flag, simulating drift between the two projections. Test helper.
func (m *MemoryRepository) ForceFeePaid(id uuid.UUID, paid bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if owner, ok := m.owners[id]; ok {
		owner.monthlyFeePaid = paid
	}
}

func (m *MemoryRepository) RecordPayment(_ context.Context, params persistence.RecordPaymentParams) (persistence.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	owner, ok := m.owners[params.OwnerID]
	if !ok {
		return persistence.Payment{}, persistence.ErrOwnerNotFound
	}

	currentIdx := -1
	for i := range m.payments {
		if m.payments[i].BusinessOwnerID == params.OwnerID && m.payments[i].LatestPayment {
			currentIdx = i
			break
		}
	}

	if currentIdx >= 0 && params.PaidAt.Before(m.payments[currentIdx].ExpiryDate) {
		return persistence.Payment{}, persistence.ErrRenewalTooEarly
	}

	if currentIdx >= 0 {
		m.payments[currentIdx].LatestPayment = false
	}

	payment := persistence.Payment{
		PaymentID:       params.PaymentID,
		BusinessOwnerID: params.OwnerID,
		Amount:          params.Amount,
		DurationMonths:  params.DurationMonths,
		PaymentDate:     params.PaidAt,
		ExpiryDate:      params.ExpiresAt,
		LatestPayment:   true,
	}
	m.payments = append(m.payments, payment)

	m.links[params.OwnerID] = payment.PaymentID
	m.access[params.OwnerID] = true
	owner.monthlyFeePaid = true
	id := payment.PaymentID
	paidAt := payment.PaymentDate
	owner.latestPaymentID = &id
	owner.latestPaymentAt = &paidAt

	return payment, nil
}

func (m *MemoryRepository) ListPayments(_ context.Context, ownerID uuid.UUID) ([]persistence.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []persistence.Payment
	for _, p := range m.payments {
		if p.BusinessOwnerID == ownerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PaymentDate.After(out[j].PaymentDate)
	})
	return out, nil
}

func (m *MemoryRepository) CurrentPayment(_ context.Context, ownerID uuid.UUID) (persistence.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.payments {
		if p.BusinessOwnerID == ownerID && p.LatestPayment {
			return p, nil
		}
	}
	return persistence.Payment{}, persistence.ErrPaymentNotFound
}

func (m *MemoryRepository) AccessAllowed(_ context.Context, ownerID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.access[ownerID], nil
}

func (m *MemoryRepository) SweepExpired(_ context.Context, now time.Time) (persistence.SweepResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result persistence.SweepResult
	for _, p := range m.payments {
		if !p.LatestPayment || !p.ExpiryDate.Before(now) {
			continue
		}
		ownerID := p.BusinessOwnerID
		if m.access[ownerID] {
			m.access[ownerID] = false
			result.Updated++
		}
		if owner, ok := m.owners[ownerID]; ok {
			owner.monthlyFeePaid = false
		}
	}

	// Consistency pass: any owner whose access flag is off must not carry a
	// raised fee flag.
	for id, owner := range m.owners {
		if !m.access[id] && owner.monthlyFeePaid {
			owner.monthlyFeePaid = false
			result.Repaired++
		}
	}

	return result, nil
}
