package repo

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/vcp-platform/vcp-backend/platform/go/persistence"
)

// MemoryRepository is an in-memory Repository used by tests.
type MemoryRepository struct {
	mu     sync.Mutex
	owners map[uuid.UUID]persistence.BusinessOwner
}

// NewMemoryRepository returns an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{owners: make(map[uuid.UUID]persistence.BusinessOwner)}
}

func (m *MemoryRepository) Create(_ context.Context, params persistence.CreateOwnerParams) (persistence.BusinessOwner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, owner := range m.owners {
		if owner.UserID == params.UserID || strings.EqualFold(owner.Email, params.Email) {
			return persistence.BusinessOwner{}, persistence.ErrOwnerConflict
		}
	}

	owner := persistence.BusinessOwner{
		ID:     params.ID,
		UserID: params.UserID,
		Email:  params.Email,
		Name:   params.Name,
		Role:   "owner",
	}
	m.owners[owner.ID] = owner
	return owner, nil
}

func (m *MemoryRepository) Get(_ context.Context, id uuid.UUID) (persistence.BusinessOwner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	owner, ok := m.owners[id]
	if !ok {
		return persistence.BusinessOwner{}, persistence.ErrOwnerNotFound
	}
	return owner, nil
}

func (m *MemoryRepository) GetByUserID(_ context.Context, userID uuid.UUID) (persistence.BusinessOwner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, owner := range m.owners {
		if owner.UserID == userID {
			return owner, nil
		}
	}
	return persistence.BusinessOwner{}, persistence.ErrOwnerNotFound
}

func (m *MemoryRepository) FindByEmail(_ context.Context, email string) (persistence.BusinessOwner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, owner := range m.owners {
		if strings.EqualFold(owner.Email, strings.TrimSpace(email)) {
			return owner, nil
		}
	}
	return persistence.BusinessOwner{}, persistence.ErrOwnerNotFound
}

func (m *MemoryRepository) Update(_ context.Context, id uuid.UUID, params persistence.UpdateOwnerParams) (persistence.BusinessOwner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	owner, ok := m.owners[id]
	if !ok {
		return persistence.BusinessOwner{}, persistence.ErrOwnerNotFound
	}

	if params.Name != nil {
		owner.Name = strings.TrimSpace(*params.Name)
	}
	if params.Address != nil {
		owner.Address = strings.TrimSpace(*params.Address)
	}
	if params.Telephone1 != nil {
		owner.Telephone1 = strings.TrimSpace(*params.Telephone1)
	}
	if params.Telephone2 != nil {
		owner.Telephone2 = strings.TrimSpace(*params.Telephone2)
	}
	if params.ImageURL != nil {
		owner.ImageURL = strings.TrimSpace(*params.ImageURL)
	}

	m.owners[id] = owner
	return owner, nil
}

func (m *MemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.owners[id]; !ok {
		return persistence.ErrOwnerNotFound
	}
	delete(m.owners, id)
	return nil
}
