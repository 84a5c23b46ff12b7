package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/vcp-platform/vcp-backend/platform/go/persistence"
)

// Repository defines the persistence operations required by the owners service.
type Repository interface {
	Create(ctx context.Context, params persistence.CreateOwnerParams) (persistence.BusinessOwner, error)
	Get(ctx context.Context, id uuid.UUID) (persistence.BusinessOwner, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (persistence.BusinessOwner, error)
	FindByEmail(ctx context.Context, email string) (persistence.BusinessOwner, error)
	Update(ctx context.Context, id uuid.UUID, params persistence.UpdateOwnerParams) (persistence.BusinessOwner, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type postgresRepository struct {
	store *persistence.OwnerStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.OwnerStore) Repository {
	if store == nil {
		panic("owner store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) Create(ctx context.Context, params persistence.CreateOwnerParams) (persistence.BusinessOwner, error) {
	return r.store.CreateOwner(ctx, params)
}

func (r *postgresRepository) Get(ctx context.Context, id uuid.UUID) (persistence.BusinessOwner, error) {
	return r.store.GetOwner(ctx, id)
}

func (r *postgresRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (persistence.BusinessOwner, error) {
	return r.store.GetOwnerByUserID(ctx, userID)
}

func (r *postgresRepository) FindByEmail(ctx context.Context, email string) (persistence.BusinessOwner, error) {
	return r.store.FindOwnerByEmail(ctx, email)
}

func (r *postgresRepository) Update(ctx context.Context, id uuid.UUID, params persistence.UpdateOwnerParams) (persistence.BusinessOwner, error) {
	return r.store.UpdateOwner(ctx, id, params)
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.store.DeleteOwner(ctx, id)
}
