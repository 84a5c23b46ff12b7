// Package service answers the single question the catalog write path needs:
// is this owner currently allowed to modify their catalog.
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrOwnerNotFound is returned for nil owner ids.
var ErrOwnerNotFound = errors.New("business owner not found")

// Repository is the read surface the access service needs.
type Repository interface {
	AccessAllowed(ctx context.Context, ownerID uuid.UUID) (bool, error)
}

// Service exposes the access flag projection.
type Service interface {
	Allowed(ctx context.Context, ownerID uuid.UUID) (bool, error)
}

type service struct {
	repo Repository
}

// New constructs an access Service backed by the provided repository.
func New(r Repository) Service {
	if r == nil {
		panic("access repository is required")
	}
	return &service{repo: r}
}

// Allowed reports whether the owner's catalog writes are currently permitted.
// Owners with no access record have never paid and are denied, not erred.
func (s *service) Allowed(ctx context.Context, ownerID uuid.UUID) (bool, error) {
	if ownerID == uuid.Nil {
		return false, ErrOwnerNotFound
	}
	return s.repo.AccessAllowed(ctx, ownerID)
}
