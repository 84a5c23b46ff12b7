package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vcp-platform/vcp-backend/domains/owners/be/repo"
	platformauth "github.com/vcp-platform/vcp-backend/platform/go/auth"
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
	ErrNotFound = errors.New("business owner not found")
	ErrConflict = errors.New("business owner conflict")
)

// Owner is the domain view of a business owner record.
type Owner struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Email           string
	Name            string
	Address         string
	Telephone1      string
	Telephone2      string
	ImageURL        string
	Role            string
	MonthlyFeePaid  bool
	LatestPaymentID *uuid.UUID
	LatestPaymentAt *time.Time
}

// UpdateInput encapsulates the profile fields owners can modify.
type UpdateInput struct {
	Name       *string
	Address    *string
	Telephone1 *string
	Telephone2 *string
	ImageURL   *string
}

// Service defines the business operations for the owners domain.
type Service interface {
	EnsureForUser(ctx context.Context, creds platformauth.UserCredentials) (Owner, error)
	GetForUser(ctx context.Context, creds platformauth.UserCredentials) (Owner, error)
	GetByID(ctx context.Context, id uuid.UUID) (Owner, error)
	FindByEmail(ctx context.Context, email string) (Owner, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Owner, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// OwnerIDForUser satisfies the resolver interface the billing and access
	// handlers depend on.
	OwnerIDForUser(ctx context.Context, creds platformauth.UserCredentials) (uuid.UUID, error)
}

type service struct {
	repo repo.Repository
}

// New constructs an owners Service backed by the provided repository.
func New(r repo.Repository) Service {
	if r == nil {
		panic("owners repository is required")
	}
	return &service{repo: r}
}

// EnsureForUser returns the owner record for the authenticated user, creating
// it on first contact. Two concurrent first requests race on the user_id
// unique constraint; the loser re-reads the winner's row.
func (s *service) EnsureForUser(ctx context.Context, creds platformauth.UserCredentials) (Owner, error) {
	userID, err := uuid.Parse(creds.UserID)
	if err != nil {
		return Owner{}, newValidationError("userId", "userId must be a UUID")
	}

	record, err := s.repo.GetByUserID(ctx, userID)
	if err == nil {
		return mapOwner(record), nil
	}
	if !errors.Is(err, persistence.ErrOwnerNotFound) {
		return Owner{}, err
	}

	created, err := s.repo.Create(ctx, persistence.CreateOwnerParams{
		ID:     uuid.New(),
		UserID: userID,
		Email:  strings.ToLower(strings.TrimSpace(creds.Email)),
		Name:   creds.Email,
	})
	if err != nil {
		if errors.Is(err, persistence.ErrOwnerConflict) {
			record, getErr := s.repo.GetByUserID(ctx, userID)
			if getErr != nil {
				return Owner{}, getErr
			}
			return mapOwner(record), nil
		}
		return Owner{}, err
	}

	return mapOwner(created), nil
}

func (s *service) GetForUser(ctx context.Context, creds platformauth.UserCredentials) (Owner, error) {
	userID, err := uuid.Parse(creds.UserID)
	if err != nil {
		return Owner{}, ErrNotFound
	}

	record, repoErr := s.repo.GetByUserID(ctx, userID)
	if repoErr != nil {
		return Owner{}, mapPersistenceError(repoErr)
	}
	return mapOwner(record), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (Owner, error) {
	if id == uuid.Nil {
		return Owner{}, ErrNotFound
	}

	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return Owner{}, mapPersistenceError(err)
	}
	return mapOwner(record), nil
}

func (s *service) FindByEmail(ctx context.Context, email string) (Owner, error) {
	if strings.TrimSpace(email) == "" {
		return Owner{}, newValidationError("email", "email is required")
	}

	record, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return Owner{}, mapPersistenceError(err)
	}
	return mapOwner(record), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Owner, error) {
	if id == uuid.Nil {
		return Owner{}, ErrNotFound
	}

	params, err := buildUpdateParams(input)
	if err != nil {
		return Owner{}, err
	}

	record, repoErr := s.repo.Update(ctx, id, params)
	if repoErr != nil {
		return Owner{}, mapPersistenceError(repoErr)
	}
	return mapOwner(record), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrNotFound
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return mapPersistenceError(err)
	}
	return nil
}

func (s *service) OwnerIDForUser(ctx context.Context, creds platformauth.UserCredentials) (uuid.UUID, error) {
	owner, err := s.EnsureForUser(ctx, creds)
	if err != nil {
		return uuid.Nil, err
	}
	return owner.ID, nil
}

func buildUpdateParams(input UpdateInput) (persistence.UpdateOwnerParams, error) {
	fieldErrors := FieldErrors{}
	params := persistence.UpdateOwnerParams{}
	fieldsSet := 0

	setField := func(field string, value *string, target **string, allowEmpty bool) {
		if value == nil {
			return
		}
		trimmed := strings.TrimSpace(*value)
		if trimmed == "" && !allowEmpty {
			fieldErrors.add(field, field+" cannot be empty")
			return
		}
		*target = &trimmed
		fieldsSet++
	}

	setField("name", input.Name, &params.Name, false)
	setField("address", input.Address, &params.Address, true)
	setField("telephone1", input.Telephone1, &params.Telephone1, true)
	setField("telephone2", input.Telephone2, &params.Telephone2, true)
	setField("imageUrl", input.ImageURL, &params.ImageURL, true)

	if fieldsSet == 0 && len(fieldErrors) == 0 {
		fieldErrors.add("payload", "at least one field must be provided")
	}
	if len(fieldErrors) > 0 {
		return persistence.UpdateOwnerParams{}, &ValidationError{Fields: fieldErrors}
	}
	return params, nil
}

func mapOwner(record persistence.BusinessOwner) Owner {
	return Owner{
		ID:              record.ID,
		UserID:          record.UserID,
		Email:           record.Email,
		Name:            record.Name,
		Address:         record.Address,
		Telephone1:      record.Telephone1,
		Telephone2:      record.Telephone2,
		ImageURL:        record.ImageURL,
		Role:            record.Role,
		MonthlyFeePaid:  record.MonthlyFeePaid,
		LatestPaymentID: record.LatestPaymentID,
		LatestPaymentAt: record.LatestPaymentAt,
	}
}

func mapPersistenceError(err error) error {
	switch {
	case errors.Is(err, persistence.ErrOwnerNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrOwnerConflict):
		return ErrConflict
	default:
		return err
	}
}

func newValidationError(field, message string) error {
	return &ValidationError{Fields: FieldErrors{field: {message}}}
}
