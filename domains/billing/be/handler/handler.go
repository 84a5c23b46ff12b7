package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vcp-platform/vcp-backend/domains/billing/be/service"
	platformauth "github.com/vcp-platform/vcp-backend/platform/go/auth"
	"github.com/vcp-platform/vcp-backend/platform/go/httpapi"
	platformlogging "github.com/vcp-platform/vcp-backend/platform/go/logging"
)

// OwnerResolver maps the authenticated user to their business owner record,
// creating it on first use.
type OwnerResolver interface {
	OwnerIDForUser(ctx context.Context, creds platformauth.UserCredentials) (uuid.UUID, error)
}

// Handler wires the billing service to its HTTP routes.
type Handler struct {
	svc      service.Service
	resolver OwnerResolver
	logger   *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, resolver OwnerResolver, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("billing service is required")
	}
	if resolver == nil {
		panic("owner resolver is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, resolver: resolver, logger: logger}
}

// Routes mounts the billing endpoints on the given router. Callers mount the
// result behind the authentication middleware.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/payments", h.create)
	r.Get("/payments", h.list)
	r.Get("/payments/current", h.current)
}

type createRequest struct {
	Amount         float64 `json:"amount"`
	DurationMonths float64 `json:"durationMonths"`
}

type paymentResponse struct {
	ID             uuid.UUID `json:"id"`
	OwnerID        uuid.UUID `json:"businessOwnerId"`
	Amount         float64   `json:"amount"`
	DurationMonths float64   `json:"durationMonths"`
	PaidAt         time.Time `json:"paymentDate"`
	ExpiresAt      time.Time `json:"expiryDate"`
	Current        bool      `json:"latestPayment"`
}

type currentPaymentResponse struct {
	paymentResponse
	RemainingDays int `json:"remainingDays"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, httpapi.ErrorBody{
			Code:    httpapi.CodeValidation,
			Message: "invalid request body",
		})
		return
	}

	payment, err := h.svc.CreateOrRenew(r.Context(), ownerID, service.CreateInput{
		Amount:         req.Amount,
		DurationMonths: req.DurationMonths,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusCreated, toPaymentResponse(payment))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	payments, err := h.svc.List(r.Context(), ownerID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	items := make([]paymentResponse, 0, len(payments))
	for _, payment := range payments {
		items = append(items, toPaymentResponse(payment))
	}
	httpapi.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) current(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	current, err := h.svc.Current(r.Context(), ownerID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, currentPaymentResponse{
		paymentResponse: toPaymentResponse(current.Payment),
		RemainingDays:   current.RemainingDays,
	})
}

func (h *Handler) ownerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	creds, ok := platformauth.UserFromContext(r.Context())
	if !ok {
		httpapi.WriteError(w, http.StatusUnauthorized, httpapi.ErrorBody{
			Code:    httpapi.CodeUnauthorized,
			Message: "authentication required",
		})
		return uuid.Nil, false
	}

	ownerID, err := h.resolver.OwnerIDForUser(r.Context(), *creds)
	if err != nil {
		h.writeServiceError(w, r, err)
		return uuid.Nil, false
	}
	return ownerID, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		httpapi.WriteError(w, http.StatusBadRequest, httpapi.ErrorBody{
			Code:    httpapi.CodeValidation,
			Message: "invalid payment payload",
			Fields:  validationErr.Fields,
		})
	case errors.Is(err, service.ErrRenewalTooEarly):
		httpapi.WriteError(w, http.StatusConflict, httpapi.ErrorBody{
			Code:    httpapi.CodeRenewalTooEarly,
			Message: "current subscription has not expired yet",
		})
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrOwnerNotFound):
		httpapi.WriteError(w, http.StatusNotFound, httpapi.ErrorBody{
			Code:    httpapi.CodeNotFound,
			Message: "resource not found",
		})
	default:
		platformlogging.FromRequest(r, h.logger).Error("billing request failed", zap.Error(err))
		httpapi.WriteError(w, http.StatusInternalServerError, httpapi.ErrorBody{
			Code:    httpapi.CodeInternal,
			Message: "internal error",
		})
	}
}

func toPaymentResponse(payment service.Payment) paymentResponse {
	return paymentResponse{
		ID:             payment.ID,
		OwnerID:        payment.OwnerID,
		Amount:         payment.Amount,
		DurationMonths: payment.DurationMonths,
		PaidAt:         payment.PaidAt,
		ExpiresAt:      payment.ExpiresAt,
		Current:        payment.Current,
	}
}
