package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vcp-platform/vcp-backend/domains/owners/be/service"
	platformauth "github.com/vcp-platform/vcp-backend/platform/go/auth"
	"github.com/vcp-platform/vcp-backend/platform/go/httpapi"
	platformlogging "github.com/vcp-platform/vcp-backend/platform/go/logging"
)

// Handler wires the owners service to its HTTP routes.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("owners service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the owner-profile endpoints. Callers mount the result behind
// the authentication middleware.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/business-owners/me", h.me)
	r.Put("/business-owners/me", h.update)
	r.Delete("/business-owners/me", h.delete)
}

// PublicRoutes mounts the endpoints that do not require authentication.
func (h *Handler) PublicRoutes(r chi.Router) {
	r.Get("/business-owners/{ownerID}", h.get)
}

type ownerResponse struct {
	ID              uuid.UUID  `json:"id"`
	Email           string     `json:"email"`
	Name            string     `json:"name"`
	Address         string     `json:"address,omitempty"`
	Telephone1      string     `json:"telephone1,omitempty"`
	Telephone2      string     `json:"telephone2,omitempty"`
	ImageURL        string     `json:"imageUrl,omitempty"`
	Role            string     `json:"role"`
	MonthlyFeePaid  bool       `json:"monthlyFeePaid"`
	LatestPaymentID *uuid.UUID `json:"latestPaymentId,omitempty"`
	LatestPaymentAt *time.Time `json:"latestPaymentDate,omitempty"`
}

type updateRequest struct {
	Name       *string `json:"name"`
	Address    *string `json:"address"`
	Telephone1 *string `json:"telephone1"`
	Telephone2 *string `json:"telephone2"`
	ImageURL   *string `json:"imageUrl"`
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	creds, ok := h.creds(w, r)
	if !ok {
		return
	}

	owner, err := h.svc.EnsureForUser(r.Context(), creds)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toOwnerResponse(owner))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	ownerID, err := uuid.Parse(chi.URLParam(r, "ownerID"))
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, httpapi.ErrorBody{
			Code:    httpapi.CodeValidation,
			Message: "ownerID must be a UUID",
		})
		return
	}

	owner, svcErr := h.svc.GetByID(r.Context(), ownerID)
	if svcErr != nil {
		h.writeServiceError(w, r, svcErr)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toOwnerResponse(owner))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	creds, ok := h.creds(w, r)
	if !ok {
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, httpapi.ErrorBody{
			Code:    httpapi.CodeValidation,
			Message: "invalid request body",
		})
		return
	}

	owner, err := h.svc.GetForUser(r.Context(), creds)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	updated, err := h.svc.Update(r.Context(), owner.ID, service.UpdateInput{
		Name:       req.Name,
		Address:    req.Address,
		Telephone1: req.Telephone1,
		Telephone2: req.Telephone2,
		ImageURL:   req.ImageURL,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toOwnerResponse(updated))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	creds, ok := h.creds(w, r)
	if !ok {
		return
	}

	owner, err := h.svc.GetForUser(r.Context(), creds)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	if err := h.svc.Delete(r.Context(), owner.ID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) creds(w http.ResponseWriter, r *http.Request) (platformauth.UserCredentials, bool) {
	creds, ok := platformauth.UserFromContext(r.Context())
	if !ok {
		httpapi.WriteError(w, http.StatusUnauthorized, httpapi.ErrorBody{
			Code:    httpapi.CodeUnauthorized,
			Message: "authentication required",
		})
		return platformauth.UserCredentials{}, false
	}
	return *creds, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		httpapi.WriteError(w, http.StatusBadRequest, httpapi.ErrorBody{
			Code:    httpapi.CodeValidation,
			Message: "invalid owner payload",
			Fields:  validationErr.Fields,
		})
	case errors.Is(err, service.ErrNotFound):
		httpapi.WriteError(w, http.StatusNotFound, httpapi.ErrorBody{
			Code:    httpapi.CodeNotFound,
			Message: "business owner not found",
		})
	case errors.Is(err, service.ErrConflict):
		httpapi.WriteError(w, http.StatusConflict, httpapi.ErrorBody{
			Code:    httpapi.CodeConflict,
			Message: "business owner already exists",
		})
	default:
		platformlogging.FromRequest(r, h.logger).Error("owners request failed", zap.Error(err))
		httpapi.WriteError(w, http.StatusInternalServerError, httpapi.ErrorBody{
			Code:    httpapi.CodeInternal,
			Message: "internal error",
		})
	}
}

func toOwnerResponse(owner service.Owner) ownerResponse {
	return ownerResponse{
		ID:              owner.ID,
		Email:           owner.Email,
		Name:            owner.Name,
		Address:         owner.Address,
		Telephone1:      owner.Telephone1,
		Telephone2:      owner.Telephone2,
		ImageURL:        owner.ImageURL,
		Role:            owner.Role,
		MonthlyFeePaid:  owner.MonthlyFeePaid,
		LatestPaymentID: owner.LatestPaymentID,
		LatestPaymentAt: owner.LatestPaymentAt,
	}
}
