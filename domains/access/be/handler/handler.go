package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vcp-platform/vcp-backend/domains/access/be/service"
	platformauth "github.com/vcp-platform/vcp-backend/platform/go/auth"
	"github.com/vcp-platform/vcp-backend/platform/go/httpapi"
	platformlogging "github.com/vcp-platform/vcp-backend/platform/go/logging"
)

// OwnerResolver maps the authenticated user to their business owner record.
type OwnerResolver interface {
	OwnerIDForUser(ctx context.Context, creds platformauth.UserCredentials) (uuid.UUID, error)
}

// Handler exposes the access flag over HTTP and guards paid-only routes.
type Handler struct {
	svc      service.Service
	resolver OwnerResolver
	logger   *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, resolver OwnerResolver, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("access service is required")
	}
	if resolver == nil {
		panic("owner resolver is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, resolver: resolver, logger: logger}
}

// Routes mounts the access endpoints on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/access", h.get)
}

type accessResponse struct {
	AccessAllowed bool `json:"accessAllowed"`
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	allowed, err := h.svc.Allowed(r.Context(), ownerID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, accessResponse{AccessAllowed: allowed})
}

// RequirePaid rejects requests from owners whose subscription has lapsed with
// 402 Payment Required. Mount it in front of catalog write routes.
func (h *Handler) RequirePaid(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := h.ownerID(w, r)
		if !ok {
			return
		}

		allowed, err := h.svc.Allowed(r.Context(), ownerID)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		if !allowed {
			httpapi.WriteError(w, http.StatusPaymentRequired, httpapi.ErrorBody{
				Code:    httpapi.CodePaymentRequired,
				Message: "subscription lapsed, renew to regain catalog access",
			})
			return
		}

		next.ServeHTTP(w, r)
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
	platformlogging.FromRequest(r, h.logger).Error("access request failed", zap.Error(err))
	httpapi.WriteError(w, http.StatusInternalServerError, httpapi.ErrorBody{
		Code:    httpapi.CodeInternal,
		Message: "internal error",
	})
}
