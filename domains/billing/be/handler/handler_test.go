package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vcp-platform/vcp-backend/domains/billing/be/service"
	platformauth "github.com/vcp-platform/vcp-backend/platform/go/auth"
)

type mockService struct {
	createFn  func(ctx context.Context, ownerID uuid.UUID, input service.CreateInput) (service.Payment, error)
	listFn    func(ctx context.Context, ownerID uuid.UUID) ([]service.Payment, error)
	currentFn func(ctx context.Context, ownerID uuid.UUID) (service.CurrentPayment, error)
}

func (m *mockService) CreateOrRenew(ctx context.Context, ownerID uuid.UUID, input service.CreateInput) (service.Payment, error) {
	if m.createFn == nil {
		panic("createFn not configured")
	}
	return m.createFn(ctx, ownerID, input)
}

func (m *mockService) List(ctx context.Context, ownerID uuid.UUID) ([]service.Payment, error) {
	if m.listFn == nil {
		panic("listFn not configured")
	}
	return m.listFn(ctx, ownerID)
}

func (m *mockService) Current(ctx context.Context, ownerID uuid.UUID) (service.CurrentPayment, error) {
	if m.currentFn == nil {
		panic("currentFn not configured")
	}
	return m.currentFn(ctx, ownerID)
}

type staticResolver struct {
	ownerID uuid.UUID
	err     error
}

func (s *staticResolver) OwnerIDForUser(context.Context, platformauth.UserCredentials) (uuid.UUID, error) {
	return s.ownerID, s.err
}

func newRequest(t *testing.T, method, target, body string) *http.Request {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)

	creds := &platformauth.UserCredentials{UserID: uuid.NewString(), Email: "owner@example.com"}
	return req.WithContext(platformauth.WithUser(req.Context(), creds))
}

func serve(h *Handler, req *http.Request) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	h.Routes(router)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreatePayment(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	svc := &mockService{
		createFn: func(_ context.Context, gotOwner uuid.UUID, input service.CreateInput) (service.Payment, error) {
			require.Equal(t, ownerID, gotOwner)
			require.Equal(t, 50.0, input.Amount)
			return service.Payment{
				ID:             uuid.New(),
				OwnerID:        gotOwner,
				Amount:         input.Amount,
				DurationMonths: input.DurationMonths,
				PaidAt:         now,
				ExpiresAt:      now.AddDate(0, 0, 30),
				Current:        true,
			}, nil
		},
	}
	h := New(svc, &staticResolver{ownerID: ownerID}, zap.NewNop())

	rec := serve(h, newRequest(t, http.MethodPost, "/payments", `{"amount":50,"durationMonths":1}`))
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, ownerID.String(), body["businessOwnerId"])
	require.Equal(t, true, body["latestPayment"])
}

func TestCreatePaymentTooEarly(t *testing.T) {
	t.Parallel()

	svc := &mockService{
		createFn: func(context.Context, uuid.UUID, service.CreateInput) (service.Payment, error) {
			return service.Payment{}, service.ErrRenewalTooEarly
		},
	}
	h := New(svc, &staticResolver{ownerID: uuid.New()}, zap.NewNop())

	rec := serve(h, newRequest(t, http.MethodPost, "/payments", `{"amount":50,"durationMonths":1}`))
	require.Equal(t, http.StatusConflict, rec.Code)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "renewal_too_early", body.Error.Code)
}

func TestCreatePaymentValidation(t *testing.T) {
	t.Parallel()

	svc := &mockService{
		createFn: func(context.Context, uuid.UUID, service.CreateInput) (service.Payment, error) {
			return service.Payment{}, &service.ValidationError{
				Fields: service.FieldErrors{"amount": {"amount must be greater than zero"}},
			}
		},
	}
	h := New(svc, &staticResolver{ownerID: uuid.New()}, zap.NewNop())

	rec := serve(h, newRequest(t, http.MethodPost, "/payments", `{"amount":0,"durationMonths":1}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreatePaymentBadJSON(t *testing.T) {
	t.Parallel()

	h := New(&mockService{}, &staticResolver{ownerID: uuid.New()}, zap.NewNop())

	rec := serve(h, newRequest(t, http.MethodPost, "/payments", `{not json`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreatePaymentUnauthenticated(t *testing.T) {
	t.Parallel()

	h := New(&mockService{}, &staticResolver{ownerID: uuid.New()}, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(`{"amount":50,"durationMonths":1}`))
	rec := serve(h, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCurrentPaymentNotFound(t *testing.T) {
	t.Parallel()

	svc := &mockService{
		currentFn: func(context.Context, uuid.UUID) (service.CurrentPayment, error) {
			return service.CurrentPayment{}, service.ErrNotFound
		},
	}
	h := New(svc, &staticResolver{ownerID: uuid.New()}, zap.NewNop())

	rec := serve(h, newRequest(t, http.MethodGet, "/payments/current", ""))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCurrentPaymentIncludesRemainingDays(t *testing.T) {
	t.Parallel()

	svc := &mockService{
		currentFn: func(_ context.Context, ownerID uuid.UUID) (service.CurrentPayment, error) {
			return service.CurrentPayment{
				Payment:       service.Payment{ID: uuid.New(), OwnerID: ownerID, Current: true},
				RemainingDays: 12,
			}, nil
		},
	}
	h := New(svc, &staticResolver{ownerID: uuid.New()}, zap.NewNop())

	rec := serve(h, newRequest(t, http.MethodGet, "/payments/current", ""))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, float64(12), body["remainingDays"])
}

func TestListPayments(t *testing.T) {
	t.Parallel()

	svc := &mockService{
		listFn: func(_ context.Context, ownerID uuid.UUID) ([]service.Payment, error) {
			return []service.Payment{
				{ID: uuid.New(), OwnerID: ownerID, Current: true},
				{ID: uuid.New(), OwnerID: ownerID},
			}, nil
		},
	}
	h := New(svc, &staticResolver{ownerID: uuid.New()}, zap.NewNop())

	rec := serve(h, newRequest(t, http.MethodGet, "/payments", ""))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items []json.RawMessage `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 2)
}
