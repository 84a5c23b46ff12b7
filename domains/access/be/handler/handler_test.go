package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	platformauth "github.com/vcp-platform/vcp-backend/platform/go/auth"
)

type mockService struct {
	allowedFn func(ctx context.Context, ownerID uuid.UUID) (bool, error)
}

func (m *mockService) Allowed(ctx context.Context, ownerID uuid.UUID) (bool, error) {
	if m.allowedFn == nil {
		panic("allowedFn not configured")
	}
	return m.allowedFn(ctx, ownerID)
}

type staticResolver struct {
	ownerID uuid.UUID
}

func (s *staticResolver) OwnerIDForUser(context.Context, platformauth.UserCredentials) (uuid.UUID, error) {
	return s.ownerID, nil
}

func authedRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	creds := &platformauth.UserCredentials{UserID: uuid.NewString(), Email: "owner@example.com"}
	return req.WithContext(platformauth.WithUser(req.Context(), creds))
}

func TestGetAccess(t *testing.T) {
	t.Parallel()

	h := New(
		&mockService{allowedFn: func(context.Context, uuid.UUID) (bool, error) { return true, nil }},
		&staticResolver{ownerID: uuid.New()},
		zap.NewNop(),
	)

	router := chi.NewRouter()
	h.Routes(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/access"))
	require.Equal(t, http.StatusOK, rec.Code)

	var body accessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.AccessAllowed)
}

func TestRequirePaidAllows(t *testing.T) {
	t.Parallel()

	h := New(
		&mockService{allowedFn: func(context.Context, uuid.UUID) (bool, error) { return true, nil }},
		&staticResolver{ownerID: uuid.New()},
		zap.NewNop(),
	)

	var reached bool
	guarded := h.RequirePaid(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, authedRequest(http.MethodPost, "/catalog/items"))
	require.True(t, reached)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequirePaidBlocksLapsed(t *testing.T) {
	t.Parallel()

	h := New(
		&mockService{allowedFn: func(context.Context, uuid.UUID) (bool, error) { return false, nil }},
		&staticResolver{ownerID: uuid.New()},
		zap.NewNop(),
	)

	guarded := h.RequirePaid(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for lapsed subscriptions")
	}))

	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, authedRequest(http.MethodPost, "/catalog/items"))
	require.Equal(t, http.StatusPaymentRequired, rec.Code)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "payment_required", body.Error.Code)
}

func TestRequirePaidRequiresAuth(t *testing.T) {
	t.Parallel()

	h := New(
		&mockService{},
		&staticResolver{ownerID: uuid.New()},
		zap.NewNop(),
	)

	guarded := h.RequirePaid(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without credentials")
	}))

	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/catalog/items", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
