package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/regportal-api/internal/application/admin"
	"github.com/regportal-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// withChiParams injects chi URL params into the request context.
func withChiParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestLogin_HappyPath(t *testing.T) {
	svc := &mockAdminSvc{}
	exp := time.Date(2026, 3, 1, 17, 0, 0, 0, time.UTC)
	svc.On("Login", mock.Anything, admin.LoginRequest{Email: "ops@example.gov", Password: "correct horse"}).
		Return(&admin.LoginResult{
			AccessToken: "signed.jwt.token",
			ExpiresAt:   exp,
			Admin:       &domain.Admin{AdminID: "a1", Email: "ops@example.gov", Role: domain.RoleAdmin, PasswordHash: "$2a$10$hash"},
		}, nil)
	h := NewAdminHandler(svc)

	rr := httptest.NewRecorder()
	h.Login(rr, postJSON("/v1/admin/login", `{"email":"ops@example.gov","password":"correct horse"}`))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "$2a$10$hash")
	var resp LoginEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "signed.jwt.token", resp.AccessToken)
	assert.True(t, exp.Equal(resp.ExpiresAt))
	assert.Equal(t, "a1", resp.Admin.AdminID)
	svc.AssertExpectations(t)
}

func TestLogin_BadCredentials(t *testing.T) {
	svc := &mockAdminSvc{}
	svc.On("Login", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized))
	h := NewAdminHandler(svc)

	rr := httptest.NewRecorder()
	h.Login(rr, postJSON("/v1/admin/login", `{"email":"ops@example.gov","password":"nope"}`))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	env := decodeError(t, rr)
	assert.Equal(t, CodeUnauthenticated, env.Code)
	assert.Equal(t, "invalid credentials", env.Error)
}

func TestListRegistrations_PassesLimitAndCursor(t *testing.T) {
	svc := &mockAdminSvc{}
	svc.On("ListRegistrations", mock.Anything, 10, "abc").Return(&admin.RegistrationPage{
		Items:      []domain.Registration{{RegistrationID: "r1"}, {RegistrationID: "r2"}},
		NextCursor: "next",
	}, nil)
	h := NewAdminHandler(svc)

	rr := httptest.NewRecorder()
	h.ListRegistrations(rr, httptest.NewRequest(http.MethodGet, "/v1/admin/registrations?limit=10&cursor=abc", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp RegistrationsEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "r1", resp.Data[0].RegistrationID)
	assert.Equal(t, "next", resp.NextCursor)
	svc.AssertExpectations(t)
}

func TestListRegistrations_EmptyPageIsArray(t *testing.T) {
	svc := &mockAdminSvc{}
	svc.On("ListRegistrations", mock.Anything, 0, "").Return(&admin.RegistrationPage{}, nil)
	h := NewAdminHandler(svc)

	rr := httptest.NewRecorder()
	h.ListRegistrations(rr, httptest.NewRequest(http.MethodGet, "/v1/admin/registrations", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"data":[]}`, rr.Body.String())
}

func TestListRegistrations_InvalidLimit(t *testing.T) {
	for _, raw := range []string{"abc", "0", "-5"} {
		t.Run(raw, func(t *testing.T) {
			svc := &mockAdminSvc{}
			h := NewAdminHandler(svc)

			rr := httptest.NewRecorder()
			h.ListRegistrations(rr, httptest.NewRequest(http.MethodGet, "/v1/admin/registrations?limit="+raw, nil))

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			svc.AssertNotCalled(t, "ListRegistrations", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestListRegistrations_BadCursor(t *testing.T) {
	svc := &mockAdminSvc{}
	svc.On("ListRegistrations", mock.Anything, 0, "%%%").Return(nil, fmt.Errorf("invalid cursor: %w", domain.ErrInvalidArgument))
	h := NewAdminHandler(svc)

	rr := httptest.NewRecorder()
	h.ListRegistrations(rr, httptest.NewRequest(http.MethodGet, "/v1/admin/registrations?cursor=%25%25%25", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetRegistration_Found(t *testing.T) {
	svc := &mockAdminSvc{}
	svc.On("GetRegistration", mock.Anything, "r1").Return(&domain.Registration{RegistrationID: "r1", FirstName: "ADA"}, nil)
	h := NewAdminHandler(svc)

	rr := httptest.NewRecorder()
	h.GetRegistration(rr, withChiParams(httptest.NewRequest(http.MethodGet, "/v1/admin/registrations/r1", nil), "id", "r1"))

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp domain.Registration
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "ADA", resp.FirstName)
}

func TestGetRegistration_NotFound(t *testing.T) {
	svc := &mockAdminSvc{}
	svc.On("GetRegistration", mock.Anything, "missing").Return(nil, domain.ErrNotFound)
	h := NewAdminHandler(svc)

	rr := httptest.NewRecorder()
	h.GetRegistration(rr, withChiParams(httptest.NewRequest(http.MethodGet, "/v1/admin/registrations/missing", nil), "id", "missing"))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, CodeNotFound, decodeError(t, rr).Code)
}

func TestDocument_Streams(t *testing.T) {
	svc := &mockAdminSvc{}
	svc.On("OpenDocument", mock.Anything, "r1", "passport").Return(&admin.Document{
		Body:        io.NopCloser(strings.NewReader("image-bytes")),
		ContentType: "image/png",
		Key:         "passport/r1/1700000000000_face.png",
	}, nil)
	h := NewAdminHandler(svc)

	r := withChiParams(httptest.NewRequest(http.MethodGet, "/v1/admin/registrations/r1/documents/passport", nil),
		"id", "r1", "kind", "passport")
	rr := httptest.NewRecorder()
	h.Document(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), `filename="1700000000000_face.png"`)
	assert.Equal(t, "image-bytes", rr.Body.String())
}

func TestDocument_UnknownKind(t *testing.T) {
	svc := &mockAdminSvc{}
	svc.On("OpenDocument", mock.Anything, "r1", "selfie").Return(nil, fmt.Errorf("unknown document kind: %w", domain.ErrInvalidArgument))
	h := NewAdminHandler(svc)

	r := withChiParams(httptest.NewRequest(http.MethodGet, "/", nil), "id", "r1", "kind", "selfie")
	rr := httptest.NewRecorder()
	h.Document(rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
