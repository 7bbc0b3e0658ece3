package http

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/regportal-api/internal/application/admin"
	"github.com/regportal-api/internal/application/otp"
	"github.com/regportal-api/internal/application/registration"
	"github.com/regportal-api/internal/config"
	"github.com/regportal-api/internal/domain"
	jwtinfra "github.com/regportal-api/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOTP struct{ issued int }

func (s *stubOTP) Issue(context.Context, otp.IssueRequest) error   { s.issued++; return nil }
func (s *stubOTP) Verify(context.Context, otp.VerifyRequest) error { return nil }

type stubRegistration struct{}

func (stubRegistration) Submit(context.Context, registration.SubmitRequest, registration.Documents) (*domain.Registration, error) {
	return &domain.Registration{RegistrationID: "r1"}, nil
}

type stubAdmin struct{ admin.Service }

func (stubAdmin) Login(context.Context, admin.LoginRequest) (*admin.LoginResult, error) {
	return nil, domain.ErrUnauthorized
}

func (stubAdmin) ListRegistrations(context.Context, int, string) (*admin.RegistrationPage, error) {
	return &admin.RegistrationPage{Items: []domain.Registration{{RegistrationID: "r1"}}}, nil
}

type stubStats struct{}

func (stubStats) Refresh(context.Context) (*domain.LiveStats, error) {
	return &domain.LiveStats{Total: 1}, nil
}

func (stubStats) Current(context.Context) (*domain.LiveStats, error) {
	return &domain.LiveStats{Total: 1}, nil
}

func newTestProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privKey)})
	require.NoError(t, os.WriteFile(privPath, privPEM, 0600))
	pubBytes, err := x509.MarshalPKIXPublicKey(&privKey.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0600))

	p, err := jwtinfra.NewProvider(privPath, pubPath, time.Hour)
	require.NoError(t, err)
	return p
}

func newTestRouter(t *testing.T, burst int) (http.Handler, *jwtinfra.Provider, *stubOTP) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	p := newTestProvider(t)
	o := &stubOTP{}
	cfg := &config.Config{AllowedOrigins: []string{"*"}, RateLimitRPS: 0.001, RateLimitBurst: burst}
	r := NewRouter(ctx, cfg, &Deps{
		OTP:          o,
		Registration: stubRegistration{},
		Admin:        stubAdmin{},
		Stats:        stubStats{},
		Tokens:       p,
	})
	return r, p, o
}

func TestRouter_Ping(t *testing.T) {
	r, _, _ := newTestRouter(t, 5)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"pong"}`, rr.Body.String())
}

func TestRouter_PublicStats(t *testing.T) {
	r, _, _ := newTestRouter(t, 5)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/stats", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_AdminRoutesRequireToken(t *testing.T) {
	r, _, _ := newTestRouter(t, 5)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/v1/admin/registrations"},
		{http.MethodGet, "/v1/admin/registrations/r1"},
		{http.MethodGet, "/v1/admin/registrations/r1/documents/passport"},
		{http.MethodPost, "/v1/admin/stats/refresh"},
	} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code, tc.path)
	}
}

func TestRouter_AdminRoutesRejectOtherRoles(t *testing.T) {
	r, p, _ := newTestRouter(t, 5)
	token, _, err := p.Sign("a2", "viewer@example.gov", "viewer")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/registrations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRouter_AdminListWithToken(t *testing.T) {
	r, p, _ := newTestRouter(t, 5)
	token, _, err := p.Sign("a1", "ops@example.gov", domain.RoleAdmin)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/registrations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"id":"r1"`)
}

func TestRouter_IssueIsRateLimited(t *testing.T) {
	r, _, o := newTestRouter(t, 2)
	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/v1/otp/issue", bytes.NewBufferString(`{"email":"ada@example.com"}`))
		req.RemoteAddr = "203.0.113.7:4000"
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, 2, o.issued)
}

func TestRouter_SubmitAndLoginHaveOwnBuckets(t *testing.T) {
	r, _, _ := newTestRouter(t, 2)
	const ip = "203.0.113.8:4000"
	post := func(path, body string) int {
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
		req.RemoteAddr = ip
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		return rr.Code
	}

	post("/v1/otp/issue", `{"email":"ada@example.com"}`)
	post("/v1/otp/verify", `{"email":"ada@example.com","code":"000000"}`)
	require.Equal(t, http.StatusTooManyRequests, post("/v1/otp/issue", `{"email":"ada@example.com"}`))

	assert.NotEqual(t, http.StatusTooManyRequests, post("/v1/registrations", ``))
	assert.NotEqual(t, http.StatusTooManyRequests, post("/v1/admin/login", `{"email":"ops@example.gov","password":"x"}`))
}

func TestRouter_MetricsExposesHTTPCounters(t *testing.T) {
	r, _, _ := newTestRouter(t, 5)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), `route="/ping"`))
}
