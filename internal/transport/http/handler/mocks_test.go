package handler

import (
	"context"

	"github.com/regportal-api/internal/application/admin"
	"github.com/regportal-api/internal/application/otp"
	"github.com/regportal-api/internal/application/registration"
	"github.com/regportal-api/internal/domain"
	"github.com/stretchr/testify/mock"
)

// --- otp ---

type mockOTPSvc struct{ mock.Mock }

func (m *mockOTPSvc) Issue(ctx context.Context, req otp.IssueRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockOTPSvc) Verify(ctx context.Context, req otp.VerifyRequest) error {
	return m.Called(ctx, req).Error(0)
}

// --- registration ---

type mockRegistrationSvc struct{ mock.Mock }

func (m *mockRegistrationSvc) Submit(ctx context.Context, req registration.SubmitRequest, docs registration.Documents) (*domain.Registration, error) {
	args := m.Called(ctx, req, docs)
	if r, _ := args.Get(0).(*domain.Registration); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- admin ---

type mockAdminSvc struct{ mock.Mock }

func (m *mockAdminSvc) Login(ctx context.Context, req admin.LoginRequest) (*admin.LoginResult, error) {
	args := m.Called(ctx, req)
	if r, _ := args.Get(0).(*admin.LoginResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAdminSvc) ListRegistrations(ctx context.Context, limit int, cursor string) (*admin.RegistrationPage, error) {
	args := m.Called(ctx, limit, cursor)
	if p, _ := args.Get(0).(*admin.RegistrationPage); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAdminSvc) GetRegistration(ctx context.Context, registrationID string) (*domain.Registration, error) {
	args := m.Called(ctx, registrationID)
	if r, _ := args.Get(0).(*domain.Registration); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAdminSvc) OpenDocument(ctx context.Context, registrationID, kind string) (*admin.Document, error) {
	args := m.Called(ctx, registrationID, kind)
	if d, _ := args.Get(0).(*admin.Document); d != nil {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAdminSvc) CreateAdmin(ctx context.Context, email, password string) (*domain.Admin, error) {
	args := m.Called(ctx, email, password)
	if a, _ := args.Get(0).(*domain.Admin); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAdminSvc) ResetPassword(ctx context.Context, email, password string) error {
	return m.Called(ctx, email, password).Error(0)
}

// --- stats ---

type mockStatsSvc struct{ mock.Mock }

func (m *mockStatsSvc) Refresh(ctx context.Context) (*domain.LiveStats, error) {
	args := m.Called(ctx)
	if s, _ := args.Get(0).(*domain.LiveStats); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStatsSvc) Current(ctx context.Context) (*domain.LiveStats, error) {
	args := m.Called(ctx)
	if s, _ := args.Get(0).(*domain.LiveStats); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
