package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/regportal-api/internal/domain"
	"github.com/regportal-api/internal/metrics"
	"github.com/regportal-api/internal/pkg/logger"
	"github.com/regportal-api/internal/pkg/otpcode"
	"go.uber.org/zap"
)

// Records outlive their expiry by this much before DynamoDB TTL sweeps them.
const retention = 24 * time.Hour

type IssueRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type VerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Service issues and checks one-time email codes. There is one live code
// per email; issuing again replaces it.
type Service interface {
	Issue(ctx context.Context, req IssueRequest) error
	Verify(ctx context.Context, req VerifyRequest) error
}

type verificationStore interface {
	Put(ctx context.Context, v *domain.EmailVerification) error
	Get(ctx context.Context, email string) (*domain.EmailVerification, error)
	MarkVerified(ctx context.Context, email, code string) error
}

// Mailer sends one transactional email.
type Mailer interface {
	Send(ctx context.Context, msg domain.EmailMessage) error
}

type ServiceDeps struct {
	Store    verificationStore
	Mailer   Mailer
	From     string
	FromName string
	AppName  string
	// Now and NewCode default to time.Now and otpcode.New.
	Now     func() time.Time
	NewCode func() (string, error)
}

type service struct {
	store    verificationStore
	mailer   Mailer
	from     string
	fromName string
	appName  string
	now      func() time.Time
	newCode  func() (string, error)
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		store:    deps.Store,
		mailer:   deps.Mailer,
		from:     deps.From,
		fromName: deps.FromName,
		appName:  deps.AppName,
		now:      deps.Now,
		newCode:  deps.NewCode,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newCode == nil {
		s.newCode = otpcode.New
	}
	return s
}

func (s *service) Issue(ctx context.Context, req IssueRequest) error {
	if req.Email == "" {
		return fmt.Errorf("email is required: %w", domain.ErrInvalidArgument)
	}

	code, err := s.newCode()
	if err != nil {
		metrics.OTPIssuedTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("%v: %w", err, domain.ErrInternal)
	}
	now := s.now()
	expiresAt := now.Add(domain.OTPLifetime)
	v := &domain.EmailVerification{
		Email:     req.Email,
		Code:      code,
		ExpiresAt: expiresAt.UnixMilli(),
		Verified:  false,
		CreatedAt: now.UTC(),
		TTL:       expiresAt.Add(retention).Unix(),
	}
	if err := s.store.Put(ctx, v); err != nil {
		metrics.OTPIssuedTotal.WithLabelValues("store_failed").Inc()
		return fmt.Errorf("store verification: %v: %w", err, domain.ErrInternal)
	}

	msg, err := s.buildMessage(req.Email, req.Name, code)
	if err != nil {
		metrics.OTPIssuedTotal.WithLabelValues("send_failed").Inc()
		return fmt.Errorf("render verification email: %v: %w", err, domain.ErrInternal)
	}
	// The record stays in place when sending fails; the caller retries with a new issue.
	if err := s.mailer.Send(ctx, msg); err != nil {
		metrics.OTPIssuedTotal.WithLabelValues("send_failed").Inc()
		logger.Warn(ctx, "verification email failed", zap.String("email", req.Email), zap.Error(err))
		return fmt.Errorf("failed to send verification email: %w", domain.ErrInternal)
	}
	metrics.OTPIssuedTotal.WithLabelValues("sent").Inc()
	return nil
}

func (s *service) Verify(ctx context.Context, req VerifyRequest) error {
	if req.Email == "" || req.Code == "" {
		metrics.OTPVerifyTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return fmt.Errorf("email and code are required: %w", domain.ErrInvalidArgument)
	}

	v, err := s.store.Get(ctx, req.Email)
	if errors.Is(err, domain.ErrNotFound) {
		metrics.OTPVerifyTotal.WithLabelValues(metrics.OutcomeNotFound).Inc()
		return fmt.Errorf("no verification code for this email: %w", domain.ErrNotFound)
	}
	if err != nil {
		metrics.OTPVerifyTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return fmt.Errorf("load verification: %v: %w", err, domain.ErrInternal)
	}

	if v.Expired(s.now()) {
		metrics.OTPVerifyTotal.WithLabelValues(metrics.OutcomeExpired).Inc()
		return fmt.Errorf("verification code expired: %w", domain.ErrAborted)
	}
	if req.Code != v.Code {
		metrics.OTPVerifyTotal.WithLabelValues(metrics.OutcomeMismatch).Inc()
		return fmt.Errorf("invalid verification code: %w", domain.ErrInvalidArgument)
	}

	if err := s.store.MarkVerified(ctx, req.Email, req.Code); err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			metrics.OTPVerifyTotal.WithLabelValues(metrics.OutcomeMismatch).Inc()
			return fmt.Errorf("invalid verification code: %w", domain.ErrInvalidArgument)
		}
		metrics.OTPVerifyTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return fmt.Errorf("mark verified: %v: %w", err, domain.ErrInternal)
	}
	metrics.OTPVerifyTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	return nil
}
