package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/regportal-api/internal/domain"
	"github.com/regportal-api/internal/metrics"
	"github.com/regportal-api/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 50
	minPasswordLen   = 10
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
	Admin       *domain.Admin
}

type RegistrationPage struct {
	Items      []domain.Registration
	NextCursor string
}

type Document struct {
	Body        io.ReadCloser
	ContentType string
	Key         string
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	ListRegistrations(ctx context.Context, limit int, cursor string) (*RegistrationPage, error)
	GetRegistration(ctx context.Context, registrationID string) (*domain.Registration, error)
	OpenDocument(ctx context.Context, registrationID, kind string) (*Document, error)
	CreateAdmin(ctx context.Context, email, password string) (*domain.Admin, error)
	ResetPassword(ctx context.Context, email, password string) error
}

type adminStore interface {
	Put(ctx context.Context, a *domain.Admin) error
	GetByEmail(ctx context.Context, email string) (*domain.Admin, error)
	UpdatePassword(ctx context.Context, adminID, passwordHash string) error
}

type registrationReader interface {
	Get(ctx context.Context, registrationID string) (*domain.Registration, error)
	ListRecent(ctx context.Context, limit int32, cursor string) ([]domain.Registration, string, error)
}

type documentOpener interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

type tokenSigner interface {
	Sign(adminID, email, role string) (string, time.Time, error)
}

type ServiceDeps struct {
	Admins        adminStore
	Registrations registrationReader
	Documents     documentOpener
	Tokens        tokenSigner
}

type service struct {
	admins        adminStore
	registrations registrationReader
	documents     documentOpener
	tokens        tokenSigner
}

func NewService(deps ServiceDeps) Service {
	return &service{
		admins:        deps.Admins,
		registrations: deps.Registrations,
		documents:     deps.Documents,
		tokens:        deps.Tokens,
	}
}

// Login never tells the caller whether the email exists.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	a, err := s.admins.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		metrics.AdminLoginTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if !a.Enable || a.Role != domain.RoleAdmin {
		metrics.AdminLoginTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(req.Password)); err != nil {
		metrics.AdminLoginTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	token, exp, err := s.tokens.Sign(a.AdminID, a.Email, a.Role)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	metrics.AdminLoginTotal.WithLabelValues("success").Inc()
	return &LoginResult{AccessToken: token, ExpiresAt: exp, Admin: a}, nil
}

func (s *service) ListRegistrations(ctx context.Context, limit int, cursor string) (*RegistrationPage, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	items, next, err := s.registrations.ListRecent(ctx, int32(limit), cursor)
	if err != nil {
		return nil, err
	}
	return &RegistrationPage{Items: items, NextCursor: next}, nil
}

func (s *service) GetRegistration(ctx context.Context, registrationID string) (*domain.Registration, error) {
	return s.registrations.Get(ctx, registrationID)
}

func (s *service) OpenDocument(ctx context.Context, registrationID, kind string) (*Document, error) {
	if kind != domain.DocumentPassport && kind != domain.DocumentNIN {
		return nil, fmt.Errorf("unknown document kind %q: %w", kind, domain.ErrInvalidArgument)
	}
	reg, err := s.registrations.Get(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	key, contentType, ok := reg.DocumentKey(kind)
	if !ok {
		return nil, fmt.Errorf("%s document not found: %w", kind, domain.ErrNotFound)
	}
	body, err := s.documents.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	return &Document{Body: body, ContentType: contentType, Key: key}, nil
}

func (s *service) CreateAdmin(ctx context.Context, email, password string) (*domain.Admin, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("email is required: %w", domain.ErrInvalidArgument)
	}
	if err := checkPassword(password); err != nil {
		return nil, err
	}
	if _, err := s.admins.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("admin %s already exists: %w", email, domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	a := &domain.Admin{
		AdminID:      id.New(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		Enable:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.admins.Put(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ResetPassword replaces the password of an existing admin and re-enables it.
func (s *service) ResetPassword(ctx context.Context, email, password string) error {
	if err := checkPassword(password); err != nil {
		return err
	}
	a, err := s.admins.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.admins.UpdatePassword(ctx, a.AdminID, string(hash))
}

// bcrypt ignores input past 72 bytes.
func checkPassword(p string) error {
	if len(p) < minPasswordLen || len(p) > 72 {
		return fmt.Errorf("password must be %d-72 characters: %w", minPasswordLen, domain.ErrInvalidArgument)
	}
	return nil
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
