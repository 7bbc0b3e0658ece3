package registration

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/regportal-api/internal/application/document"
	"github.com/regportal-api/internal/domain"
	"github.com/regportal-api/internal/metrics"
	"github.com/regportal-api/internal/pkg/id"
	"github.com/regportal-api/internal/pkg/logger"
	"github.com/regportal-api/internal/pkg/validate"
	"go.uber.org/zap"
)

const dobLayout = "2006-01-02"

// TrainingAreas are the programmes an applicant can enrol in.
var TrainingAreas = []string{
	"Plastic Recycling",
	"Wind Turbines",
	"Glass Recycling",
	"E-Waste Recycling",
	"Waste to Feeds & Fertilizers",
	"Textile Recycling",
	"Waste Exportation",
	"Metal Recycling",
	"Scrap Recycling",
	"Energy & Community Solutions",
}

type SubmitRequest struct {
	FirstName     string `json:"first_name" validate:"required,max=64,personname"`
	MiddleName    string `json:"middle_name" validate:"omitempty,max=64,personname"`
	LastName      string `json:"last_name" validate:"required,max=64,personname"`
	Email         string `json:"email" validate:"required,email,max=254"`
	Phone         string `json:"phone" validate:"required,max=20,phone"`
	DOB           string `json:"dob" validate:"required"`
	Sex           string `json:"sex" validate:"required,oneof=Male Female"`
	StateOfOrigin string `json:"state_of_origin" validate:"required,max=64"`
	State         string `json:"state" validate:"required,max=64"`
	LGA           string `json:"lga" validate:"required,max=64"`
	Address       string `json:"address" validate:"required,max=256"`
	Landmark      string `json:"landmark" validate:"required,max=256"`
	TrainingArea  string `json:"training_area" validate:"required"`
}

type Documents struct {
	Passport document.Upload
	NIN      document.Upload
}

type Service interface {
	Submit(ctx context.Context, req SubmitRequest, docs Documents) (*domain.Registration, error)
}

type registrationStore interface {
	Put(ctx context.Context, r *domain.Registration) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

type verificationReader interface {
	Get(ctx context.Context, email string) (*domain.EmailVerification, error)
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type ServiceDeps struct {
	Registrations registrationStore
	Verifications verificationReader
	Documents     document.Service
	SMS           smsSender // optional
	AppName       string
	Now           func() time.Time
}

type service struct {
	registrations registrationStore
	verifications verificationReader
	documents     document.Service
	sms           smsSender
	appName       string
	now           func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		registrations: deps.Registrations,
		verifications: deps.Verifications,
		documents:     deps.Documents,
		sms:           deps.SMS,
		appName:       deps.AppName,
		now:           deps.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service) Submit(ctx context.Context, req SubmitRequest, docs Documents) (*domain.Registration, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, s.reject("invalid", err)
	}
	if !slices.Contains(TrainingAreas, req.TrainingArea) {
		return nil, s.reject("invalid", fmt.Errorf("unknown training area %q: %w", req.TrainingArea, domain.ErrInvalidArgument))
	}
	now := s.now()
	dob, err := time.Parse(dobLayout, req.DOB)
	if err != nil {
		return nil, s.reject("invalid", fmt.Errorf("dob must be YYYY-MM-DD: %w", domain.ErrInvalidArgument))
	}
	if dob.After(now) {
		return nil, s.reject("invalid", fmt.Errorf("dob is in the future: %w", domain.ErrInvalidArgument))
	}
	age := AgeOn(dob, now)
	if age < domain.MinApplicantAge {
		return nil, s.reject("underage", fmt.Errorf("you must be %d years or older to register: %w", domain.MinApplicantAge, domain.ErrInvalidArgument))
	}

	passport, err := s.documents.Prepare(domain.DocumentPassport, docs.Passport)
	if err != nil {
		return nil, s.reject("document", err)
	}
	nin, err := s.documents.Prepare(domain.DocumentNIN, docs.NIN)
	if err != nil {
		return nil, s.reject("document", err)
	}

	if err := s.requireVerified(ctx, req.Email); err != nil {
		return nil, s.reject("unverified", err)
	}
	exists, err := s.registrations.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check existing registration: %w", err)
	}
	if exists {
		return nil, s.reject("duplicate", fmt.Errorf("a registration already exists for this email: %w", domain.ErrConflict))
	}

	reg := &domain.Registration{
		RegistrationID: id.NewAt(now),
		Kind:           domain.RegistrationKind,
		FirstName:      normalizeName(req.FirstName),
		MiddleName:     normalizeName(req.MiddleName),
		LastName:       normalizeName(req.LastName),
		Email:          req.Email,
		Phone:          strings.TrimSpace(req.Phone),
		DOB:            req.DOB,
		Age:            age,
		Sex:            req.Sex,
		StateOfOrigin:  req.StateOfOrigin,
		State:          req.State,
		LGA:            req.LGA,
		Address:        strings.TrimSpace(req.Address),
		Landmark:       strings.TrimSpace(req.Landmark),
		TrainingArea:   req.TrainingArea,
		CreatedAt:      now.UTC(),
	}

	var stored []string
	cleanup := func() {
		for _, key := range stored {
			if err := s.documents.Remove(context.WithoutCancel(ctx), key); err != nil {
				logger.Warn(ctx, "orphaned document", zap.String("key", key), zap.Error(err))
			}
		}
	}
	for _, p := range []*document.Prepared{passport, nin} {
		st, err := s.documents.Store(ctx, reg.RegistrationID, p)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("store %s document: %w", p.Kind, err)
		}
		stored = append(stored, st.Key)
		switch p.Kind {
		case domain.DocumentPassport:
			reg.PassportKey, reg.PassportType = st.Key, st.ContentType
		case domain.DocumentNIN:
			reg.NINKey, reg.NINType = st.Key, st.ContentType
		}
	}

	if err := s.registrations.Put(ctx, reg); err != nil {
		cleanup()
		return nil, fmt.Errorf("save registration: %w", err)
	}
	metrics.RegistrationsSubmittedTotal.Inc()
	logger.Info(ctx, "registration submitted", zap.String("registration_id", reg.RegistrationID), zap.String("state", reg.State))

	s.sendConfirmation(ctx, reg)
	return reg, nil
}

// requireVerified re-reads the server-side record; a client-held flag is never trusted.
func (s *service) requireVerified(ctx context.Context, email string) error {
	v, err := s.verifications.Get(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("email not verified: %w", domain.ErrForbidden)
	}
	if err != nil {
		return fmt.Errorf("load verification: %w", err)
	}
	if !v.Verified {
		return fmt.Errorf("email not verified: %w", domain.ErrForbidden)
	}
	return nil
}

func (s *service) sendConfirmation(ctx context.Context, reg *domain.Registration) {
	if s.sms == nil {
		return
	}
	msg := fmt.Sprintf("%s: registration received for %s %s. Reference %s.", s.appName, reg.FirstName, reg.LastName, reg.RegistrationID)
	if err := s.sms.SendSMS(ctx, reg.Phone, msg); err != nil {
		logger.Warn(ctx, "registration confirmation sms failed", zap.String("registration_id", reg.RegistrationID), zap.Error(err))
	}
}

func (s *service) reject(reason string, err error) error {
	metrics.RegistrationsRejectedTotal.WithLabelValues(reason).Inc()
	return err
}

// AgeOn returns the age in whole years on day now. The birthday counts only
// once it has been reached in now's year.
func AgeOn(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

func normalizeName(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}
