package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/joho/godotenv"
	"github.com/regportal-api/internal/application/admin"
	"github.com/regportal-api/internal/application/document"
	"github.com/regportal-api/internal/application/otp"
	"github.com/regportal-api/internal/application/registration"
	"github.com/regportal-api/internal/application/stats"
	"github.com/regportal-api/internal/config"
	"github.com/regportal-api/internal/infrastructure/awscfg"
	"github.com/regportal-api/internal/infrastructure/dynamo"
	"github.com/regportal-api/internal/infrastructure/gcs"
	jwtinfra "github.com/regportal-api/internal/infrastructure/jwt"
	s3infra "github.com/regportal-api/internal/infrastructure/s3"
	"github.com/regportal-api/internal/infrastructure/sendgrid"
	"github.com/regportal-api/internal/infrastructure/smtp"
	"github.com/regportal-api/internal/infrastructure/sns"
	"github.com/regportal-api/internal/pkg/logger"
	transporthttp "github.com/regportal-api/internal/transport/http"
	"go.uber.org/zap"
)

func main() {
	dotenvErr := godotenv.Load()

	cfg := config.Load()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()
	if dotenvErr != nil {
		log.Info("no .env file found, reading from environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Error("server exited", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.L()

	awsCfg, err := awscfg.Load(ctx, cfg, cfg.AWSRegion)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(awsCfg, cfg.AWSEndpointURL)
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	verifications := dynamo.NewVerificationRepo(dynamoClient, cfg.DynamoTables.EmailVerifications)
	registrations := dynamo.NewRegistrationRepo(dynamoClient, cfg.DynamoTables.Registrations)
	admins := dynamo.NewAdminRepo(dynamoClient, cfg.DynamoTables.Admins)
	liveStats := dynamo.NewStatsRepo(dynamoClient, cfg.DynamoTables.LiveStats)

	objects, closeObjects, err := newObjectStore(ctx, cfg, awsCfg)
	if err != nil {
		return err
	}
	defer closeObjects()
	documents := document.NewService(objects)

	mailer, err := newMailer(cfg)
	if err != nil {
		return err
	}

	jwtProvider, err := jwtinfra.NewProvider(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath, time.Duration(cfg.JWTExpiryHours)*time.Hour)
	if err != nil {
		return fmt.Errorf("jwt provider: %w", err)
	}

	regDeps := registration.ServiceDeps{
		Registrations: registrations,
		Verifications: verifications,
		Documents:     documents,
		AppName:       cfg.AppName,
	}
	if cfg.SMSConfirmations {
		smsCfg, err := awscfg.Load(ctx, cfg, cfg.SNSRegion)
		if err != nil {
			return fmt.Errorf("load sns config: %w", err)
		}
		regDeps.SMS = sns.NewSender(smsCfg, cfg.AWSEndpointURL)
	}

	statsSvc := stats.NewService(stats.ServiceDeps{Registrations: registrations, Stats: liveStats})
	scheduler, err := stats.NewScheduler(statsSvc, cfg.StatsCron)
	if err != nil {
		return err
	}
	scheduler.Start()
	if cfg.StatsRefreshOnStart {
		scheduler.RunNow()
	}

	deps := &transporthttp.Deps{
		OTP: otp.NewService(otp.ServiceDeps{
			Store:    verifications,
			Mailer:   mailer,
			From:     cfg.MailFrom,
			FromName: cfg.MailFromName,
			AppName:  cfg.AppName,
		}),
		Registration: registration.NewService(regDeps),
		Admin: admin.NewService(admin.ServiceDeps{
			Admins:        admins,
			Registrations: registrations,
			Documents:     documents,
			Tokens:        jwtProvider,
		}),
		Stats:  statsSvc,
		Tokens: jwtProvider,
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(ctx, cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("port", cfg.AppPort), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		<-scheduler.Stop().Done()
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		log.Warn("stats job still running at shutdown")
	}
	log.Info("server stopped")
	return nil
}

// newObjectStore picks the document backend. The returned func releases it.
func newObjectStore(ctx context.Context, cfg *config.Config, awsCfg aws.Config) (document.ObjectStore, func(), error) {
	switch cfg.StorageBackend {
	case "gcs":
		store, err := gcs.NewStore(ctx, cfg.GCSBucketName)
		if err != nil {
			return nil, nil, fmt.Errorf("gcs store: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	case "s3":
		client := s3infra.NewClient(awsCfg, cfg.AWSEndpointURL)
		return s3infra.NewStore(client, cfg.S3BucketName), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}
}

func newMailer(cfg *config.Config) (otp.Mailer, error) {
	switch cfg.MailProvider {
	case "sendgrid":
		m, err := sendgrid.NewMailer(cfg.SendGridAPIKey, cfg.SendGridSandbox)
		if err != nil {
			return nil, fmt.Errorf("sendgrid mailer: %w", err)
		}
		return m, nil
	case "smtp":
		return smtp.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword), nil
	default:
		return nil, fmt.Errorf("unknown MAIL_PROVIDER %q", cfg.MailProvider)
	}
}
