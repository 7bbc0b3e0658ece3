// Command createadmin provisions a dashboard operator or resets one's password.
//
//	createadmin -email ops@example.gov -password '...'
//	createadmin -email ops@example.gov -password '...' -reset
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/regportal-api/internal/application/admin"
	"github.com/regportal-api/internal/config"
	"github.com/regportal-api/internal/infrastructure/awscfg"
	"github.com/regportal-api/internal/infrastructure/dynamo"
	"github.com/regportal-api/internal/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	email := flag.String("email", "", "admin email address")
	password := flag.String("password", "", "admin password (10-72 characters)")
	reset := flag.Bool("reset", false, "reset the password of an existing admin")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	if *email == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, cfg, *email, *password, *reset); err != nil {
		logger.L().Error("createadmin failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, email, password string, reset bool) error {
	awsCfg, err := awscfg.Load(ctx, cfg, cfg.AWSRegion)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}
	client := dynamo.NewClient(awsCfg, cfg.AWSEndpointURL)
	dynamo.Bootstrap(ctx, client, cfg.DynamoTables)

	svc := admin.NewService(admin.ServiceDeps{
		Admins: dynamo.NewAdminRepo(client, cfg.DynamoTables.Admins),
	})

	if reset {
		if err := svc.ResetPassword(ctx, email, password); err != nil {
			return err
		}
		logger.L().Info("admin password reset", zap.String("email", email))
		return nil
	}
	a, err := svc.CreateAdmin(ctx, email, password)
	if err != nil {
		return err
	}
	logger.L().Info("admin created", zap.String("admin_id", a.AdminID), zap.String("email", a.Email))
	return nil
}
