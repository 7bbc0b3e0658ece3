package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppName string
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	StorageBackend string // "s3" | "gcs"
	S3BucketName   string
	GCSBucketName  string

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiryHours    int

	MailProvider    string // "sendgrid" | "smtp"
	MailFrom        string
	MailFromName    string
	SendGridAPIKey  string
	SendGridSandbox bool
	SMTPHost        string
	SMTPPort        int
	SMTPUsername    string
	SMTPPassword    string

	SNSRegion        string
	SMSConfirmations bool

	StatsCron           string
	StatsRefreshOnStart bool

	RateLimitRPS   float64
	RateLimitBurst int

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	EmailVerifications string
	Registrations      string
	Admins             string
	LiveStats          string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppName: getEnv("APP_NAME", "Registration Portal"),
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			EmailVerifications: getEnv("DYNAMO_TABLE_EMAIL_VERIFICATIONS", "email_verifications"),
			Registrations:      getEnv("DYNAMO_TABLE_REGISTRATIONS", "registrations"),
			Admins:             getEnv("DYNAMO_TABLE_ADMINS", "admins"),
			LiveStats:          getEnv("DYNAMO_TABLE_LIVE_STATS", "live_stats"),
		},

		StorageBackend: getEnv("STORAGE_BACKEND", "s3"),
		S3BucketName:   getEnv("S3_BUCKET_NAME", "regportal-documents"),
		GCSBucketName:  getEnv("GCS_BUCKET_NAME", ""),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiryHours:    getEnvInt("JWT_EXPIRY_HOURS", 8),

		MailProvider:    getEnv("MAIL_PROVIDER", "smtp"),
		MailFrom:        getEnv("MAIL_FROM", "noreply@example.com"),
		MailFromName:    getEnv("MAIL_FROM_NAME", "Registration Portal"),
		SendGridAPIKey:  getEnv("SENDGRID_API_KEY", ""),
		SendGridSandbox: getEnvBool("SENDGRID_SANDBOX", false),
		SMTPHost:        getEnv("SMTP_HOST", "localhost"),
		SMTPPort:        getEnvInt("SMTP_PORT", 1025),
		SMTPUsername:    getEnv("SMTP_USERNAME", ""),
		SMTPPassword:    getEnv("SMTP_PASSWORD", ""),

		SNSRegion:        getEnv("SNS_REGION", "us-east-1"),
		SMSConfirmations: getEnvBool("SMS_CONFIRMATIONS", false),

		StatsCron:           getEnv("STATS_CRON", "0 9 * * 1"),
		StatsRefreshOnStart: getEnvBool("STATS_REFRESH_ON_START", true),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 0.2),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 5),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
