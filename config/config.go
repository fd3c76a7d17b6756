package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	CORS       CORSConfig
	S3         S3Config
	Stripe     StripeConfig
	SMTP       SMTPConfig
	Redis      RedisConfig
	Onboarding OnboardingConfig
	RateLimit  RateLimitConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
}

type DatabaseConfig struct {
	URL          string
	MaxIdleConns int
	MaxOpenConns int
}

type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or S3 direct URL
}

type StripeConfig struct {
	SecretKey         string
	ConnectReturnURL  string
	ConnectRefreshURL string
	IdentityReturnURL string
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type OnboardingConfig struct {
	LinkBaseURL       string
	TokenTTL          time.Duration
	UploadMaxAttempts int
	UploadConcurrency int
	TokenPurgeSpec    string // cron expression
}

type RateLimitConfig struct {
	PhaseGatePerMinute int
	PhaseGateBurst     int
}

// requiredEnv lists variables without which the process must not start.
var requiredEnv = []string{
	"DATABASE_URL",
	"JWT_SECRET",
	"STRIPE_SECRET_KEY",
	"AWS_S3_BUCKET",
	"SMTP_HOST",
	"SMTP_FROM",
	"ONBOARDING_LINK_BASE_URL",
}

// Load reads configuration from .env (when present) and the environment.
// Use Validate to enforce required variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxIdleConns: parseInt(getEnv("DB_MAX_IDLE_CONNS", "10"), 10),
			MaxOpenConns: parseInt(getEnv("DB_MAX_OPEN_CONNS", "100"), 100),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001")),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			Bucket:          os.Getenv("AWS_S3_BUCKET"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BaseURL:         getEnv("AWS_S3_BASE_URL", ""),
		},
		Stripe: StripeConfig{
			SecretKey:         os.Getenv("STRIPE_SECRET_KEY"),
			ConnectReturnURL:  getEnv("STRIPE_CONNECT_RETURN_URL", "http://localhost:3001/onboarding/payout/complete"),
			ConnectRefreshURL: getEnv("STRIPE_CONNECT_REFRESH_URL", "http://localhost:3001/onboarding/payout/refresh"),
			IdentityReturnURL: getEnv("STRIPE_IDENTITY_RETURN_URL", "http://localhost:3001/onboarding/identity/complete"),
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnv("SMTP_PORT", "587"),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     os.Getenv("SMTP_FROM"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		Onboarding: OnboardingConfig{
			LinkBaseURL:       os.Getenv("ONBOARDING_LINK_BASE_URL"),
			TokenTTL:          parseDuration(getEnv("ONBOARDING_TOKEN_TTL", "72h"), 72*time.Hour),
			UploadMaxAttempts: parseInt(getEnv("UPLOAD_MAX_ATTEMPTS", "2"), 2),
			UploadConcurrency: parseInt(getEnv("UPLOAD_CONCURRENCY", "4"), 4),
			TokenPurgeSpec:    getEnv("ONBOARDING_TOKEN_PURGE_CRON", "0 3 * * *"),
		},
		RateLimit: RateLimitConfig{
			PhaseGatePerMinute: parseInt(getEnv("PHASE_GATE_RATE_PER_MINUTE", "60"), 60),
			PhaseGateBurst:     parseInt(getEnv("PHASE_GATE_BURST", "10"), 10),
		},
	}

	return config, nil
}

// Validate fails with the full list of missing required variables.
func (c *Config) Validate() error {
	return checkRequired(os.LookupEnv)
}

func checkRequired(lookup func(string) (string, bool)) error {
	var missing []string
	for _, key := range requiredEnv {
		if v, ok := lookup(key); !ok || strings.TrimSpace(v) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
