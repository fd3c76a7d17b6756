package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestCheckRequired_ListsEveryMissingVariable(t *testing.T) {
	err := checkRequired(lookupFrom(map[string]string{
		"DATABASE_URL": "postgres://localhost/app",
		"JWT_SECRET":   "   ",
	}))
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "JWT_SECRET")
	assert.Contains(t, msg, "STRIPE_SECRET_KEY")
	assert.Contains(t, msg, "AWS_S3_BUCKET")
	assert.Contains(t, msg, "SMTP_HOST")
	assert.Contains(t, msg, "SMTP_FROM")
	assert.Contains(t, msg, "ONBOARDING_LINK_BASE_URL")
	assert.NotContains(t, msg, "DATABASE_URL")
}

func TestCheckRequired_AllPresent(t *testing.T) {
	env := map[string]string{}
	for _, key := range requiredEnv {
		env[key] = "set"
	}
	assert.NoError(t, checkRequired(lookupFrom(env)))
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ONBOARDING_TOKEN_TTL", "not-a-duration")
	t.Setenv("UPLOAD_MAX_ATTEMPTS", "3")
	t.Setenv("ALLOWED_ORIGINS", "https://admin.example.com, https://portal.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 72*time.Hour, cfg.Onboarding.TokenTTL)
	assert.Equal(t, 3, cfg.Onboarding.UploadMaxAttempts)
	assert.Equal(t, []string{"https://admin.example.com", "https://portal.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "8080", cfg.Server.Port)
}
