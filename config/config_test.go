package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envOf(nil))
	require.NoError(t, err)

	assert.Equal(t, DefaultAPIBaseURL, cfg.APIBaseURL)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, AmountMajor, cfg.AmountUnits)
	assert.Equal(t, 15*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, 5*time.Second, cfg.TokenSafetyMargin)
	assert.Equal(t, 55*time.Minute, cfg.TokenFallbackTTL)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.False(t, cfg.OTelEnabled)
	assert.Empty(t, cfg.CORSAllowedOrigins)
	assert.Empty(t, cfg.WebhookURL)

	assert.EqualError(t, cfg.ValidateCredentials(), "missing required configuration: CLIENT_ID, CLIENT_SECRET")
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"API_BASE_URL":         "http://localhost:8082/",
		"CLIENT_ID":            "id",
		"CLIENT_SECRET":        "secret",
		"WEBHOOK_URL":          "https://example.com/hook",
		"AMOUNT_UNITS":         "MINOR",
		"UPSTREAM_TIMEOUT":     "3s",
		"CORS_ALLOWED_ORIGINS": "https://a.example, https://b.example,",
		"LOG_LEVEL":            "debug",
		"OTEL_ENABLED":         "true",
	}))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8082", cfg.APIBaseURL)
	assert.Equal(t, AmountMinor, cfg.AmountUnits)
	assert.Equal(t, 3*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.True(t, cfg.OTelEnabled)
	assert.NoError(t, cfg.ValidateCredentials())
}

func TestFromEnv_Invalid(t *testing.T) {
	for key, value := range map[string]string{
		"AMOUNT_UNITS":        "cents",
		"UPSTREAM_TIMEOUT":    "soon",
		"TOKEN_SAFETY_MARGIN": "-1s",
		"LOG_LEVEL":           "loud",
	} {
		t.Run(key, func(t *testing.T) {
			_, err := FromEnv(envOf(map[string]string{key: value}))
			assert.ErrorContains(t, err, key)
		})
	}
}
