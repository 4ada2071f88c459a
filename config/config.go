package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DefaultAPIBaseURL = "https://api.syncpayments.com.br"

// AmountUnits tells the payment handler how to read the inbound amount.
type AmountUnits string

const (
	// AmountMajor means the caller sends reais (29.90) and the proxy sends centavos (2990).
	AmountMajor AmountUnits = "major"
	// AmountMinor means the caller already sends centavos and the value is passed through.
	AmountMinor AmountUnits = "minor"
)

// Config holds everything the proxy needs at runtime.
type Config struct {
	APIBaseURL   string
	ClientID     string
	ClientSecret string
	WebhookURL   string

	HTTPAddr    string
	AmountUnits AmountUnits

	// UpstreamTimeout bounds every call made to the payment gateway.
	UpstreamTimeout   time.Duration
	TokenSafetyMargin time.Duration
	TokenFallbackTTL  time.Duration

	CORSAllowedOrigins []string

	LogLevel        slog.Level
	OTelEnabled     bool
	OTelServiceName string
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, which keeps tests away from the real environment.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		APIBaseURL:      strings.TrimRight(get("API_BASE_URL", DefaultAPIBaseURL), "/"),
		ClientID:        get("CLIENT_ID", ""),
		ClientSecret:    get("CLIENT_SECRET", ""),
		WebhookURL:      get("WEBHOOK_URL", ""),
		HTTPAddr:        get("HTTP_ADDR", ":8080"),
		OTelServiceName: get("OTEL_SERVICE_NAME", "pix-checkout"),
	}

	switch units := AmountUnits(strings.ToLower(get("AMOUNT_UNITS", string(AmountMajor)))); units {
	case AmountMajor, AmountMinor:
		cfg.AmountUnits = units
	default:
		return nil, fmt.Errorf("invalid AMOUNT_UNITS %q: want %q or %q", units, AmountMajor, AmountMinor)
	}

	var err error
	if cfg.UpstreamTimeout, err = duration(get("UPSTREAM_TIMEOUT", "15s"), "UPSTREAM_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.TokenSafetyMargin, err = duration(get("TOKEN_SAFETY_MARGIN", "5s"), "TOKEN_SAFETY_MARGIN"); err != nil {
		return nil, err
	}
	if cfg.TokenFallbackTTL, err = duration(get("TOKEN_FALLBACK_TTL", "55m"), "TOKEN_FALLBACK_TTL"); err != nil {
		return nil, err
	}

	if origins := get("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(get("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	switch strings.ToLower(get("OTEL_ENABLED", "false")) {
	case "1", "true", "yes":
		cfg.OTelEnabled = true
	}

	return cfg, nil
}

// ValidateCredentials reports a missing client id or secret. Only the
// commands that talk to the gateway need them.
func (c *Config) ValidateCredentials() error {
	var missing []string
	if c.ClientID == "" {
		missing = append(missing, "CLIENT_ID")
	}
	if c.ClientSecret == "" {
		missing = append(missing, "CLIENT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func duration(v, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}
