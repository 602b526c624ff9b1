// Package config loads the relay configuration from the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/mail"
	"os"
	"strconv"
	"strings"
	"time"

	awsclient "github.com/cyphera/payment-alerts/internal/client/aws"
	"github.com/cyphera/payment-alerts/internal/helpers"
)

// ErrStartupFailed wraps every configuration error that prevents the relay from starting.
var ErrStartupFailed = errors.New("startup failed")

const (
	DefaultPort              = "3000"
	DefaultAirtableTableName = "Failed Payments"
	DefaultLogBufferCapacity = 100
	DefaultDispatchTimeout   = 10 * time.Second
	// DefaultTestRateLimit leaves /test unlimited.
	DefaultTestRateLimit     = 0
	DefaultTestRateBurst     = 5
)

// SecretGetter resolves a secret from an ARN env var with a direct env var fallback.
type SecretGetter interface {
	GetSecretString(ctx context.Context, secretArnEnvVar string, fallbackEnvVar string) (string, error)
}

// CORSConfig holds the CORS middleware options.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
}

// Config is the complete relay configuration.
type Config struct {
	Stage         string
	Port          string
	PublicBaseURL string

	StripeSecretKey         string
	StripeWebhookSecret     string
	AllowUnverifiedWebhooks bool
	SignatureTolerance      time.Duration

	AirtableAPIKey    string
	AirtableBaseID    string
	AirtableTableName string
	AirtableAPIURL    string

	ResendAPIKey  string
	EmailFrom     string
	EmailFromName string
	AlertEmailTo  []string

	LogBufferCapacity int
	DispatchTimeout   time.Duration
	TestRateLimit     int
	TestRateBurst     int

	// TrustedProxies are the proxy addresses whose X-Forwarded-For is honored.
	// Empty means the peer address is always the client.
	TrustedProxies []string

	CORS CORSConfig
}

// StripeConfigured reports whether customer lookups can be made.
func (c *Config) StripeConfigured() bool { return c.StripeSecretKey != "" }

// AirtableConfigured reports whether records can be created.
func (c *Config) AirtableConfigured() bool { return c.AirtableAPIKey != "" && c.AirtableBaseID != "" }

// EmailConfigured reports whether alert emails can be sent.
func (c *Config) EmailConfigured() bool {
	return c.ResendAPIKey != "" && c.EmailFrom != "" && len(c.AlertEmailTo) > 0
}

// WebhookVerificationEnabled reports whether a signing secret is set.
func (c *Config) WebhookVerificationEnabled() bool { return c.StripeWebhookSecret != "" }

// Load reads the configuration. Secrets go through secrets; pass a
// SecretsManagerClient without an API to read them from the environment only.
func Load(ctx context.Context, secrets SecretGetter) (*Config, error) {
	stage := getEnv("STAGE", helpers.StageLocal)
	if !helpers.IsValidStage(stage) {
		return nil, fmt.Errorf("%w: invalid STAGE '%s', must be one of: %s, %s, %s",
			ErrStartupFailed, stage, helpers.StageProd, helpers.StageDev, helpers.StageLocal)
	}

	cfg := &Config{
		Stage:             stage,
		Port:              getEnv("PORT", DefaultPort),
		PublicBaseURL:     strings.TrimSuffix(os.Getenv("PUBLIC_BASE_URL"), "/"),
		AirtableBaseID:    os.Getenv("AIRTABLE_BASE_ID"),
		AirtableTableName: getEnv("AIRTABLE_TABLE_NAME", DefaultAirtableTableName),
		AirtableAPIURL:    os.Getenv("AIRTABLE_API_URL"),
		EmailFrom:         strings.TrimSpace(os.Getenv("EMAIL_FROM")),
		EmailFromName:     strings.TrimSpace(os.Getenv("EMAIL_FROM_NAME")),
		TrustedProxies:    splitList(os.Getenv("TRUSTED_PROXIES")),
		CORS:              loadCORS(),
	}

	var err error
	secretVars := []struct {
		target   *string
		arnEnv   string
		fallback string
	}{
		{&cfg.StripeSecretKey, "STRIPE_SECRET_KEY_ARN", "STRIPE_SECRET_KEY"},
		{&cfg.StripeWebhookSecret, "STRIPE_WEBHOOK_SECRET_ARN", "STRIPE_WEBHOOK_SECRET"},
		{&cfg.AirtableAPIKey, "AIRTABLE_API_KEY_ARN", "AIRTABLE_API_KEY"},
		{&cfg.ResendAPIKey, "RESEND_API_KEY_ARN", "RESEND_API_KEY"},
	}
	for _, sv := range secretVars {
		if *sv.target, err = optionalSecret(ctx, secrets, sv.arnEnv, sv.fallback); err != nil {
			return nil, err
		}
	}

	if cfg.AllowUnverifiedWebhooks, err = getBool("ALLOW_UNVERIFIED_WEBHOOKS", false); err != nil {
		return nil, err
	}
	if cfg.SignatureTolerance, err = getDuration("STRIPE_SIGNATURE_TOLERANCE", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.DispatchTimeout, err = getDuration("DISPATCH_TIMEOUT", DefaultDispatchTimeout); err != nil {
		return nil, err
	}
	if cfg.LogBufferCapacity, err = getPositiveInt("LOG_BUFFER_CAPACITY", DefaultLogBufferCapacity); err != nil {
		return nil, err
	}
	if cfg.TestRateLimit, err = getNonNegativeInt("TEST_RATE_LIMIT", DefaultTestRateLimit); err != nil {
		return nil, err
	}
	if cfg.TestRateBurst, err = getPositiveInt("TEST_RATE_BURST", DefaultTestRateBurst); err != nil {
		return nil, err
	}

	if cfg.EmailFrom != "" {
		if _, err := mail.ParseAddress(cfg.EmailFrom); err != nil {
			return nil, fmt.Errorf("%w: EMAIL_FROM is not a valid address: %w", ErrStartupFailed, err)
		}
	}
	cfg.AlertEmailTo = splitList(os.Getenv("ALERT_EMAIL_TO"))
	if len(cfg.AlertEmailTo) == 0 && cfg.EmailFrom != "" {
		cfg.AlertEmailTo = []string{cfg.EmailFrom}
	}
	for _, addr := range cfg.AlertEmailTo {
		if _, err := mail.ParseAddress(addr); err != nil {
			return nil, fmt.Errorf("%w: ALERT_EMAIL_TO contains an invalid address %q: %w", ErrStartupFailed, addr, err)
		}
	}

	for _, proxy := range cfg.TrustedProxies {
		if !validProxy(proxy) {
			return nil, fmt.Errorf("%w: TRUSTED_PROXIES contains an invalid IP or CIDR %q", ErrStartupFailed, proxy)
		}
	}

	if stage == helpers.StageProd && !cfg.WebhookVerificationEnabled() && cfg.AllowUnverifiedWebhooks {
		return nil, fmt.Errorf("%w: ALLOW_UNVERIFIED_WEBHOOKS cannot be enabled in %s", ErrStartupFailed, helpers.StageProd)
	}

	return cfg, nil
}

func validProxy(proxy string) bool {
	if strings.Contains(proxy, "/") {
		_, _, err := net.ParseCIDR(proxy)
		return err == nil
	}
	return net.ParseIP(proxy) != nil
}

func optionalSecret(ctx context.Context, secrets SecretGetter, arnEnv, fallback string) (string, error) {
	if secrets == nil {
		return os.Getenv(fallback), nil
	}
	value, err := secrets.GetSecretString(ctx, arnEnv, fallback)
	if errors.Is(err, awsclient.ErrSecretNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: reading %s: %w", ErrStartupFailed, fallback, err)
	}
	return value, nil
}

func loadCORS() CORSConfig {
	cfg := CORSConfig{
		AllowedOrigins:   splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		AllowedMethods:   splitList(os.Getenv("CORS_ALLOWED_METHODS")),
		AllowedHeaders:   splitList(os.Getenv("CORS_ALLOWED_HEADERS")),
		ExposedHeaders:   splitList(os.Getenv("CORS_EXPOSED_HEADERS")),
		AllowCredentials: os.Getenv("CORS_ALLOW_CREDENTIALS") == "true",
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	if len(cfg.AllowedMethods) == 0 {
		cfg.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.AllowedHeaders) == 0 {
		cfg.AllowedHeaders = []string{"Origin", "Content-Type", "Accept", "Stripe-Signature", "X-Correlation-ID"}
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean: %w", ErrStartupFailed, key, err)
	}
	return v, nil
}

// getDuration accepts Go duration strings ("15s") or a bare number of seconds.
func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive duration, got %q", ErrStartupFailed, key, raw)
	}
	return d, nil
}

func getPositiveInt(key string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", ErrStartupFailed, key, raw)
	}
	return v, nil
}

func getNonNegativeInt(key string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer, got %q", ErrStartupFailed, key, raw)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
