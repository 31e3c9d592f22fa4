package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	JWTIssuer          string
	JWTAudience        string
	CORSAllowedOrigins []string
	AccessTokenTTL     time.Duration
	IdempotencyTTL     time.Duration

	// Defaults applied to a newly registered store owner.
	DefaultCurrency string
	DefaultTaxRate  decimal.Decimal

	CatalogCacheTTL     time.Duration
	CatalogDefaultLimit int
	CatalogMaxLimit     int

	AnalyticsCacheTTL     time.Duration
	AnalyticsDefaultRange time.Duration

	CheckoutLockTTL time.Duration
	RateLimitLogin  string

	// Domain events are also posted here when set.
	EventsWebhookURL     string
	EventsWebhookSecret  string
	EventsWebhookTimeout time.Duration

	BodyLimitBytes  int64
	SecurityHeaders bool
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:                valueOrDefault(k.String("APP_ENV"), "development"),
		Port:                  valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:           k.String("DATABASE_URL"),
		RedisURL:              k.String("REDIS_URL"),
		JWTSecret:             k.String("JWT_SECRET"),
		JWTIssuer:             valueOrDefault(k.String("JWT_ISSUER"), "backend-kasir"),
		JWTAudience:           valueOrDefault(k.String("JWT_AUDIENCE"), "kasir-register"),
		CORSAllowedOrigins:    splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		AccessTokenTTL:        parseDuration(k.String("ACCESS_TOKEN_TTL"), "12h"),
		IdempotencyTTL:        parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		DefaultCurrency:       strings.ToUpper(valueOrDefault(k.String("DEFAULT_CURRENCY"), "USD")),
		CatalogCacheTTL:       parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
		CatalogDefaultLimit:   parseInt(k.String("CATALOG_DEFAULT_LIMIT"), 20),
		CatalogMaxLimit:       parseInt(k.String("CATALOG_MAX_LIMIT"), 100),
		AnalyticsCacheTTL:     parseDuration(k.String("ANALYTICS_CACHE_TTL"), "2m"),
		AnalyticsDefaultRange: parseDuration(k.String("ANALYTICS_DEFAULT_RANGE"), "720h"),
		CheckoutLockTTL:       parseDuration(k.String("CHECKOUT_LOCK_TTL"), "10s"),
		RateLimitLogin:        valueOrDefault(k.String("RATE_LIMIT_LOGIN"), "10-M"),
		BodyLimitBytes:        int64(parseInt(k.String("BODY_LIMIT_BYTES"), 1<<20)),
		SecurityHeaders:       parseBoolDefault(k.String("SECURITY_HEADERS"), true),
		EventsWebhookURL:      strings.TrimSpace(k.String("EVENTS_WEBHOOK_URL")),
		EventsWebhookSecret:   k.String("EVENTS_WEBHOOK_SECRET"),
		EventsWebhookTimeout:  parseDuration(k.String("EVENTS_WEBHOOK_TIMEOUT"), "3s"),
	}

	rate, err := parseTaxRate(k.String("DEFAULT_TAX_RATE"))
	if err != nil {
		return nil, err
	}
	cfg.DefaultTaxRate = rate

	if len(cfg.DefaultCurrency) != 3 {
		return nil, errors.New("DEFAULT_CURRENCY must be a 3-letter code")
	}
	if cfg.CatalogMaxLimit < cfg.CatalogDefaultLimit {
		cfg.CatalogMaxLimit = cfg.CatalogDefaultLimit
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.EventsWebhookURL != "" && cfg.EventsWebhookSecret == "" {
		return nil, errors.New("EVENTS_WEBHOOK_SECRET is required when EVENTS_WEBHOOK_URL is set")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// IsProduction reports whether the service runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.AppEnv), "production")
}

func parseTaxRate(value string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return decimal.NewFromInt(8), nil
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("DEFAULT_TAX_RATE: %w", err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(30)) {
		return decimal.Zero, errors.New("DEFAULT_TAX_RATE must be between 0 and 30")
	}
	return rate, nil
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
