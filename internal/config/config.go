package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// DefaultSecret is the placeholder webhook secret; operators must override it.
const DefaultSecret = "change-me"

type Config struct {
	AppSecret   string `validate:"required"`
	DatabaseURL string
	ForwardURL  string `validate:"omitempty,url"`
	HTTPAddr    string `validate:"required"`

	DBMaxConns          int           `validate:"min=1"`
	DBMinConns          int           `validate:"min=0,ltefield=DBMaxConns"`
	DBConnectTimeout    time.Duration `validate:"gt=0"`
	DBReconnectInterval time.Duration `validate:"gte=0"`

	RelayTimeout time.Duration `validate:"gt=0"`

	// TrustProxyHeaders takes the client IP from X-Forwarded-For/X-Real-IP.
	// Only safe behind a proxy that overwrites those headers.
	TrustProxyHeaders bool

	MaxBodyBytes       int64 `validate:"gt=0"`
	RateLimitPerMinute int   `validate:"gte=0"`
	CORSAllowedOrigins []string

	MetricsUser     string `validate:"required_with=MetricsPassword"`
	MetricsPassword string `validate:"required_with=MetricsUser"`

	LogLevel string `validate:"oneof=debug info warn error"`
	LogFile  string
}

var validate = validator.New()

func Load() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found")
	}

	var errs []error
	cfg := &Config{
		AppSecret:   getEnv("APP_SECRET", DefaultSecret),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		ForwardURL:  os.Getenv("FORWARD_URL"),
		HTTPAddr:    getEnv("HTTP_ADDR", ":8000"),

		DBMaxConns:          envInt("DB_MAX_CONNS", 5, &errs),
		DBMinConns:          envInt("DB_MIN_CONNS", 1, &errs),
		DBConnectTimeout:    envDuration("DB_CONNECT_TIMEOUT", 5*time.Second, &errs),
		DBReconnectInterval: envDuration("DB_RECONNECT_INTERVAL", 30*time.Second, &errs),

		RelayTimeout: envDuration("RELAY_TIMEOUT", 5*time.Second, &errs),

		TrustProxyHeaders: envBool("TRUST_PROXY_HEADERS", false, &errs),

		MaxBodyBytes:       int64(envInt("MAX_BODY_BYTES", 1<<20, &errs)),
		RateLimitPerMinute: envInt("RATE_LIMIT_PER_MINUTE", 0, &errs),
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),

		MetricsUser:     os.Getenv("METRICS_USER"),
		MetricsPassword: os.Getenv("METRICS_PASSWORD"),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFile:  os.Getenv("LOG_FILE"),
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// InsecureSecret reports whether the placeholder secret is still in use.
func (c *Config) InsecureSecret() bool {
	return c.AppSecret == DefaultSecret
}

func (c *Config) StorageConfigured() bool {
	return c.DatabaseURL != ""
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func envBool(key string, def bool, errs *[]error) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

// envDuration accepts Go durations ("5s") or plain seconds ("5").
func envDuration(key string, def time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
