package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Metrics backends
const (
	MetricsPrometheus = "prometheus"
	MetricsOTel       = "otel"
	MetricsNone       = "none"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Upstream helpdesk API configuration
	Upstream UpstreamConfig

	// Snapshot refresh configuration
	Refresh RefreshConfig

	// Access token configuration
	Access AccessConfig

	// Cross-origin configuration
	CORS CORSConfig

	// Rate limiting configuration
	RateLimit RateLimitConfig

	// WebSocket configuration
	WebSocket WebSocketConfig

	// Operational metrics configuration
	Metrics MetricsConfig

	// Logging configuration
	Logging LoggingConfig

	// Application metadata
	App AppConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// UpstreamConfig holds HelpScout API configuration
type UpstreamConfig struct {
	BaseURL            string
	ClientID           string
	ClientSecret       string
	CredentialsFile    string
	Timeout            time.Duration
	MaxThrottleRetries int
	DefaultRetryAfter  time.Duration
}

// RefreshConfig holds snapshot refresh configuration
type RefreshConfig struct {
	Interval time.Duration
}

// AccessConfig holds access token configuration
type AccessConfig struct {
	Secret  string
	Window  time.Duration
	MaxSkew time.Duration
}

// CORSConfig holds allowed caller origins
type CORSConfig struct {
	AllowedOrigins []string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	BurstSize         int
}

// WebSocketConfig holds WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	PingInterval    time.Duration
	PongWait        time.Duration
}

// MetricsConfig holds operational metrics configuration
type MetricsConfig struct {
	Backend        string // prometheus, otel, none
	Path           string
	OTLPEndpoint   string
	OTLPInsecure   bool
	ExportInterval time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", ":8080"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getDurationOrDefault("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Upstream: UpstreamConfig{
			BaseURL:            getEnvOrDefault("HELPSCOUT_BASE_URL", "https://api.helpscout.net/v2"),
			ClientID:           os.Getenv("HELPSCOUT_CLIENT_ID"),
			ClientSecret:       os.Getenv("HELPSCOUT_CLIENT_SECRET"),
			CredentialsFile:    getEnvOrDefault("CONFIG_FILE", "./config.toml"),
			Timeout:            getDurationOrDefault("HELPSCOUT_TIMEOUT", 30*time.Second),
			MaxThrottleRetries: getIntOrDefault("HELPSCOUT_MAX_THROTTLE_RETRIES", 5),
			DefaultRetryAfter:  getDurationOrDefault("HELPSCOUT_DEFAULT_RETRY_AFTER", 60*time.Second),
		},
		Refresh: RefreshConfig{
			Interval: getDurationOrDefault("REFRESH_INTERVAL", 10*time.Minute),
		},
		Access: AccessConfig{
			Secret:  os.Getenv("ACCESS_SECRET"),
			Window:  getDurationOrDefault("ACCESS_TOKEN_WINDOW", 300*time.Second),
			MaxSkew: getDurationOrDefault("ACCESS_TOKEN_MAX_SKEW", 30*time.Second),
		},
		CORS: CORSConfig{
			AllowedOrigins: getStringSliceOrDefault("CORS_ALLOWED_ORIGINS", []string{}),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getBoolOrDefault("RATE_LIMIT_ENABLED", true),
			RequestsPerSecond: getFloatOrDefault("RATE_LIMIT_RPS", 10),
			BurstSize:         getIntOrDefault("RATE_LIMIT_BURST", 20),
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  getIntOrDefault("WS_READ_BUFFER_SIZE", 1024),
			WriteBufferSize: getIntOrDefault("WS_WRITE_BUFFER_SIZE", 1024),
			PingInterval:    getDurationOrDefault("WS_PING_INTERVAL", 54*time.Second),
			PongWait:        getDurationOrDefault("WS_PONG_WAIT", 60*time.Second),
		},
		Metrics: MetricsConfig{
			Backend:        strings.ToLower(getEnvOrDefault("METRICS_BACKEND", MetricsPrometheus)),
			Path:           getEnvOrDefault("METRICS_PATH", "/metrics"),
			OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			OTLPInsecure:   getBoolOrDefault("OTEL_EXPORTER_OTLP_INSECURE", false),
			ExportInterval: getDurationOrDefault("OTEL_METRIC_EXPORT_INTERVAL", 60*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
		App: AppConfig{
			Name:        getEnvOrDefault("APP_NAME", "helpdesk-metrics"),
			Version:     getEnvOrDefault("APP_VERSION", "dev"),
			Environment: getEnvOrDefault("APP_ENV", "development"),
		},
	}

	if err := cfg.resolveCredentials(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveCredentials fills upstream credentials that the environment left
// unset from the [keys] table of the credentials file. A missing file is
// not an error; a present but unreadable one is.
func (c *Config) resolveCredentials() error {
	if c.Upstream.ClientID != "" && c.Upstream.ClientSecret != "" {
		return nil
	}
	if c.Upstream.CredentialsFile == "" {
		return nil
	}

	id, secret, err := readCredentialsFile(c.Upstream.CredentialsFile)
	if err != nil {
		return err
	}
	if c.Upstream.ClientID == "" {
		c.Upstream.ClientID = id
	}
	if c.Upstream.ClientSecret == "" {
		c.Upstream.ClientSecret = secret
	}
	return nil
}

func readCredentialsFile(path string) (id, secret string, err error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.Is(err, fs.ErrNotExist) || errors.As(err, &notFound) {
			return "", "", nil
		}
		return "", "", fmt.Errorf("failed to read credentials file %s: %w", path, err)
	}

	return v.GetString("keys.id"), v.GetString("keys.secret"), nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []string

	// Required fields
	if c.Upstream.ClientID == "" {
		errs = append(errs, "HELPSCOUT_CLIENT_ID (or keys.id in the config file) is required")
	}
	if c.Upstream.ClientSecret == "" {
		errs = append(errs, "HELPSCOUT_CLIENT_SECRET (or keys.secret in the config file) is required")
	}
	if c.Access.Secret == "" {
		errs = append(errs, "ACCESS_SECRET is required")
	}

	// Security validations
	if c.App.Environment == "production" {
		if len(c.Access.Secret) < 32 {
			errs = append(errs, "ACCESS_SECRET must be at least 32 characters in production")
		}

		if len(c.CORS.AllowedOrigins) == 0 {
			errs = append(errs, "CORS_ALLOWED_ORIGINS must be set in production")
		}
	}

	// Logical validations
	if c.Access.Window <= 0 {
		errs = append(errs, "ACCESS_TOKEN_WINDOW must be positive")
	}
	if c.Access.MaxSkew < 0 {
		errs = append(errs, "ACCESS_TOKEN_MAX_SKEW cannot be negative")
	}
	if c.Refresh.Interval <= 0 {
		errs = append(errs, "REFRESH_INTERVAL must be positive")
	}
	if c.Upstream.MaxThrottleRetries < 1 {
		errs = append(errs, "HELPSCOUT_MAX_THROTTLE_RETRIES must be at least 1")
	}

	switch c.Metrics.Backend {
	case MetricsPrometheus, MetricsNone:
	case MetricsOTel:
		if c.Metrics.OTLPEndpoint == "" {
			errs = append(errs, "OTEL_EXPORTER_OTLP_ENDPOINT is required when METRICS_BACKEND=otel")
		}
	default:
		errs = append(errs, fmt.Sprintf("METRICS_BACKEND %q is not one of prometheus, otel, none", c.Metrics.Backend))
	}

	if len(errs) > 0 {
		return errors.New("configuration errors:\n  - " + strings.Join(errs, "\n  - "))
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Helper functions

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// String returns a redacted string representation of the config (safe for logging)
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Server: %s, Upstream: %s, ClientID: %s, ClientSecret: %s, AccessSecret: %s, Refresh: %s, RateLimit: %v, Metrics: %s, Environment: %s}",
		c.Server.Port,
		c.Upstream.BaseURL,
		redact(c.Upstream.ClientID),
		redact(c.Upstream.ClientSecret),
		redact(c.Access.Secret),
		c.Refresh.Interval,
		c.RateLimit.Enabled,
		c.Metrics.Backend,
		c.App.Environment,
	)
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "[REDACTED]"
}
