// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// Server Configuration
	GinMode            string        `mapstructure:"GIN_MODE"`
	ServerHost         string        `mapstructure:"SERVER_HOST"`
	ServerPort         string        `mapstructure:"SERVER_PORT"`
	ServerTimeout      time.Duration `mapstructure:"SERVER_TIMEOUT_SECONDS"`
	CORSAllowedOrigins []string      `mapstructure:"CORS_ALLOWED_ORIGINS"`

	// Database Configuration
	DBDriver          string        `mapstructure:"DB_DRIVER"` // "postgres" or "sqlite"
	DBHost            string        `mapstructure:"DB_HOST"`
	DBPort            string        `mapstructure:"DB_PORT"`
	DBUser            string        `mapstructure:"DB_USER"`
	DBPassword        string        `mapstructure:"DB_PASSWORD"`
	DBName            string        `mapstructure:"DB_NAME"`
	DBSSLMode         string        `mapstructure:"DB_SSL_MODE"`
	DBTimezone        string        `mapstructure:"DB_TIMEZONE"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`
	DBSource          string        `mapstructure:"DB_SOURCE"` // postgres:// URL, used by migrate and, when set, by GORM
	DBSQLitePath      string        `mapstructure:"DB_SQLITE_PATH"`

	// Logging Configuration
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// JWT Configuration
	JWTSecretKey                string        `mapstructure:"JWT_SECRET_KEY"`
	JWTAccessTokenExpiryMinutes time.Duration `mapstructure:"JWT_ACCESS_TOKEN_EXPIRY_MINUTES"`

	// Password hashing
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// Sessions
	SessionLifetime        time.Duration `mapstructure:"SESSION_LIFETIME_HOURS"`
	SessionCookieName      string        `mapstructure:"SESSION_COOKIE_NAME"`
	SessionPurgeAfter      time.Duration `mapstructure:"SESSION_PURGE_AFTER_DAYS"`
	SessionCleanupSchedule string        `mapstructure:"SESSION_CLEANUP_SCHEDULE"`

	// OAuth
	AuthPrimaryProvider string `mapstructure:"AUTH_PRIMARY_PROVIDER"`
	GoogleClientID      string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret  string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURI   string `mapstructure:"GOOGLE_REDIRECT_URI"`
	AppleClientID       string `mapstructure:"APPLE_CLIENT_ID"`
	AppleTeamID         string `mapstructure:"APPLE_TEAM_ID"`
	AppleKeyID          string `mapstructure:"APPLE_KEY_ID"`
	ApplePrivateKeyPath string `mapstructure:"APPLE_PRIVATE_KEY_PATH"`
	AppleRedirectURI    string `mapstructure:"APPLE_REDIRECT_URI"`

	OAuthStateCookieName     string `mapstructure:"OAUTH_STATE_COOKIE_NAME"`
	OAuthNonceCookieName     string `mapstructure:"OAUTH_NONCE_COOKIE_NAME"`
	OAuthCookieMaxAgeMinutes int    `mapstructure:"OAUTH_COOKIE_MAX_AGE_MINUTES"`
	OAuthCookieDomain        string `mapstructure:"OAUTH_COOKIE_DOMAIN"`
	OAuthCookieSecure        bool   `mapstructure:"OAUTH_COOKIE_SECURE"`
	OAuthCookieHTTPOnly      bool   `mapstructure:"OAUTH_COOKIE_HTTP_ONLY"`
	OAuthCookieSameSite      string `mapstructure:"OAUTH_COOKIE_SAME_SITE"`

	// Login throttling
	LoginRatePerMinute int `mapstructure:"LOGIN_RATE_PER_MINUTE"`
	LoginRateBurst     int `mapstructure:"LOGIN_RATE_BURST"`

	// Postal / geographic lookups
	ViaCEPBaseURL  string        `mapstructure:"VIACEP_BASE_URL"`
	IBGEBaseURL    string        `mapstructure:"IBGE_BASE_URL"`
	LookupTimeout  time.Duration `mapstructure:"LOOKUP_TIMEOUT_SECONDS"`
	LookupCacheTTL time.Duration `mapstructure:"LOOKUP_CACHE_TTL_MINUTES"`

	// Tracing
	OTelEnabled  bool   `mapstructure:"OTEL_ENABLED"`
	OTelEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// IsRelease reports whether gin runs in release mode.
func (c *Config) IsRelease() bool {
	return c.GinMode == "release"
}

// Load attempts to load configuration from a .env file (if present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()

	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_TIMEOUT_SECONDS", 30)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "barbershop_db")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 60)
	v.SetDefault("DB_SOURCE", "")
	v.SetDefault("DB_SQLITE_PATH", "barbershop.db")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("JWT_SECRET_KEY", "")
	v.SetDefault("JWT_ACCESS_TOKEN_EXPIRY_MINUTES", 60)
	v.SetDefault("BCRYPT_COST", 10)

	v.SetDefault("SESSION_LIFETIME_HOURS", 24)
	v.SetDefault("SESSION_COOKIE_NAME", "barbershop.session-token")
	v.SetDefault("SESSION_PURGE_AFTER_DAYS", 30)
	v.SetDefault("SESSION_CLEANUP_SCHEDULE", "@daily")

	v.SetDefault("AUTH_PRIMARY_PROVIDER", "google")
	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_CLIENT_SECRET", "")
	v.SetDefault("GOOGLE_REDIRECT_URI", "http://localhost:8080/api/auth/callback/google")
	v.SetDefault("APPLE_CLIENT_ID", "")
	v.SetDefault("APPLE_TEAM_ID", "")
	v.SetDefault("APPLE_KEY_ID", "")
	v.SetDefault("APPLE_PRIVATE_KEY_PATH", "")
	v.SetDefault("APPLE_REDIRECT_URI", "http://localhost:8080/api/auth/callback/apple")

	v.SetDefault("OAUTH_STATE_COOKIE_NAME", "oauth_state")
	v.SetDefault("OAUTH_NONCE_COOKIE_NAME", "oauth_nonce")
	v.SetDefault("OAUTH_COOKIE_MAX_AGE_MINUTES", 10)
	v.SetDefault("OAUTH_COOKIE_DOMAIN", "")
	v.SetDefault("OAUTH_COOKIE_SECURE", false)
	v.SetDefault("OAUTH_COOKIE_HTTP_ONLY", true)
	v.SetDefault("OAUTH_COOKIE_SAME_SITE", "Lax")

	v.SetDefault("LOGIN_RATE_PER_MINUTE", 10)
	v.SetDefault("LOGIN_RATE_BURST", 5)

	v.SetDefault("VIACEP_BASE_URL", "https://viacep.com.br/ws")
	v.SetDefault("IBGE_BASE_URL", "https://servicodados.ibge.gov.br/api/v1/localidades")
	v.SetDefault("LOOKUP_TIMEOUT_SECONDS", 5)
	v.SetDefault("LOOKUP_CACHE_TTL_MINUTES", 60)

	v.SetDefault("OTEL_ENABLED", true)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// Convert duration fields
	cfg.ServerTimeout = time.Duration(v.GetInt("SERVER_TIMEOUT_SECONDS")) * time.Second
	cfg.DBConnMaxLifetime = time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME_MINUTES")) * time.Minute
	cfg.JWTAccessTokenExpiryMinutes = time.Duration(v.GetInt("JWT_ACCESS_TOKEN_EXPIRY_MINUTES")) * time.Minute
	cfg.SessionLifetime = time.Duration(v.GetInt("SESSION_LIFETIME_HOURS")) * time.Hour
	cfg.SessionPurgeAfter = time.Duration(v.GetInt("SESSION_PURGE_AFTER_DAYS")) * 24 * time.Hour
	cfg.LookupTimeout = time.Duration(v.GetInt("LOOKUP_TIMEOUT_SECONDS")) * time.Second
	cfg.LookupCacheTTL = time.Duration(v.GetInt("LOOKUP_CACHE_TTL_MINUTES")) * time.Minute

	// Comma separated in the environment.
	cfg.CORSAllowedOrigins = splitList(v.GetString("CORS_ALLOWED_ORIGINS"))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// minSessionPurgeAfter is the shortest time an expired session is kept.
const minSessionPurgeAfter = 24 * time.Hour

func (c *Config) validate() error {
	if c.DBDriver != "postgres" && c.DBDriver != "sqlite" {
		return fmt.Errorf("DB_DRIVER must be 'postgres' or 'sqlite', got %q", c.DBDriver)
	}
	if strings.TrimSpace(c.JWTSecretKey) == "" {
		if c.IsRelease() {
			return fmt.Errorf("FATAL: JWT_SECRET_KEY is not set. This is required in release mode")
		}
		c.JWTSecretKey = "insecure-development-secret"
	}
	if c.BcryptCost <= 0 {
		c.BcryptCost = 10
	}
	if c.SessionLifetime <= 0 {
		c.SessionLifetime = 24 * time.Hour
	}
	if c.SessionPurgeAfter < minSessionPurgeAfter {
		return fmt.Errorf("SESSION_PURGE_AFTER_DAYS must be at least 1, got %d", int(c.SessionPurgeAfter/(24*time.Hour)))
	}
	return nil
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
