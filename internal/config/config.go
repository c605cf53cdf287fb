// Package config provides application configuration: struct defaults, an
// optional YAML file and environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Auth      AuthConfig      `koanf:"auth"`
	App       AppConfig       `koanf:"app"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Audit     AuditConfig     `koanf:"audit"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string `koanf:"port"`
	ReadTimeout     int    `koanf:"read_timeout"`  // seconds
	WriteTimeout    int    `koanf:"write_timeout"` // seconds
	IdleTimeout     int    `koanf:"idle_timeout"`  // seconds
	ShutdownTimeout int    `koanf:"shutdown_timeout"`
}

// DatabaseConfig holds connection settings. Driver is "postgres" or "sqlite".
type DatabaseConfig struct {
	Driver         string `koanf:"driver"`
	Host           string `koanf:"host"`
	Port           int    `koanf:"port"`
	User           string `koanf:"user"`
	Password       string `koanf:"password"`
	DBName         string `koanf:"name"`
	SSLMode        string `koanf:"sslmode"`
	DatabaseURL    string `koanf:"url"`
	Path           string `koanf:"path"`
	Debug          bool   `koanf:"debug"`
	ConnectRetries int    `koanf:"connect_retries"`
}

// AuthConfig holds session token settings.
type AuthConfig struct {
	JWTSecret    string        `koanf:"jwt_secret"`
	SessionTTL   time.Duration `koanf:"session_ttl"`
	CookieSecure bool          `koanf:"cookie_secure"`
	ProfileTTL   time.Duration `koanf:"profile_ttl"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev           bool   `koanf:"dev"`
	Migrations    bool   `koanf:"migrations"`
	Seed          bool   `koanf:"seed"`
	AdminSicilNo  string `koanf:"admin_sicil_no"`
	AdminPassword string `koanf:"admin_password"`
	AdminFullName string `koanf:"admin_full_name"`
}

// RateLimitConfig toggles the in-process limiter.
type RateLimitConfig struct {
	Enabled       bool          `koanf:"enabled"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// AuditConfig sizes the asynchronous audit queue.
type AuditConfig struct {
	BufferSize int `koanf:"buffer_size"`
}

// LoggingConfig selects level and output format ("json" or "console").
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// DSN returns the PostgreSQL connection string in key=value format.
// An explicit DATABASE_URL wins over the individual fields.
func (d DatabaseConfig) DSN() string {
	if d.DatabaseURL != "" {
		return NormalizeDSN(d.DatabaseURL)
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// URL returns the PostgreSQL connection string in URL format.
func (d DatabaseConfig) URL() string {
	if d.DatabaseURL != "" {
		return ToURLDSN(NormalizeDSN(d.DatabaseURL))
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// minSecretLen is the shortest JWT secret accepted outside dev mode.
const minSecretLen = 32

// devSecret is only used when DEV is on and no secret was configured.
const devSecret = "dev-only-insecure-jwt-secret-change-me"

// Validate checks cross-field constraints and fills dev-only fallbacks.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "postgres":
	case "sqlite":
		if c.Database.Path == "" {
			errs = append(errs, errors.New("database.path is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver))
	}
	if c.Auth.JWTSecret == "" && c.App.Dev {
		c.Auth.JWTSecret = devSecret
	}
	if !c.App.Dev && len(c.Auth.JWTSecret) < minSecretLen {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters", minSecretLen))
	}
	if c.Auth.SessionTTL <= 0 {
		errs = append(errs, errors.New("auth.session_ttl must be positive"))
	}
	if c.Audit.BufferSize < 1 {
		errs = append(errs, errors.New("audit.buffer_size must be at least 1"))
	}
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	return errors.Join(errs...)
}
