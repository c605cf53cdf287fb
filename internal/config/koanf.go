package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar names an optional YAML config file.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig holds the values used for local development.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     15,
			WriteTimeout:    60,
			IdleTimeout:     60,
			ShutdownTimeout: 10,
		},
		Database: DatabaseConfig{
			Driver:         "postgres",
			Host:           "localhost",
			Port:           5432,
			User:           "egitim",
			Password:       "egitim123",
			DBName:         "egitim",
			SSLMode:        "disable",
			Path:           "egitim.db",
			ConnectRetries: 5,
		},
		Auth: AuthConfig{
			SessionTTL: 12 * time.Hour,
			ProfileTTL: time.Minute,
		},
		App: AppConfig{
			Dev:           true,
			Migrations:    true,
			Seed:          true,
			AdminSicilNo:  "admin",
			AdminFullName: "Sistem Yöneticisi",
		},
		RateLimit: RateLimitConfig{
			Enabled:       true,
			SweepInterval: time.Minute,
		},
		Audit: AuditConfig{BufferSize: 256},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	"port":                 "server.port",
	"server_read_timeout":  "server.read_timeout",
	"server_write_timeout": "server.write_timeout",
	"server_idle_timeout":  "server.idle_timeout",
	"shutdown_timeout":     "server.shutdown_timeout",

	"db_driver":          "database.driver",
	"db_host":            "database.host",
	"db_port":            "database.port",
	"db_user":            "database.user",
	"db_password":        "database.password",
	"db_name":            "database.name",
	"db_sslmode":         "database.sslmode",
	"database_url":       "database.url",
	"sqlite_path":        "database.path",
	"db_debug":           "database.debug",
	"db_connect_retries": "database.connect_retries",

	"jwt_secret":    "auth.jwt_secret",
	"session_ttl":   "auth.session_ttl",
	"cookie_secure": "auth.cookie_secure",
	"profile_ttl":   "auth.profile_ttl",

	"dev":             "app.dev",
	"migrations":      "app.migrations",
	"db_seed":         "app.seed",
	"admin_sicil_no":  "app.admin_sicil_no",
	"admin_password":  "app.admin_password",
	"admin_full_name": "app.admin_full_name",

	"rate_limit_enabled":        "ratelimit.enabled",
	"rate_limit_sweep_interval": "ratelimit.sweep_interval",

	"audit_buffer_size": "audit.buffer_size",

	"log_level":  "logging.level",
	"log_format": "logging.format",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// Load builds the configuration: defaults, then the YAML file named by
// CONFIG_PATH (if any), then environment variables.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
