package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Session  SessionConfig
	OTP      OTPConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string
	Env  string
}

// StorageConfig selects where the device key/value slots are persisted.
type StorageConfig struct {
	Driver     string
	DataDir    string
	SQLitePath string
}

// DatabaseConfig holds PostgreSQL connection configuration.
// Only used when the storage driver is postgres.
type DatabaseConfig struct {
	Host        string
	Port        string
	Name        string
	User        string
	Password    string
	PoolMin     int
	PoolMax     int
	SSLMode     string
	ConnectWait time.Duration
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// SessionConfig holds the authenticated-session lifetime.
type SessionConfig struct {
	TTL time.Duration
}

// OTPConfig tunes the simulated one-time-password service.
type OTPConfig struct {
	SendDelay   time.Duration
	VerifyDelay time.Duration
	DemoCode    string
}

// Load reads configuration from environment variables and, when AGRO_CONFIG
// points at a file, from that file first. Environment variables win.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults for development
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("STORAGE_DRIVER", DriverFile)
	v.SetDefault("DATA_DIR", "./data")
	v.SetDefault("SQLITE_PATH", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "agro")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_POOL_MIN", 1)
	v.SetDefault("DB_POOL_MAX", 4)
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_CONNECT_WAIT", "30s")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://localhost:8080")
	v.SetDefault("SESSION_TTL", "72h")
	v.SetDefault("OTP_SEND_DELAY", "1500ms")
	v.SetDefault("OTP_VERIFY_DELAY", "1s")
	v.SetDefault("OTP_DEMO_CODE", "123456")

	// Bind environment variables
	v.AutomaticEnv()

	if file := v.GetString("AGRO_CONFIG"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	// Build configuration
	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("PORT"),
			Env:  v.GetString("ENV"),
		},
		Storage: StorageConfig{
			Driver:     strings.ToLower(v.GetString("STORAGE_DRIVER")),
			DataDir:    v.GetString("DATA_DIR"),
			SQLitePath: v.GetString("SQLITE_PATH"),
		},
		Database: DatabaseConfig{
			Host:        v.GetString("DB_HOST"),
			Port:        v.GetString("DB_PORT"),
			Name:        v.GetString("DB_NAME"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASSWORD"),
			PoolMin:     v.GetInt("DB_POOL_MIN"),
			PoolMax:     v.GetInt("DB_POOL_MAX"),
			SSLMode:     v.GetString("DB_SSLMODE"),
			ConnectWait: v.GetDuration("DB_CONNECT_WAIT"),
		},
		CORS: CORSConfig{
			Origins: parseOrigins(v.GetString("CORS_ORIGINS")),
		},
		Session: SessionConfig{
			TTL: v.GetDuration("SESSION_TTL"),
		},
		OTP: OTPConfig{
			SendDelay:   v.GetDuration("OTP_SEND_DELAY"),
			VerifyDelay: v.GetDuration("OTP_VERIFY_DELAY"),
			DemoCode:    v.GetString("OTP_DEMO_CODE"),
		},
	}

	cfg.ApplyDefaults()

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// ApplyDefaults fills settings derived from others. It is safe to call
// again after fields are overridden.
func (c *Config) ApplyDefaults() {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	if c.Storage.Driver == DriverSQLite && c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = filepath.Join(c.Storage.DataDir, "agro.db")
	}
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	// Validate storage config
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverFile:
		if c.Storage.DataDir == "" {
			return fmt.Errorf("DATA_DIR is required for the file driver")
		}
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if err := c.Database.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be one of memory, file, sqlite, postgres; got %q", c.Storage.Driver)
	}

	// Validate session and OTP config
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.OTP.SendDelay < 0 || c.OTP.VerifyDelay < 0 {
		return fmt.Errorf("OTP delays must be non-negative")
	}
	if len(c.OTP.DemoCode) != 6 || strings.Trim(c.OTP.DemoCode, "0123456789") != "" {
		return fmt.Errorf("OTP_DEMO_CODE must be exactly 6 digits")
	}

	// Validate CORS config
	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	return nil
}

// Validate checks the PostgreSQL settings.
func (d *DatabaseConfig) Validate() error {
	if d.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if d.Port == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	if d.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if d.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if d.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if d.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if d.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if d.PoolMin > d.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}
	switch d.SSLMode {
	case "", "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
	default:
		return fmt.Errorf("DB_SSLMODE %q is not a libpq sslmode", d.SSLMode)
	}
	return nil
}

// IsProduction reports whether the server runs in production mode.
func (s ServerConfig) IsProduction() bool {
	return s.Env == "production"
}

// parseOrigins splits a comma-separated string of origins into a slice.
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
