// Package config loads qmedic settings from a TOML file, a .env file and
// QMEDIC_* environment variables, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Inventory InventoryConfig `toml:"inventory"`
	Alerts    AlertsConfig    `toml:"alerts"`
	Export    ExportConfig    `toml:"export"`
	Photos    PhotosConfig    `toml:"photos"`
	Auth      AuthConfig      `toml:"auth"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr    string `toml:"addr"`
	LogPath string `toml:"log_path"`
}

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// DatabaseConfig selects the SQL backend. Path is used by sqlite, DSN by pgx.
type DatabaseConfig struct {
	Driver string `toml:"driver"`
	Path   string `toml:"path"`
	DSN    string `toml:"dsn"`
}

// InventoryConfig tunes the action transaction.
type InventoryConfig struct {
	TxTimeout Duration `toml:"tx_timeout"`
}

// AlertsConfig controls the daily expiry scan.
type AlertsConfig struct {
	Enabled         bool   `toml:"enabled"`
	ExpiryCheckHour int    `toml:"expiry_check_hour"`
	Timezone        string `toml:"timezone"`
}

// ExportConfig configures optional archiving of exports to S3.
type ExportConfig struct {
	Bucket          string `toml:"bucket"`
	Region          string `toml:"region"`
	Endpoint        string `toml:"endpoint"`
	PathStyle       bool   `toml:"path_style"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
}

// PhotosConfig controls item photo processing.
type PhotosConfig struct {
	MaxDimension int `toml:"max_dimension"`
}

// AuthConfig controls login throttling.
type AuthConfig struct {
	LoginRatePerMinute int `toml:"login_rate_per_minute"`
	LoginBurst         int `toml:"login_burst"`
}

// Duration is a time.Duration that decodes from a TOML string such as "5s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			Path:   "qmedic.sqlite3",
		},
		Inventory: InventoryConfig{
			TxTimeout: Duration{5 * time.Second},
		},
		Alerts: AlertsConfig{
			Enabled:         true,
			ExpiryCheckHour: 8,
			Timezone:        "UTC",
		},
		Export: ExportConfig{
			Region: "us-east-1",
		},
		Photos: PhotosConfig{
			MaxDimension: 1024,
		},
		Auth: AuthConfig{
			LoginRatePerMinute: 10,
			LoginBurst:         5,
		},
	}
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			errs = append(errs, errors.New("database.path is required for the sqlite driver"))
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			errs = append(errs, errors.New("database.dsn is required for the pgx driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Database.Driver))
	}

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Inventory.TxTimeout.Duration <= 0 {
		errs = append(errs, errors.New("inventory.tx_timeout must be positive"))
	}
	if c.Alerts.ExpiryCheckHour < 0 || c.Alerts.ExpiryCheckHour > 23 {
		errs = append(errs, fmt.Errorf("alerts.expiry_check_hour must be 0-23, got %d", c.Alerts.ExpiryCheckHour))
	}
	if _, err := time.LoadLocation(c.Alerts.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("alerts.timezone: %w", err))
	}
	if c.Photos.MaxDimension <= 0 {
		errs = append(errs, errors.New("photos.max_dimension must be positive"))
	}
	if c.Auth.LoginRatePerMinute <= 0 || c.Auth.LoginBurst <= 0 {
		errs = append(errs, errors.New("auth login rate and burst must be positive"))
	}

	return errors.Join(errs...)
}

// Location returns the time zone used for the expiry scan.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Alerts.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
