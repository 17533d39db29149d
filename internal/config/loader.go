package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// DefaultConfigFileName is looked up in the working directory when no
// explicit path is given.
const DefaultConfigFileName = "qmedic.toml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "QMEDIC_"

// LoadError represents an error that occurred while loading configuration.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading config from %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load builds the configuration from, in order of precedence:
//  1. QMEDIC_* environment variables (a .env file in the working directory is
//     loaded first, without overriding variables already set)
//  2. the explicit path, if given, otherwise ./qmedic.toml if it exists
//  3. built-in defaults
//
// It returns the configuration and the file it was read from ("" when none).
func Load(explicitPath string) (*Config, string, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, "", &LoadError{Path: ".env", Err: err}
	}

	cfg := Default()
	path := ""

	switch {
	case explicitPath != "":
		if err := decodeFile(explicitPath, cfg); err != nil {
			return nil, "", &LoadError{Path: explicitPath, Err: err}
		}
		path = explicitPath
	case fileExists(DefaultConfigFileName):
		cwdPath := filepath.Join(".", DefaultConfigFileName)
		if err := decodeFile(cwdPath, cfg); err != nil {
			return nil, "", &LoadError{Path: cwdPath, Err: err}
		}
		path = cwdPath
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, "", &LoadError{Path: "environment", Err: err}
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", &LoadError{Path: path, Err: fmt.Errorf("validating config: %w", err)}
	}

	return cfg, path, nil
}

// decodeFile reads a TOML file over cfg, leaving unset keys at their defaults.
func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return fmt.Errorf("parsing TOML: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// applyEnv overrides cfg with QMEDIC_* variables returned by lookup.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	integer := func(name string, dst *int) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
		return nil
	}
	boolean := func(name string, dst *bool) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = b
		return nil
	}

	str("ADDR", &cfg.Server.Addr)
	str("LOG", &cfg.Server.LogPath)
	str("DB_DRIVER", &cfg.Database.Driver)
	str("DB_PATH", &cfg.Database.Path)
	str("DB_DSN", &cfg.Database.DSN)
	str("TIMEZONE", &cfg.Alerts.Timezone)
	str("EXPORT_BUCKET", &cfg.Export.Bucket)
	str("EXPORT_REGION", &cfg.Export.Region)
	str("EXPORT_ENDPOINT", &cfg.Export.Endpoint)
	str("EXPORT_ACCESS_KEY_ID", &cfg.Export.AccessKeyID)
	str("EXPORT_SECRET_ACCESS_KEY", &cfg.Export.SecretAccessKey)

	if v, ok := lookup(EnvPrefix + "TX_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sTX_TIMEOUT: %w", EnvPrefix, err)
		}
		cfg.Inventory.TxTimeout = Duration{d}
	}

	return errors.Join(
		integer("EXPIRY_CHECK_HOUR", &cfg.Alerts.ExpiryCheckHour),
		integer("PHOTO_MAX_DIMENSION", &cfg.Photos.MaxDimension),
		boolean("ALERTS_ENABLED", &cfg.Alerts.Enabled),
		boolean("EXPORT_PATH_STYLE", &cfg.Export.PathStyle),
	)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
