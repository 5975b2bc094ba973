// Package config loads brewerp settings from YAML with environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file values
const (
	EnvDBPath   = "BREWERP_DB_PATH"
	EnvHTTPAddr = "BREWERP_HTTP_ADDR"
	EnvLogLevel = "BREWERP_LOG_LEVEL"
)

// Config is the full brewerp.yaml structure.
// Every section is listed so KnownFields(true) rejects typos.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Auth     AuthConfig     `yaml:"auth"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Reports  ReportsConfig  `yaml:"reports"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type AuthConfig struct {
	TokenTTL   time.Duration `yaml:"token_ttl"`
	BcryptCost int           `yaml:"bcrypt_cost"`
}

type AlertsConfig struct {
	// ScanInterval of zero disables the periodic scan in serve
	ScanInterval time.Duration `yaml:"scan_interval"`
}

type ReportsConfig struct {
	ABCAThreshold  float64 `yaml:"abc_a_threshold"`
	ABCBThreshold  float64 `yaml:"abc_b_threshold"`
	SlowMovingDays int     `yaml:"slow_moving_days"`
}

// Default returns a configuration that runs out of the box
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{Path: "brewerp.db"},
		Logging:  LoggingConfig{Level: "info"},
		Auth: AuthConfig{
			TokenTTL:   24 * time.Hour,
			BcryptCost: 10,
		},
		Alerts: AlertsConfig{ScanInterval: 15 * time.Minute},
		Reports: ReportsConfig{
			ABCAThreshold:  80,
			ABCBThreshold:  95,
			SlowMovingDays: 90,
		},
	}
}

// Load overlays the YAML file at path (if any) on Default, applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := decode(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvDBPath); ok && v != "" {
		c.Database.Path = v
	}
	if v, ok := lookup(EnvHTTPAddr); ok && v != "" {
		c.HTTP.Addr = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Logging.Level = v
	}
}

// Validate reports every invalid setting at once
func (c Config) Validate() error {
	var errs []error
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr must not be empty"))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path must not be empty"))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("auth.token_ttl must be positive, got %s", c.Auth.TokenTTL))
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("auth.bcrypt_cost must be between 4 and 31, got %d", c.Auth.BcryptCost))
	}
	if c.Alerts.ScanInterval < 0 {
		errs = append(errs, fmt.Errorf("alerts.scan_interval cannot be negative, got %s", c.Alerts.ScanInterval))
	}
	a, b := c.Reports.ABCAThreshold, c.Reports.ABCBThreshold
	if !(a > 0 && a < b && b < 100) {
		errs = append(errs, fmt.Errorf("reports thresholds must satisfy 0 < abc_a_threshold < abc_b_threshold < 100, got %g and %g", a, b))
	}
	if c.Reports.SlowMovingDays <= 0 {
		errs = append(errs, fmt.Errorf("reports.slow_moving_days must be positive, got %d", c.Reports.SlowMovingDays))
	}
	return errors.Join(errs...)
}
