package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/water-quality-monitor/internal/source"
)

const configFileEnv = "CONFIG_FILE"

var validate = validator.New()

type AppConfig struct {
	// SourceURL is the endpoint returning the JSON array of readings.
	SourceURL string `yaml:"sourceUrl" validate:"required,url"`

	// PollIntervalMs controls how often the source is polled.
	PollIntervalMs int `yaml:"pollIntervalMs" validate:"gt=0"`

	// HTTPTimeout bounds one fetch cycle, retries included. Defaults to the poll interval.
	HTTPTimeout time.Duration `yaml:"httpTimeout" validate:"gte=0"`

	FetchMaxRetries int `yaml:"fetchMaxRetries" validate:"gte=0,lte=10"`

	// StrictValidation fails a cycle on any malformed record instead of dropping it.
	StrictValidation bool `yaml:"strictValidation"`

	// PreserveSourceOrder keeps per-location history in source order instead of
	// sorting newest-first by timestamp.
	PreserveSourceOrder bool `yaml:"preserveSourceOrder"`

	// Timezone decides calendar days and chart labels.
	Timezone string `yaml:"timezone" validate:"required"`

	Port     string `yaml:"port" validate:"required,numeric"`
	LogLevel string `yaml:"logLevel" validate:"omitempty,oneof=debug info warn error"`

	location *time.Location
}

// PollInterval returns PollIntervalMs as a duration.
func (c *AppConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// Location returns the resolved Timezone.
func (c *AppConfig) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

func defaults() *AppConfig {
	return &AppConfig{
		SourceURL:       source.DefaultURL,
		PollIntervalMs:  30000,
		FetchMaxRetries: 2,
		Timezone:        "Local",
		Port:            "8080",
		LogLevel:        "info",
	}
}

// Load reads configuration from an optional YAML file and the environment,
// with environment variables taking precedence.
func Load() (*AppConfig, error) {
	// A missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg := defaults()

	if path := os.Getenv(configFileEnv); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: decode yaml: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = cfg.PollInterval()
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.location = loc

	return cfg, nil
}

func applyEnv(cfg *AppConfig) error {
	cfg.SourceURL = getenvDefault("SOURCE_URL", cfg.SourceURL)
	cfg.Timezone = getenvDefault("TIMEZONE", cfg.Timezone)
	cfg.Port = getenvDefault("PORT", cfg.Port)
	cfg.LogLevel = strings.ToLower(getenvDefault("LOG_LEVEL", cfg.LogLevel))

	var err error
	if cfg.PollIntervalMs, err = getenvInt("POLL_INTERVAL_MS", cfg.PollIntervalMs); err != nil {
		return err
	}
	if cfg.FetchMaxRetries, err = getenvInt("FETCH_MAX_RETRIES", cfg.FetchMaxRetries); err != nil {
		return err
	}
	if cfg.StrictValidation, err = getenvBool("STRICT_VALIDATION", cfg.StrictValidation); err != nil {
		return err
	}
	if cfg.PreserveSourceOrder, err = getenvBool("PRESERVE_SOURCE_ORDER", cfg.PreserveSourceOrder); err != nil {
		return err
	}

	if v := os.Getenv("HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
		}
		cfg.HTTPTimeout = d
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
