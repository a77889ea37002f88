// Package config assembles service settings from an optional YAML file and
// environment variables, env taking precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all mirror settings.
type Config struct {
	InventoryPath string
	DataDir       string
	StorePath     string
	BaseURL       string

	Workers        int
	RequestTimeout time.Duration
	Force          bool

	// Schedule is a cron expression; empty selects a single one-shot pass.
	Schedule string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Provenance announcements. Enabled iff KafkaTopic is set.
	KafkaBrokers []string
	KafkaTopic   string
}

// fileConfig mirrors Config for YAML unmarshaling; durations are strings so
// "20s" style values work.
type fileConfig struct {
	InventoryPath   *string  `yaml:"inventory_path"`
	DataDir         *string  `yaml:"data_dir"`
	StorePath       *string  `yaml:"store_path"`
	BaseURL         *string  `yaml:"base_url"`
	Workers         *int     `yaml:"workers"`
	RequestTimeout  *string  `yaml:"request_timeout"`
	Force           *bool    `yaml:"force"`
	Schedule        *string  `yaml:"schedule"`
	HTTPAddr        *string  `yaml:"http_addr"`
	LogLevel        *string  `yaml:"log_level"`
	LogFormat       *string  `yaml:"log_format"`
	ShutdownTimeout *string  `yaml:"shutdown_timeout"`
	KafkaBrokers    []string `yaml:"kafka_brokers"`
	KafkaTopic      *string  `yaml:"kafka_topic"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		InventoryPath:   "Station Inventory EN.csv",
		DataDir:         ".",
		StorePath:       "StationRefresh.db",
		Workers:         8,
		RequestTimeout:  10 * time.Second,
		HTTPAddr:        ":8080",
		LogLevel:        "info",
		LogFormat:       "json",
		ShutdownTimeout: 10 * time.Second,
		KafkaBrokers:    []string{"localhost:9092"},
	}
}

// Load builds the config: defaults, then the YAML file at path (if path is
// non-empty), then environment variables, then validation.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if fc.InventoryPath != nil {
		c.InventoryPath = *fc.InventoryPath
	}
	if fc.DataDir != nil {
		c.DataDir = *fc.DataDir
	}
	if fc.StorePath != nil {
		c.StorePath = *fc.StorePath
	}
	if fc.BaseURL != nil {
		c.BaseURL = *fc.BaseURL
	}
	if fc.Workers != nil {
		c.Workers = *fc.Workers
	}
	if fc.RequestTimeout != nil {
		d, err := time.ParseDuration(*fc.RequestTimeout)
		if err != nil {
			return fmt.Errorf("parse request_timeout: %w", err)
		}
		c.RequestTimeout = d
	}
	if fc.Force != nil {
		c.Force = *fc.Force
	}
	if fc.Schedule != nil {
		c.Schedule = *fc.Schedule
	}
	if fc.HTTPAddr != nil {
		c.HTTPAddr = *fc.HTTPAddr
	}
	if fc.LogLevel != nil {
		c.LogLevel = *fc.LogLevel
	}
	if fc.LogFormat != nil {
		c.LogFormat = *fc.LogFormat
	}
	if fc.ShutdownTimeout != nil {
		d, err := time.ParseDuration(*fc.ShutdownTimeout)
		if err != nil {
			return fmt.Errorf("parse shutdown_timeout: %w", err)
		}
		c.ShutdownTimeout = d
	}
	if fc.KafkaBrokers != nil {
		c.KafkaBrokers = fc.KafkaBrokers
	}
	if fc.KafkaTopic != nil {
		c.KafkaTopic = *fc.KafkaTopic
	}
	return nil
}

func (c *Config) loadEnv() error {
	if v := os.Getenv("MIRROR_INVENTORY"); v != "" {
		c.InventoryPath = v
	}
	if v := os.Getenv("MIRROR_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("MIRROR_STORE_PATH"); v != "" {
		c.StorePath = v
	}
	if v := os.Getenv("MIRROR_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("MIRROR_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse MIRROR_WORKERS: %w", err)
		}
		c.Workers = n
	}
	if v := os.Getenv("MIRROR_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse MIRROR_REQUEST_TIMEOUT: %w", err)
		}
		c.RequestTimeout = d
	}
	if v := os.Getenv("MIRROR_FORCE"); v != "" {
		c.Force = v == "true" || v == "1"
	}
	if v := os.Getenv("MIRROR_SCHEDULE"); v != "" {
		c.Schedule = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.HTTPAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse SHUTDOWN_TIMEOUT: %w", err)
		}
		c.ShutdownTimeout = d
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.KafkaBrokers = splitBrokers(v)
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.KafkaTopic = v
	}
	return nil
}

func (c *Config) validate() error {
	if c.InventoryPath == "" {
		return errors.New("MIRROR_INVENTORY is required")
	}
	if c.StorePath == "" {
		return errors.New("MIRROR_STORE_PATH is required")
	}
	if c.Workers <= 0 {
		return errors.New("MIRROR_WORKERS must be positive")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("MIRROR_REQUEST_TIMEOUT must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}
	if c.KafkaTopic != "" && len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_TOPIC is set but KAFKA_BROKERS is empty")
	}
	return nil
}

// AnnounceEnabled reports whether provenance publishing is configured.
func (c *Config) AnnounceEnabled() bool {
	return c.KafkaTopic != ""
}

func splitBrokers(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
