package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultSessionSecret is only acceptable outside production
const DefaultSessionSecret = "change-me-in-production-change-me-in-production"

// Config holds the frontend configuration. Values come from an optional YAML
// file (CONFIG_PATH), overridden by environment variables and a .env file.
type Config struct {
	ListenAddr       string        `yaml:"listen_addr"`
	PublicURL        string        `yaml:"public_url"`
	BackendURL       string        `yaml:"backend_url"`
	DummyDataURL     string        `yaml:"dummy_data_url"`
	SessionSecret    string        `yaml:"session_secret"`
	SessionTTL       time.Duration `yaml:"session_ttl"`
	SessionCookie    string        `yaml:"session_cookie"`
	NotifySuccessTTL time.Duration `yaml:"notify_success_ttl"`
	NotifyErrorTTL   time.Duration `yaml:"notify_error_ttl"`
	DraftTTL         time.Duration `yaml:"draft_ttl"`
	LogLevel         string        `yaml:"log_level"`
	EnableMetrics    bool          `yaml:"enable_metrics"`
	LoginRatePerSec  float64       `yaml:"login_rate_per_sec"`
	LoginBurst       int           `yaml:"login_burst"`
	ImportMapping    string        `yaml:"import_mapping"`
	Environment      string        `yaml:"environment"`
}

func defaults() *Config {
	return &Config{
		ListenAddr:       ":3000",
		PublicURL:        "http://localhost:3000",
		BackendURL:       "http://localhost:8080",
		DummyDataURL:     "http://localhost:8080/api/v1/dummy-controller",
		SessionSecret:    DefaultSessionSecret,
		SessionTTL:       24 * time.Hour,
		SessionCookie:    "session",
		NotifySuccessTTL: 4 * time.Second,
		NotifyErrorTTL:   4 * time.Second,
		DraftTTL:         time.Hour,
		LogLevel:         "info",
		LoginRatePerSec:  1,
		LoginBurst:       5,
		ImportMapping:    "configs/mapping/devices.yaml",
		Environment:      "development",
	}
}

// Load reads the configuration
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: ignoring .env: %v", err)
	}

	config := defaults()
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := loadFile(path, config); err != nil {
			return nil, err
		}
	}

	config.ListenAddr = getEnv("LISTEN_ADDR", config.ListenAddr)
	config.PublicURL = getEnv("PUBLIC_URL", config.PublicURL)
	config.BackendURL = getEnv("BACKEND_URL", config.BackendURL)
	config.DummyDataURL = getEnv("DUMMY_DATA_URL", config.DummyDataURL)
	config.SessionSecret = getEnv("SESSION_SECRET", config.SessionSecret)
	config.SessionCookie = getEnv("SESSION_COOKIE", config.SessionCookie)
	config.LogLevel = getEnv("LOG_LEVEL", config.LogLevel)
	config.ImportMapping = getEnv("IMPORT_MAPPING", config.ImportMapping)
	config.Environment = getEnv("ENVIRONMENT", config.Environment)

	var err error
	if config.SessionTTL, err = getDuration("SESSION_TTL", config.SessionTTL); err != nil {
		return nil, err
	}
	if config.NotifySuccessTTL, err = getDuration("NOTIFY_SUCCESS_TTL", config.NotifySuccessTTL); err != nil {
		return nil, err
	}
	if config.NotifyErrorTTL, err = getDuration("NOTIFY_ERROR_TTL", config.NotifyErrorTTL); err != nil {
		return nil, err
	}
	if config.DraftTTL, err = getDuration("DRAFT_TTL", config.DraftTTL); err != nil {
		return nil, err
	}
	if v := os.Getenv("ENABLE_METRICS"); v != "" {
		config.EnableMetrics = v == "true"
	}
	if v := os.Getenv("LOGIN_RATE_PER_SEC"); v != "" {
		if config.LoginRatePerSec, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, fmt.Errorf("LOGIN_RATE_PER_SEC: %w", err)
		}
	}
	if v := os.Getenv("LOGIN_BURST"); v != "" {
		if config.LoginBurst, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("LOGIN_BURST: %w", err)
		}
	}

	return config, nil
}

// loadFile decodes the YAML file at path over config
func loadFile(path string, config *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(config); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	return nil
}

// LoadAndValidate loads the configuration and rejects invalid values
func LoadAndValidate() (*Config, error) {
	config, err := Load()
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// Validate checks the configuration for values the frontend cannot run with
func (c *Config) Validate() error {
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET cannot be empty")
	}
	if len(c.SessionSecret) < 32 {
		return errors.New("SESSION_SECRET must be at least 32 characters long")
	}
	if c.IsProduction() && c.SessionSecret == DefaultSessionSecret {
		return errors.New("SESSION_SECRET must be changed in production")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.SessionTTL < time.Minute {
		return errors.New("SESSION_TTL must be at least 1 minute")
	}
	if c.SessionTTL > 30*24*time.Hour {
		return errors.New("SESSION_TTL cannot exceed 30 days")
	}
	if c.SessionCookie == "" {
		return errors.New("SESSION_COOKIE cannot be empty")
	}
	for name, ttl := range map[string]time.Duration{
		"NOTIFY_SUCCESS_TTL": c.NotifySuccessTTL,
		"NOTIFY_ERROR_TTL":   c.NotifyErrorTTL,
	} {
		if ttl < 2*time.Second || ttl > 4*time.Second {
			return fmt.Errorf("%s must be between 2s and 4s, got %v", name, ttl)
		}
	}
	if c.DraftTTL <= 0 {
		return errors.New("DRAFT_TTL must be positive")
	}
	if err := validateURL("BACKEND_URL", c.BackendURL); err != nil {
		return err
	}
	if err := validateURL("DUMMY_DATA_URL", c.DummyDataURL); err != nil {
		return err
	}
	if c.LoginRatePerSec <= 0 {
		return errors.New("LOGIN_RATE_PER_SEC must be positive")
	}
	if c.LoginBurst < 1 {
		return errors.New("LOGIN_BURST must be at least 1")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error", c.LogLevel)
	}
	return nil
}

// IsProduction reports whether the frontend runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func validateURL(name, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL", name)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
