// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

// StorageConfig selects the ledger persistence tier.
// driver "postgres" gives transactional read-modify-write; driver "file"
// is the single-process best-effort flat-file store.
type StorageConfig struct {
	Driver string `yaml:"driver"` // postgres | file
	URL    string `yaml:"url"`    // postgres connection string
	Path   string `yaml:"path"`   // flat-file path
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// Enabled gates the per-device request limiter; the ledger itself never
	// needs redis.
	Enabled bool `yaml:"enabled"`
}

type AIConfig struct {
	GeminiKey         string `yaml:"gemini_key"`
	GeminiURL         string `yaml:"gemini_url"`
	OpenAIKey         string `yaml:"openai_key"`
	DefaultModel      string `yaml:"default_model"`
	SystemInstruction string `yaml:"system_instruction"`
}

type PaymentConfig struct {
	Razorpay struct {
		KeyID     string `yaml:"key_id"`
		KeySecret string `yaml:"key_secret"`
		BaseURL   string `yaml:"base_url"` // override for tests/sandbox
	} `yaml:"razorpay"`
}

type QuotaConfig struct {
	// CreditCap bounds how far repeated refunds can push the daily counter.
	// 0 keeps the legacy uncapped behavior.
	CreditCap int `yaml:"credit_cap"`
	// RateLimit / RateWindow throttle /generate per device (redis-backed).
	RateLimit  int           `yaml:"rate_limit"`
	RateWindow time.Duration `yaml:"rate_window"`
}

type AdminConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
	Password   string        `yaml:"password"`
}

type PlanConfig struct {
	Days   int   `yaml:"days"`
	Amount int64 `yaml:"amount"` // minor units (paise)
}

type Config struct {
	Server   ServerConfig  `yaml:"server"`
	Log      LogConfig     `yaml:"log"`
	Storage  StorageConfig `yaml:"storage"`
	Redis    RedisConfig   `yaml:"redis"`
	AI       AIConfig      `yaml:"ai"`
	Payment  PaymentConfig `yaml:"payment"`
	Quota    QuotaConfig   `yaml:"quota"`
	Admin    AdminConfig   `yaml:"admin"`
	Currency string        `yaml:"currency"`
	Plans    []PlanConfig  `yaml:"plans"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "file"
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "devices.json"
	}
	if cfg.AI.DefaultModel == "" {
		cfg.AI.DefaultModel = "gemini-2.0-flash"
	}
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	if cfg.Quota.RateLimit <= 0 {
		cfg.Quota.RateLimit = 30
	}
	if cfg.Quota.RateWindow <= 0 {
		cfg.Quota.RateWindow = time.Minute
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = 30 * time.Minute
	}
	if len(cfg.Plans) == 0 {
		cfg.Plans = []PlanConfig{{Days: 30, Amount: 9900}}
	}
	cfg.Runtime.Dev = dev
	return &cfg, nil
}
