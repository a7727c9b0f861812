package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Shopify  ShopifyConfig  `yaml:"shopify"`
	Engine   EngineConfig   `yaml:"engine"`
	Cleanup  CleanupConfig  `yaml:"cleanup"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// RedisConfig holds Redis settings. When Addr is empty the engine falls back
// to the Postgres-backed lock and cooldown stores.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ShopifyConfig holds Shopify Admin API settings.
type ShopifyConfig struct {
	APIVersion     string `yaml:"api_version"`
	AccessToken    string `yaml:"access_token"`
	WebhookSecret  string `yaml:"webhook_secret"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
}

// Timeout returns the HTTP timeout as a duration.
func (c ShopifyConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// EngineConfig holds the rule execution engine's lock TTLs and suppression
// windows. These bound the minimum spacing between automated price changes
// on the same variant/campaign; they are tunable per deployment, not per rule.
type EngineConfig struct {
	WebhookLockTTLSeconds   int `yaml:"webhook_lock_ttl_seconds"`
	CampaignLockTTLSeconds  int `yaml:"campaign_lock_ttl_seconds"`
	VariantCooldownSeconds  int `yaml:"variant_cooldown_seconds"`
	CampaignCooldownSeconds int `yaml:"campaign_cooldown_seconds"`
	SelfEchoWindowSeconds   int `yaml:"self_echo_window_seconds"`
}

// WebhookLockTTL is the TTL of the per-message processing lock.
func (c EngineConfig) WebhookLockTTL() time.Duration {
	return time.Duration(c.WebhookLockTTLSeconds) * time.Second
}

// CampaignLockTTL is the TTL of the per-variant execution lock.
func (c EngineConfig) CampaignLockTTL() time.Duration {
	return time.Duration(c.CampaignLockTTLSeconds) * time.Second
}

// VariantCooldown is the post-update suppression window per variant.
func (c EngineConfig) VariantCooldown() time.Duration {
	return time.Duration(c.VariantCooldownSeconds) * time.Second
}

// CampaignCooldown is the per-campaign trigger suppression window.
func (c EngineConfig) CampaignCooldown() time.Duration {
	return time.Duration(c.CampaignCooldownSeconds) * time.Second
}

// SelfEchoWindow is how recently a payload variant must have been modified
// for the event to be treated as an echo of the engine's own write.
func (c EngineConfig) SelfEchoWindow() time.Duration {
	return time.Duration(c.SelfEchoWindowSeconds) * time.Second
}

// CleanupConfig holds retention settings for the cleanup worker.
type CleanupConfig struct {
	IntervalMinutes  int `yaml:"interval_minutes"`
	RunRetentionDays int `yaml:"run_retention_days"`
}

// Interval returns the cleanup cycle interval as a duration.
func (c CleanupConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Shopify.APIVersion == "" {
		cfg.Shopify.APIVersion = "2024-10"
	}
	if cfg.Shopify.TimeoutSeconds == 0 {
		cfg.Shopify.TimeoutSeconds = 30
	}
	if cfg.Shopify.MaxRetries == 0 {
		cfg.Shopify.MaxRetries = 3
	}
	if cfg.Engine.WebhookLockTTLSeconds == 0 {
		cfg.Engine.WebhookLockTTLSeconds = 60
	}
	if cfg.Engine.CampaignLockTTLSeconds == 0 {
		cfg.Engine.CampaignLockTTLSeconds = 120
	}
	if cfg.Engine.VariantCooldownSeconds == 0 {
		cfg.Engine.VariantCooldownSeconds = 120
	}
	if cfg.Engine.CampaignCooldownSeconds == 0 {
		cfg.Engine.CampaignCooldownSeconds = 60
	}
	if cfg.Engine.SelfEchoWindowSeconds == 0 {
		cfg.Engine.SelfEchoWindowSeconds = 60
	}
	if cfg.Cleanup.IntervalMinutes == 0 {
		cfg.Cleanup.IntervalMinutes = 60
	}
	if cfg.Cleanup.RunRetentionDays == 0 {
		cfg.Cleanup.RunRetentionDays = 30
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in production.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SHOPIFY_ACCESS_TOKEN"); v != "" {
		cfg.Shopify.AccessToken = v
	}
	if v := os.Getenv("SHOPIFY_WEBHOOK_SECRET"); v != "" {
		cfg.Shopify.WebhookSecret = v
	}
	if v := os.Getenv("SHOPIFY_API_VERSION"); v != "" {
		cfg.Shopify.APIVersion = v
	}

	return cfg, nil
}
