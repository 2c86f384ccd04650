// Package config is the furnibot configuration: the bot core settings plus
// database, admin, conversation state, catalog and company sections.
package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	coreconfig "github.com/m3rciful/furnibot/core/config"
	"github.com/m3rciful/furnibot/core/database"
)

const (
	StateMemory = "memory"
	StateRedis  = "redis"
)

type AdminConfig struct {
	UserIDs      []int64 `yaml:"user_ids" envconfig:"ADMIN_USER_IDS"`
	Password     string  `yaml:"password" envconfig:"ADMIN_PASSWORD"`
	PasswordHash string  `yaml:"password_hash" envconfig:"ADMIN_PASSWORD_HASH"`
	// Timezone renders lead timestamps, e.g. Europe/Moscow; empty means UTC.
	Timezone string `yaml:"timezone" envconfig:"ADMIN_TIMEZONE"`
}

// StateConfig selects where conversation state lives.
type StateConfig struct {
	Backend string `yaml:"backend" envconfig:"STATE_BACKEND"`
	// TTLSeconds expires idle Redis sessions; 0 keeps them until cleared.
	TTLSeconds int    `yaml:"ttl_seconds" envconfig:"STATE_TTL_SECONDS"`
	Prefix     string `yaml:"prefix" envconfig:"STATE_PREFIX"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
}

type CatalogConfig struct {
	// Seed loads the demo catalog into an empty database on startup.
	Seed bool `yaml:"seed" envconfig:"CATALOG_SEED"`
}

// CompanyConfig holds the contact lines of the about and cooperation screens.
type CompanyConfig struct {
	WhatsApp  string `yaml:"whatsapp" envconfig:"COMPANY_WHATSAPP"`
	Telegram  string `yaml:"telegram" envconfig:"COMPANY_TELEGRAM"`
	Developer string `yaml:"developer" envconfig:"COMPANY_DEVELOPER"`
}

type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database database.Config `yaml:"database"`
	Admin    AdminConfig     `yaml:"admin"`
	State    StateConfig     `yaml:"state"`
	Redis    RedisConfig     `yaml:"redis"`
	Catalog  CatalogConfig   `yaml:"catalog"`
	Company  CompanyConfig   `yaml:"company"`
}

// CoreConfig exposes the embedded bot core settings.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// StateTTL is the Redis session lifetime.
func (c *Config) StateTTL() time.Duration {
	return time.Duration(c.State.TTLSeconds) * time.Second
}

// Location resolves Admin.Timezone.
func (c *Config) Location() *time.Location {
	if c.Admin.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Admin.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads the YAML file at path, overlays the environment and normalizes.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the config and fills defaults in place.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}
	cfg.Database.Normalize()
	if strings.TrimSpace(cfg.Database.Name) == "" {
		return fmt.Errorf("database.name is required (DB_NAME)")
	}

	switch b := strings.ToLower(strings.TrimSpace(cfg.State.Backend)); b {
	case "", StateMemory:
		cfg.State.Backend = StateMemory
	case StateRedis:
		cfg.State.Backend = StateRedis
		if strings.TrimSpace(cfg.Redis.Addr) == "" {
			cfg.Redis.Addr = "localhost:6379"
		}
	default:
		return fmt.Errorf("invalid state.backend %q; allowed: memory, redis", cfg.State.Backend)
	}
	if cfg.State.TTLSeconds < 0 {
		return fmt.Errorf("state.ttl_seconds must be >= 0")
	}
	if cfg.State.Prefix == "" {
		cfg.State.Prefix = "furnibot:state:"
	}

	if cfg.Admin.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Admin.Timezone); err != nil {
			return fmt.Errorf("invalid admin.timezone %q: %w", cfg.Admin.Timezone, err)
		}
	}
	for _, id := range cfg.Admin.UserIDs {
		if id <= 0 {
			return fmt.Errorf("admin.user_ids must be positive, got %d", id)
		}
	}
	return nil
}
