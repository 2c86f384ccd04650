package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/furnibot/core/config"
	"github.com/m3rciful/furnibot/core/database"
)

const sample = `telegram:
  token: file-token
  run_mode: longpoll
metrics:
  listen: ":9090"
database:
  host: db
  user: furnibot
  name: furnibot
admin:
  user_ids: [11, 22]
  timezone: Europe/Moscow
state:
  backend: Redis
  ttl_seconds: 3600
redis:
  addr: redis:6379
catalog:
  seed: true
company:
  whatsapp: https://wa.me/+79370080708
`

func TestLoadReadsAllSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))
	t.Setenv("ADMIN_PASSWORD", "env-secret")
	t.Setenv("DB_PORT", "6543")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-token", cfg.CoreConfig().Telegram.Token)
	assert.Equal(t, ":9090", cfg.Metrics.Listen)
	assert.Equal(t, coreconfig.ParseModeHTML, cfg.Telegram.ParseMode)
	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, "6543", cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, []int64{11, 22}, cfg.Admin.UserIDs)
	assert.Equal(t, "env-secret", cfg.Admin.Password)
	assert.Equal(t, StateRedis, cfg.State.Backend)
	assert.Equal(t, time.Hour, cfg.StateTTL())
	assert.Equal(t, "furnibot:state:", cfg.State.Prefix)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Catalog.Seed)
	assert.Equal(t, "https://wa.me/+79370080708", cfg.Company.WhatsApp)
	assert.Equal(t, "Europe/Moscow", cfg.Location().String())
}

func TestNormalizeDefaultsAndRejects(t *testing.T) {
	base := func() Config {
		c := Config{Database: databaseName("furnibot")}
		c.Telegram.Token = "t"
		return c
	}

	cfg := base()
	require.NoError(t, Normalize(&cfg))
	assert.Equal(t, StateMemory, cfg.State.Backend)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.Equal(t, time.Duration(0), cfg.StateTTL())

	bad := map[string]func(*Config){
		"no token":       func(c *Config) { c.Telegram.Token = "" },
		"no db name":     func(c *Config) { c.Database.Name = "" },
		"unknown state":  func(c *Config) { c.State.Backend = "etcd" },
		"negative ttl":   func(c *Config) { c.State.TTLSeconds = -1 },
		"bad timezone":   func(c *Config) { c.Admin.Timezone = "Mars/Olympus" },
		"bad admin id":   func(c *Config) { c.Admin.UserIDs = []int64{0} },
		"bad parse mode": func(c *Config) { c.Telegram.ParseMode = "rtf" },
	}
	for name, mutate := range bad {
		t.Run(name, func(t *testing.T) {
			c := base()
			mutate(&c)
			assert.Error(t, Normalize(&c))
		})
	}
	assert.Error(t, Normalize(nil))
}

func TestRedisBackendDefaultsAddr(t *testing.T) {
	cfg := Config{Database: databaseName("x"), State: StateConfig{Backend: "redis"}}
	cfg.Telegram.Token = "t"
	require.NoError(t, Normalize(&cfg))
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func databaseName(name string) database.Config {
	return database.Config{Name: name}
}
