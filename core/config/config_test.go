package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDefaults(t *testing.T) {
	cfg := &Config{Telegram: TelegramConfig{Token: "123:abc"}}
	require.NoError(t, Normalize(cfg))

	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, ParseModeHTML, cfg.Telegram.ParseMode)
}

func TestNormalizeRejects(t *testing.T) {
	cases := map[string]Config{
		"missing token": {},
		"bad run mode":  {Telegram: TelegramConfig{Token: "t", RunMode: "push"}},
		"webhook without url": {
			Telegram: TelegramConfig{Token: "t", RunMode: "webhook"},
			Webhook:  WebhookConfig{Listen: "0.0.0.0", Port: 8443},
		},
		"bad parse mode": {Telegram: TelegramConfig{Token: "t", ParseMode: "rtf"}},
		"bad exclude": {
			Telegram:  TelegramConfig{Token: "t"},
			RateLimit: RateLimitConfig{ExcludeUpdates: []string{"poll"}},
		},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			c := cfg
			assert.Error(t, Normalize(&c))
		})
	}
}

func TestNormalizeCanonicalises(t *testing.T) {
	cfg := &Config{
		Telegram:  TelegramConfig{Token: "t", RunMode: "Polling", ParseMode: "markdownv2"},
		RateLimit: RateLimitConfig{ExcludeUpdates: []string{" Callback ", ""}},
	}
	require.NoError(t, Normalize(cfg))

	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, ParseModeMarkdownV2, cfg.Telegram.ParseMode)
	assert.Equal(t, []string{UpdateCallback}, cfg.RateLimit.ExcludeUpdates)
}

func TestLoadOverlaysEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "telegram:\n  token: from-file\n  run_mode: longpoll\nmetrics:\n  listen: \":9090\"\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("BOT_TOKEN", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Telegram.Token)
	assert.Equal(t, ":9090", cfg.Metrics.Listen)
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv("BOT_TOKEN", "env-only")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "env-only", cfg.Telegram.Token)
}
