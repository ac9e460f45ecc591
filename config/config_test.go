package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/quarry/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quarry.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, EngineBadger, cfg.Storage.Engine)
	assert.Equal(t, 15*time.Minute, cfg.Cache.TTL.Duration)
	assert.Equal(t, time.Second, cfg.Budgets.Urgent.Duration)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
[storage]
engine = "sqlite"
path = "/var/lib/quarry/docs.db"

[cache]
size = 10
ttl = "90s"

[guard]
rate = 20.5
open_timeout = "1m"

[budgets]
normal = "10s"

[ai]
enabled = true
model = "llama3"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, EngineSQLite, cfg.Storage.Engine)
	assert.Equal(t, "/var/lib/quarry/docs.db", cfg.Storage.Path)
	assert.Equal(t, 10, cfg.Cache.Size)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL.Duration)
	assert.Equal(t, 20.5, cfg.Guard.Rate)
	assert.Equal(t, time.Minute, cfg.Guard.OpenTimeout.Duration)
	assert.Equal(t, 10*time.Second, cfg.Budgets.Normal.Duration)
	assert.True(t, cfg.AI.Enabled)
	assert.Equal(t, "llama3", cfg.AI.Model)

	// Untouched settings keep their defaults
	assert.Equal(t, 64, cfg.Pool.Size)
	assert.Equal(t, "http://localhost:11434", cfg.AI.Host)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "[cache]\nsize = 10\n")
	t.Setenv("QUARRY_CACHE_SIZE", "99")
	t.Setenv("QUARRY_BUDGET_URGENT", "250ms")
	t.Setenv("QUARRY_AI_ENABLED", "YES")
	t.Setenv("QUARRY_POOL_SIZE", "not-a-number")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 99, cfg.Cache.Size)
	assert.Equal(t, 250*time.Millisecond, cfg.Budgets.Urgent.Duration)
	assert.True(t, cfg.AI.Enabled)
	assert.Equal(t, 64, cfg.Pool.Size, "unparseable values are ignored")
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("bad toml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "[cache\nsize = "))
		assert.Error(t, err)
	})

	t.Run("bad duration", func(t *testing.T) {
		_, err := Load(writeConfig(t, "[cache]\nttl = \"soon\"\n"))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"engine", func(c *Config) { c.Storage.Engine = "postgres" }},
		{"path", func(c *Config) { c.Storage.Path = " " }},
		{"cache size", func(c *Config) { c.Cache.Size = -1 }},
		{"pool size", func(c *Config) { c.Pool.Size = 0 }},
		{"burst", func(c *Config) { c.Guard.Burst = 0 }},
		{"budget", func(c *Config) { c.Budgets.High = Duration{-time.Second} }},
		{"log level", func(c *Config) { c.Log.Level = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestPriorityBudgets(t *testing.T) {
	cfg := Default()
	cfg.Budgets.High = Duration{2 * time.Second}
	budgets := cfg.PriorityBudgets()
	assert.Equal(t, 2*time.Second, budgets[core.PriorityHigh])
	assert.Equal(t, 30*time.Second, budgets[core.PriorityNormal])
	assert.NotContains(t, budgets, core.PriorityBackground)
}

func TestDuration_Text(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte(" 2m30s ")))
	assert.Equal(t, 150*time.Second, d.Duration)

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2m30s", string(text))
}
