package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/poiesic/quarry/core"
)

// Storage engines.
const (
	EngineBadger = "badger"
	EngineSQLite = "sqlite"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "QUARRY_"

// Duration is a time.Duration written as a Go duration string ("15m").
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText writes the duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config holds all configuration settings.
type Config struct {
	Storage StorageConfig `toml:"storage"`
	Cache   CacheConfig   `toml:"cache"`
	Pool    PoolConfig    `toml:"pool"`
	Guard   GuardConfig   `toml:"guard"`
	Budgets BudgetConfig  `toml:"budgets"`
	AI      AIConfig      `toml:"ai"`
	Log     LogConfig     `toml:"log"`
}

// StorageConfig selects the document store.
type StorageConfig struct {
	Engine string `toml:"engine"` // badger or sqlite (default: badger)
	Path   string `toml:"path"`   // data directory (default: ./data)
}

// CacheConfig bounds the result cache.
type CacheConfig struct {
	Size int      `toml:"size"` // entries, 0 disables caching (default: 1024)
	TTL  Duration `toml:"ttl"`  // default: 15m
}

// PoolConfig sizes the scout worker pool.
type PoolConfig struct {
	Size         int `toml:"size"`          // concurrent scouts across queries (default: 64)
	PatternLimit int `toml:"pattern_limit"` // hits per pattern for Focused queries (default: 50)
}

// GuardConfig protects the document store from the scouts.
type GuardConfig struct {
	Rate        float64  `toml:"rate"`         // searches per second, 0 for unlimited
	Burst       int      `toml:"burst"`        // default: 1
	MaxFailures int      `toml:"max_failures"` // consecutive failures that open the circuit (default: 5)
	OpenTimeout Duration `toml:"open_timeout"` // default: 30s
}

// BudgetConfig overrides the per-priority time budgets.
type BudgetConfig struct {
	Urgent Duration `toml:"urgent"` // default: 1s
	High   Duration `toml:"high"`   // default: 5s
	Normal Duration `toml:"normal"` // default: 30s
}

// AIConfig enables the optional language-model services.
type AIConfig struct {
	Enabled bool   `toml:"enabled"`
	Host    string `toml:"host"`
	Model   string `toml:"model"`
}

// LogConfig sets the log level: debug, info, warn or error.
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{Engine: EngineBadger, Path: "./data"},
		Cache:   CacheConfig{Size: 1024, TTL: Duration{15 * time.Minute}},
		Pool:    PoolConfig{Size: 64, PatternLimit: 50},
		Guard:   GuardConfig{Burst: 1, MaxFailures: 5, OpenTimeout: Duration{30 * time.Second}},
		Budgets: BudgetConfig{
			Urgent: Duration{core.PriorityUrgent.Budget()},
			High:   Duration{core.PriorityHigh.Budget()},
			Normal: Duration{core.PriorityNormal.Budget()},
		},
		AI: AIConfig{
			Host:  "http://localhost:11434",
			Model: "qwen2.5:3b",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file; a missing file is an
// error only when path was given explicitly.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, err
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides settings from QUARRY_* environment variables.
func (c *Config) ApplyEnv() {
	c.Storage.Engine = getEnv(EnvPrefix+"STORAGE_ENGINE", c.Storage.Engine)
	c.Storage.Path = getEnv(EnvPrefix+"STORAGE_PATH", c.Storage.Path)
	c.Cache.Size = getEnvInt(EnvPrefix+"CACHE_SIZE", c.Cache.Size)
	c.Cache.TTL = getEnvDuration(EnvPrefix+"CACHE_TTL", c.Cache.TTL)
	c.Pool.Size = getEnvInt(EnvPrefix+"POOL_SIZE", c.Pool.Size)
	c.Pool.PatternLimit = getEnvInt(EnvPrefix+"POOL_PATTERN_LIMIT", c.Pool.PatternLimit)
	c.Guard.Rate = getEnvFloat(EnvPrefix+"GUARD_RATE", c.Guard.Rate)
	c.Guard.Burst = getEnvInt(EnvPrefix+"GUARD_BURST", c.Guard.Burst)
	c.Guard.MaxFailures = getEnvInt(EnvPrefix+"GUARD_MAX_FAILURES", c.Guard.MaxFailures)
	c.Guard.OpenTimeout = getEnvDuration(EnvPrefix+"GUARD_OPEN_TIMEOUT", c.Guard.OpenTimeout)
	c.Budgets.Urgent = getEnvDuration(EnvPrefix+"BUDGET_URGENT", c.Budgets.Urgent)
	c.Budgets.High = getEnvDuration(EnvPrefix+"BUDGET_HIGH", c.Budgets.High)
	c.Budgets.Normal = getEnvDuration(EnvPrefix+"BUDGET_NORMAL", c.Budgets.Normal)
	c.AI.Enabled = getEnvBool(EnvPrefix+"AI_ENABLED", c.AI.Enabled)
	c.AI.Host = getEnv(EnvPrefix+"AI_HOST", c.AI.Host)
	c.AI.Model = getEnv(EnvPrefix+"AI_MODEL", c.AI.Model)
	c.Log.Level = getEnv(EnvPrefix+"LOG_LEVEL", c.Log.Level)
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Storage.Engine) {
	case EngineBadger, EngineSQLite:
	default:
		errs = append(errs, fmt.Errorf("storage.engine %q: want %s or %s", c.Storage.Engine, EngineBadger, EngineSQLite))
	}
	if strings.TrimSpace(c.Storage.Path) == "" {
		errs = append(errs, errors.New("storage.path is required"))
	}
	if c.Cache.Size < 0 {
		errs = append(errs, fmt.Errorf("cache.size %d is negative", c.Cache.Size))
	}
	if c.Cache.TTL.Duration < 0 {
		errs = append(errs, fmt.Errorf("cache.ttl %v is negative", c.Cache.TTL))
	}
	if c.Pool.Size < 1 {
		errs = append(errs, fmt.Errorf("pool.size %d must be positive", c.Pool.Size))
	}
	if c.Pool.PatternLimit < 1 {
		errs = append(errs, fmt.Errorf("pool.pattern_limit %d must be positive", c.Pool.PatternLimit))
	}
	if c.Guard.Rate < 0 || c.Guard.Burst < 1 || c.Guard.MaxFailures < 1 {
		errs = append(errs, errors.New("guard.rate must be >= 0, guard.burst and guard.max_failures >= 1"))
	}
	for name, d := range map[string]Duration{"urgent": c.Budgets.Urgent, "high": c.Budgets.High, "normal": c.Budgets.Normal} {
		if d.Duration < 0 {
			errs = append(errs, fmt.Errorf("budgets.%s %v is negative", name, d))
		}
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q: want debug, info, warn or error", c.Log.Level))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// PriorityBudgets maps each bounded priority to its configured budget.
func (c *Config) PriorityBudgets() map[core.Priority]time.Duration {
	return map[core.Priority]time.Duration{
		core.PriorityUrgent: c.Budgets.Urgent.Duration,
		core.PriorityHigh:   c.Budgets.High.Duration,
		core.PriorityNormal: c.Budgets.Normal.Duration,
	}
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value.
// Values that do not parse are ignored.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue Duration) Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return Duration{d}
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value.
// It recognizes "true", "1", "yes" as true and "false", "0", "no" as false (case-insensitive).
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultValue
}
