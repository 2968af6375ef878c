package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Chain   ChainConfig   `mapstructure:"chain"`
	Symbols []string      `mapstructure:"symbols"`
	Prefs   PrefsConfig   `mapstructure:"prefs"`
	Notify  NotifyConfig  `mapstructure:"notify"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type ServerConfig struct {
	Port          string `mapstructure:"port"`
	DataDir       string `mapstructure:"data_dir"`
	ReplayMode    string `mapstructure:"replay_mode"` // "exhaust" or "rotation"
	WSEnabled     bool   `mapstructure:"ws_enabled"`
	WSCompression bool   `mapstructure:"ws_compression"`
}

type ChainConfig struct {
	RefreshIntervalMS  int `mapstructure:"refresh_interval_ms"`
	RefreshCooldownMS  int `mapstructure:"refresh_cooldown_ms"`
	FlashDurationMS    int `mapstructure:"flash_duration_ms"`
	StalenessTickMS    int `mapstructure:"staleness_tick_ms"`
	StaleThresholdSec  int `mapstructure:"stale_threshold_sec"`
	OIChangeNoise      int `mapstructure:"oi_change_noise"`
	DefaultStrikeRange int `mapstructure:"default_strike_range"`
	ExpiryCount        int `mapstructure:"expiry_count"`
}

type PrefsConfig struct {
	Backend  string `mapstructure:"backend"` // "memory", "file", or "redis"
	FileDir  string `mapstructure:"file_dir"`
	RedisURL string `mapstructure:"redis_url"`
}

type NotifyConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ServerURL string `mapstructure:"server_url"`
	Topic     string `mapstructure:"topic"`
	Priority  string `mapstructure:"priority"`
	Tags      string `mapstructure:"tags"`
}

type LoggingConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
	Level     string `mapstructure:"level"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.data_dir", "data")
	v.SetDefault("server.replay_mode", "rotation")
	v.SetDefault("server.ws_enabled", true)
	v.SetDefault("server.ws_compression", true)
	v.SetDefault("chain.refresh_interval_ms", 1000)
	v.SetDefault("chain.refresh_cooldown_ms", 600)
	v.SetDefault("chain.flash_duration_ms", 800)
	v.SetDefault("chain.staleness_tick_ms", 1000)
	v.SetDefault("chain.stale_threshold_sec", 10)
	v.SetDefault("chain.oi_change_noise", 100)
	v.SetDefault("chain.default_strike_range", 10)
	v.SetDefault("chain.expiry_count", 5)
	v.SetDefault("prefs.backend", "file")
	v.SetDefault("prefs.file_dir", ".chainview")
	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.server_url", "https://ntfy.sh")
	v.SetDefault("notify.topic", "")
	v.SetDefault("notify.priority", "default")
	v.SetDefault("notify.tags", "hourglass")
	v.SetDefault("logging.enabled", false)
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.level", "info")

	// Environment variable support
	v.SetEnvPrefix("CHAINVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Explicitly bind nested keys to env vars
	_ = v.BindEnv("prefs.redis_url", "CHAINVIEW_REDIS_URL")

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("default")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if len(cfg.Symbols) == 0 {
		cfg.Symbols = DefaultSymbols()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.ReplayMode != "exhaust" && c.Server.ReplayMode != "rotation" {
		return fmt.Errorf("replay_mode must be 'exhaust' or 'rotation', got %q", c.Server.ReplayMode)
	}
	switch c.Prefs.Backend {
	case "memory", "file":
	case "redis":
		if c.Prefs.RedisURL == "" {
			return fmt.Errorf("prefs.redis_url is required for the redis backend (set CHAINVIEW_REDIS_URL)")
		}
	default:
		return fmt.Errorf("prefs.backend must be 'memory', 'file', or 'redis', got %q", c.Prefs.Backend)
	}
	if c.Notify.Enabled && c.Notify.Topic == "" {
		return fmt.Errorf("notify.topic is required when notifications are enabled")
	}
	return ValidateSymbols(c.Symbols)
}

// RefreshInterval returns the snapshot refresh tick.
func (c *ChainConfig) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalMS) * time.Millisecond
}

// RefreshCooldown returns the minimum spacing between forced refreshes.
func (c *ChainConfig) RefreshCooldown() time.Duration {
	return time.Duration(c.RefreshCooldownMS) * time.Millisecond
}

// FlashDuration returns how long flash markers stay alive.
func (c *ChainConfig) FlashDuration() time.Duration {
	return time.Duration(c.FlashDurationMS) * time.Millisecond
}

// StalenessTick returns the staleness recompute interval.
func (c *ChainConfig) StalenessTick() time.Duration {
	return time.Duration(c.StalenessTickMS) * time.Millisecond
}

// StaleThreshold returns the age past which a chain is stale.
func (c *ChainConfig) StaleThreshold() time.Duration {
	return time.Duration(c.StaleThresholdSec) * time.Second
}
