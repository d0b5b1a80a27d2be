package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the application configuration. Relay settings such as the node
// URL are not part of it; they live in the settings store.
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Log     LogConfig     `mapstructure:"log"`
	Poll    PollConfig    `mapstructure:"poll"`
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Path is the config file that was read, empty when none existed.
	Path string `mapstructure:"-"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Backend string `mapstructure:"backend" validate:"oneof=file sqlite memory"`
	Path    string `mapstructure:"path"` // empty uses the backend default
}

// LogConfig configures the rolling log file.
type LogConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	File       string `mapstructure:"file" validate:"required"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
}

// PollConfig tunes the background loops.
type PollConfig struct {
	MessagesInterval time.Duration `mapstructure:"messages_interval" validate:"gt=0"`
	HealthInterval   time.Duration `mapstructure:"health_interval" validate:"gt=0"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
}

// MetricsConfig enables the prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `mapstructure:"addr" validate:"omitempty,hostname_port"`
}

const (
	defaultConfigPath = "~/.config/wakubase/config.toml"
	defaultLogFile    = "~/.local/state/wakubase/wakubase.log"
	envPrefix         = "WAKUBASE"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", defaultLogFile)
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("poll.messages_interval", 2*time.Second)
	v.SetDefault("poll.health_interval", 5*time.Second)
	v.SetDefault("poll.request_timeout", 5*time.Second)
	v.SetDefault("metrics.addr", "")
}

// Default returns the configuration used when no file or environment
// overrides exist.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	cfg.Log.File = mustExpand(cfg.Log.File)
	return cfg
}

// Load reads the config file at path (or the default location), applies
// WAKUBASE_* environment overrides, including those from a .env file in the
// working directory, and validates the result. A missing file yields the
// defaults.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigType("toml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := Config{}
	if _, statErr := os.Stat(resolved); statErr == nil {
		v.SetConfigFile(resolved)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
		cfg.Path = resolved
	} else if !errors.Is(statErr, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("open config: %w", statErr)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))

	if p := strings.TrimSpace(cfg.Storage.Path); p != "" && p != ":memory:" {
		if cfg.Storage.Path, err = expandPath(p); err != nil {
			return Config{}, err
		}
	}
	if strings.TrimSpace(cfg.Log.File) == "" {
		cfg.Log.File = defaultLogFile
	}
	if cfg.Log.File, err = expandPath(cfg.Log.File); err != nil {
		return Config{}, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
