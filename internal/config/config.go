package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Data    DataConfig    `mapstructure:"data"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Decode  DecodeConfig  `mapstructure:"decode"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// DataConfig holds the remote data locations
type DataConfig struct {
	BaseURL      string   `mapstructure:"base_url"`      // Generated index/category files
	StatsBaseURL string   `mapstructure:"stats_base_url"` // hot-<series>.json files
	CDNBaseURL   string   `mapstructure:"cdn_base_url"`   // Image asset host
	RPCBaseURL   string   `mapstructure:"rpc_base_url"`   // Counter increment endpoint
	RPCKey       string   `mapstructure:"rpc_key"`
	Series       []string `mapstructure:"series"` // Known series identifiers
}

// CatalogConfig holds the load policy. The first-screen count and walk
// pause are fixed policy, not adaptive; they exist as settings only so
// deployments can tune the constants.
type CatalogConfig struct {
	FirstScreen int           `mapstructure:"first_screen"`
	WalkPause   time.Duration `mapstructure:"walk_pause"`
	CacheDir    string        `mapstructure:"cache_dir"`
}

// DecodeConfig holds the decode pool settings
type DecodeConfig struct {
	Workers   int `mapstructure:"workers"`
	Threshold int `mapstructure:"threshold"` // Minimum blob size for pool dispatch
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Series: []string{"desktop", "mobile", "avatar"},
		},
		Catalog: CatalogConfig{
			FirstScreen: 3,
			WalkPause:   100 * time.Millisecond,
			CacheDir:    defaultCachePath(),
		},
		Decode: DecodeConfig{
			Workers:   2,
			Threshold: 1024,
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "muro", "muro.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "muro", "muro.log")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "muro")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "muro")
	}
}

// defaultCachePath returns the default cache directory for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "muro", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "muro", "cache")
	}
}

// LoadConfig loads configuration from file and environment
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(defaultConfigPath())
	viper.AddConfigPath(".")

	// Environment variable overrides
	viper.SetEnvPrefix("MURO")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the current configuration to file
func SaveConfig(cfg *Config) error {
	configPath := defaultConfigPath()
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	viper.Set("data.base_url", cfg.Data.BaseURL)
	viper.Set("data.stats_base_url", cfg.Data.StatsBaseURL)
	viper.Set("data.cdn_base_url", cfg.Data.CDNBaseURL)
	viper.Set("data.rpc_base_url", cfg.Data.RPCBaseURL)
	viper.Set("data.rpc_key", cfg.Data.RPCKey)
	viper.Set("data.series", cfg.Data.Series)

	viper.Set("catalog.first_screen", cfg.Catalog.FirstScreen)
	viper.Set("catalog.walk_pause", cfg.Catalog.WalkPause)
	viper.Set("catalog.cache_dir", cfg.Catalog.CacheDir)

	viper.Set("decode.workers", cfg.Decode.Workers)
	viper.Set("decode.threshold", cfg.Decode.Threshold)

	viper.Set("logging.file", cfg.Logging.File)
	viper.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(configPath, "config.yaml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// IsConfigured returns true if the data base URL is set
func (c *Config) IsConfigured() bool {
	return c.Data.BaseURL != ""
}

// GetCachePath returns the cache directory path
func GetCachePath() string {
	return defaultCachePath()
}

// ClearCache removes all cached data
func ClearCache() error {
	cachePath := defaultCachePath()
	if err := os.RemoveAll(cachePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
