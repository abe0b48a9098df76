// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/oddsmith/matchodds/internal/criteria"
	"github.com/oddsmith/matchodds/internal/harvest"
)

// Config captures all configuration knobs, loaded from file and environment.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Progress  ProgressConfig  `mapstructure:"progress"`
	Extractor ExtractorConfig `mapstructure:"extractor"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Harvest   HarvestConfig   `mapstructure:"harvest"`
	Grids     GridsConfig     `mapstructure:"grids"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls the on-demand HTTP service.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// CacheConfig sets the results store path.
type CacheConfig struct {
	Path string `mapstructure:"path"`
}

// ProgressConfig sets the checkpoint and error journal paths.
type ProgressConfig struct {
	CheckpointPath string `mapstructure:"checkpoint_path"`
	ErrorLogPath   string `mapstructure:"error_log_path"`
}

// ExtractorConfig governs the headless page extractor.
type ExtractorConfig struct {
	TargetURL         string  `mapstructure:"target_url"`
	UserAgent         string  `mapstructure:"user_agent"`
	NavTimeoutSeconds int     `mapstructure:"nav_timeout_seconds"`
	TargetQPS         float64 `mapstructure:"target_qps"`
	ResultSelector    string  `mapstructure:"result_selector"`
}

// FetchConfig bounds the per-fetch retry budget.
type FetchConfig struct {
	MaxAttempts       int `mapstructure:"max_attempts"`
	RetryDelaySeconds int `mapstructure:"retry_delay_seconds"`
}

// HarvestConfig throttles the batch traversal.
type HarvestConfig struct {
	BatchSize         int `mapstructure:"batch_size"`
	ItemDelaySeconds  int `mapstructure:"item_delay_seconds"`
	BatchDelaySeconds int `mapstructure:"batch_delay_seconds"`
}

// GridsConfig overrides the enumerated value grids. Empty slices fall back to
// the built-in defaults.
type GridsConfig struct {
	MinAges        []int     `mapstructure:"min_ages"`
	MaxAges        []int     `mapstructure:"max_ages"`
	ExcludeMarried []bool    `mapstructure:"exclude_married"`
	Races          []int     `mapstructure:"races"`
	MinHeights     []float64 `mapstructure:"min_heights"`
	ExcludeObese   []bool    `mapstructure:"exclude_obese"`
	MinIncomes     []int     `mapstructure:"min_incomes"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MATCHODDS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("cache.path", "data/results.json")
	v.SetDefault("progress.checkpoint_path", "data/progress.json")
	v.SetDefault("progress.error_log_path", "data/errors.json")
	v.SetDefault("extractor.target_url", "https://datingstandards.app/calculator")
	v.SetDefault("extractor.user_agent", "matchodds-harvester/1.0")
	v.SetDefault("extractor.nav_timeout_seconds", 30)
	v.SetDefault("extractor.target_qps", 0.5)
	v.SetDefault("extractor.result_selector", "#result")
	v.SetDefault("fetch.max_attempts", 3)
	v.SetDefault("fetch.retry_delay_seconds", 5)
	v.SetDefault("harvest.batch_size", 10)
	v.SetDefault("harvest.item_delay_seconds", 3)
	v.SetDefault("harvest.batch_delay_seconds", 10)
	v.SetDefault("logging.development", false)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Extractor.TargetURL == "" {
		return fmt.Errorf("extractor.target_url must be set")
	}
	if c.Fetch.MaxAttempts <= 0 {
		return fmt.Errorf("fetch.max_attempts must be > 0")
	}
	if c.Harvest.BatchSize <= 0 {
		return fmt.Errorf("harvest.batch_size must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	return nil
}

// NavTimeout converts the extractor timeout into a duration.
func (c Config) NavTimeout() time.Duration {
	return time.Duration(c.Extractor.NavTimeoutSeconds) * time.Second
}

// RetryDelay converts the fetch retry delay into a duration.
func (c Config) RetryDelay() time.Duration {
	return time.Duration(c.Fetch.RetryDelaySeconds) * time.Second
}

// ItemDelay converts the inter-item delay into a duration.
func (c Config) ItemDelay() time.Duration {
	return time.Duration(c.Harvest.ItemDelaySeconds) * time.Second
}

// BatchDelay converts the inter-batch delay into a duration.
func (c Config) BatchDelay() time.Duration {
	return time.Duration(c.Harvest.BatchDelaySeconds) * time.Second
}

// HarvestGrids resolves the configured grids, falling back to the built-in
// defaults for any field left empty.
func (c Config) HarvestGrids() harvest.Grids {
	grids := harvest.DefaultGrids()
	if len(c.Grids.MinAges) > 0 {
		grids.MinAges = c.Grids.MinAges
	}
	if len(c.Grids.MaxAges) > 0 {
		grids.MaxAges = c.Grids.MaxAges
	}
	if len(c.Grids.ExcludeMarried) > 0 {
		grids.ExcludeMarried = c.Grids.ExcludeMarried
	}
	if len(c.Grids.Races) > 0 {
		races := make([]criteria.Race, 0, len(c.Grids.Races))
		for _, code := range c.Grids.Races {
			races = append(races, criteria.ParseRace(code))
		}
		grids.Races = races
	}
	if len(c.Grids.MinHeights) > 0 {
		grids.MinHeights = c.Grids.MinHeights
	}
	if len(c.Grids.ExcludeObese) > 0 {
		grids.ExcludeObese = c.Grids.ExcludeObese
	}
	if len(c.Grids.MinIncomes) > 0 {
		grids.MinIncomes = c.Grids.MinIncomes
	}
	return grids
}
