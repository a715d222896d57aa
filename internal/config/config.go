// Package config loads and validates the application configuration.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"tickersentry/internal/models"
)

// Config represents the complete application configuration.
type Config struct {
	Feed     FeedConfig     `mapstructure:"feed"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Activity ActivityConfig `mapstructure:"activity"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// FeedConfig holds the market-data websocket configuration.
type FeedConfig struct {
	StreamURL        string        `mapstructure:"stream_url"`
	QuoteAsset       string        `mapstructure:"quote_asset"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	PingInterval     time.Duration `mapstructure:"ping_interval"`
	MaxBackoff       time.Duration `mapstructure:"max_backoff"`
}

// EngineConfig holds the breach decision thresholds.
type EngineConfig struct {
	MinNotificationTimeoutMs    int64   `mapstructure:"min_notification_timeout_ms"`
	MinPriceNotificationPercent float64 `mapstructure:"min_price_notification_percent"`
	MinPriceBreachTimeoutMs     int64   `mapstructure:"min_price_breach_timeout_ms"`
	MinPriceBreachPercent       float64 `mapstructure:"min_price_breach_percent"`
	MinVolumeLimit              float64 `mapstructure:"min_volume_limit"`
}

// Thresholds converts the engine section into the domain form.
func (e EngineConfig) Thresholds() models.Thresholds {
	return models.Thresholds{
		MinNotificationTimeoutMs:    e.MinNotificationTimeoutMs,
		MinPriceNotificationPercent: e.MinPriceNotificationPercent,
		MinPriceBreachTimeoutMs:     e.MinPriceBreachTimeoutMs,
		MinPriceBreachPercent:       e.MinPriceBreachPercent,
		MinVolumeLimit:              e.MinVolumeLimit,
	}
}

// TimeframeConfig describes one aggregation cadence.
type TimeframeConfig struct {
	Key              string `mapstructure:"key"`
	SampleIntervalMs int64  `mapstructure:"sample_interval_ms"`
	MaxSamples       int    `mapstructure:"max_samples"`
}

// ActivityConfig holds the sliding-window tracker configuration.
type ActivityConfig struct {
	Timeframes            []TimeframeConfig `mapstructure:"timeframes"`
	DefaultVolumeFloor    float64           `mapstructure:"default_volume_floor"`
	MaxSymbolsPerInterval int               `mapstructure:"max_symbols_per_interval"`
}

// ModelTimeframes converts the configured cadences into the domain form,
// falling back to the defaults when the section is empty.
func (a ActivityConfig) ModelTimeframes() []models.Timeframe {
	if len(a.Timeframes) == 0 {
		return models.DefaultTimeframes()
	}
	out := make([]models.Timeframe, len(a.Timeframes))
	for i, tf := range a.Timeframes {
		out[i] = models.NewTimeframe(tf.Key, tf.SampleIntervalMs, tf.MaxSamples)
	}
	return out
}

// TelegramConfig holds the notification collaborator configuration.
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	Recipients     []int64       `mapstructure:"recipients"`
	AdminIDs       []int64       `mapstructure:"admin_ids"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`

	MarkPercentThreshold      float64 `mapstructure:"mark_percent_threshold"`
	MarkDailyPercentThreshold float64 `mapstructure:"mark_daily_percent_threshold"`
	MarkVolumeThreshold       float64 `mapstructure:"mark_volume_threshold"`
}

// ServerConfig holds the HTTP query surface configuration.
type ServerConfig struct {
	Addr     string `mapstructure:"addr"`
	LimitCap int    `mapstructure:"limit_cap"`
	Enabled  bool   `mapstructure:"enabled"`
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	DBPath              string        `mapstructure:"db_path"`
	PersistenceInterval time.Duration `mapstructure:"persistence_interval"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	v.SetEnvPrefix("TICKERSENTRY")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("feed.stream_url", "wss://stream.binance.com:9443/ws/!miniTicker@arr")
	v.SetDefault("feed.quote_asset", "USDT")
	v.SetDefault("feed.handshake_timeout", "10s")
	v.SetDefault("feed.read_timeout", "30s")
	v.SetDefault("feed.ping_interval", "15s")
	v.SetDefault("feed.max_backoff", "30s")

	v.SetDefault("engine.min_notification_timeout_ms", 3000)
	v.SetDefault("engine.min_price_notification_percent", 3.0)
	v.SetDefault("engine.min_price_breach_timeout_ms", 1)
	v.SetDefault("engine.min_price_breach_percent", 0.5)
	v.SetDefault("engine.min_volume_limit", 500000.0)

	v.SetDefault("activity.default_volume_floor", 10000000.0)
	v.SetDefault("activity.max_symbols_per_interval", 1000)

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")
	v.SetDefault("telegram.mark_percent_threshold", 5.0)
	v.SetDefault("telegram.mark_daily_percent_threshold", 30.0)
	v.SetDefault("telegram.mark_volume_threshold", 100000000.0)

	v.SetDefault("server.addr", ":3000")
	v.SetDefault("server.limit_cap", 200)
	v.SetDefault("server.enabled", true)

	v.SetDefault("storage.db_path", "./data/tickersentry.db")
	v.SetDefault("storage.persistence_interval", "60s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid. Invariant
// violations here fail startup rather than surfacing per tick.
func (c *Config) Validate() error {
	if c.Feed.StreamURL == "" {
		return fmt.Errorf("feed.stream_url is required")
	}
	if c.Feed.QuoteAsset == "" {
		return fmt.Errorf("feed.quote_asset is required")
	}
	if c.Feed.HandshakeTimeout <= 0 {
		return fmt.Errorf("feed.handshake_timeout must be positive")
	}
	if c.Feed.ReadTimeout <= 0 {
		return fmt.Errorf("feed.read_timeout must be positive")
	}
	if c.Feed.PingInterval <= 0 || c.Feed.PingInterval >= c.Feed.ReadTimeout {
		return fmt.Errorf("feed.ping_interval must be positive and below feed.read_timeout")
	}

	thresholds := c.Engine.Thresholds()
	if err := thresholds.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	for _, tf := range c.Activity.Timeframes {
		model := models.NewTimeframe(tf.Key, tf.SampleIntervalMs, tf.MaxSamples)
		if err := model.Validate(); err != nil {
			return fmt.Errorf("activity.timeframes: %w", err)
		}
	}
	if c.Activity.DefaultVolumeFloor < 0 {
		return fmt.Errorf("activity.default_volume_floor must not be negative")
	}
	if c.Activity.MaxSymbolsPerInterval < 1 {
		return fmt.Errorf("activity.max_symbols_per_interval must be at least 1")
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if len(c.Telegram.Recipients) == 0 {
			return fmt.Errorf("telegram.recipients must not be empty when telegram is enabled")
		}
	}

	if c.Server.Enabled {
		if c.Server.Addr == "" {
			return fmt.Errorf("server.addr is required when the server is enabled")
		}
		if c.Server.LimitCap < 1 || c.Server.LimitCap > 1000 {
			return fmt.Errorf("server.limit_cap must be between 1 and 1000")
		}
	}

	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
	}
	if c.Storage.PersistenceInterval < time.Second {
		return fmt.Errorf("storage.persistence_interval must be at least 1 second")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
