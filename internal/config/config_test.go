package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config must validate: %v", err)
	}

	if cfg.Feed.QuoteAsset != "USDT" {
		t.Errorf("QuoteAsset = %q, want USDT", cfg.Feed.QuoteAsset)
	}
	th := cfg.Engine.Thresholds()
	if th.MinNotificationTimeoutMs != 3000 || th.MinPriceNotificationPercent != 3 {
		t.Errorf("Unexpected default thresholds: %+v", th)
	}
	if th.MinPriceBreachTimeoutMs != 1 || th.MinPriceBreachPercent != 0.5 || th.MinVolumeLimit != 500000 {
		t.Errorf("Unexpected default thresholds: %+v", th)
	}
	if cfg.Activity.DefaultVolumeFloor != 10000000 || cfg.Activity.MaxSymbolsPerInterval != 1000 {
		t.Errorf("Unexpected activity defaults: %+v", cfg.Activity)
	}
	if cfg.Telegram.Enabled {
		t.Error("Telegram must be disabled by default")
	}
	if cfg.Server.LimitCap != 200 {
		t.Errorf("LimitCap = %d, want 200", cfg.Server.LimitCap)
	}

	// Empty timeframe section falls back to the built-in cadences.
	tfs := cfg.Activity.ModelTimeframes()
	if len(tfs) != 4 || tfs[0].Key != "1s" {
		t.Errorf("Default timeframes = %+v", tfs)
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
feed:
  quote_asset: BUSD
engine:
  min_price_notification_percent: 7.5
activity:
  timeframes:
    - key: 10s
      sample_interval_ms: 10000
      max_samples: 30
  default_volume_floor: 5000000
server:
  limit_cap: 50
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if cfg.Feed.QuoteAsset != "BUSD" {
		t.Errorf("QuoteAsset = %q, want BUSD", cfg.Feed.QuoteAsset)
	}
	if cfg.Engine.MinPriceNotificationPercent != 7.5 {
		t.Errorf("MinPriceNotificationPercent = %v, want 7.5", cfg.Engine.MinPriceNotificationPercent)
	}
	if cfg.Server.LimitCap != 50 {
		t.Errorf("LimitCap = %d, want 50", cfg.Server.LimitCap)
	}

	tfs := cfg.Activity.ModelTimeframes()
	if len(tfs) != 1 {
		t.Fatalf("Timeframes = %+v, want the single configured one", tfs)
	}
	// Window is derived from cadence and cap.
	if tfs[0].Key != "10s" || tfs[0].WindowMs != 300000 || tfs[0].MaxSamples != 30 {
		t.Errorf("Timeframe = %+v", tfs[0])
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty stream url", func(c *Config) { c.Feed.StreamURL = "" }},
		{"empty quote asset", func(c *Config) { c.Feed.QuoteAsset = "" }},
		{"ping above read timeout", func(c *Config) { c.Feed.PingInterval = 2 * c.Feed.ReadTimeout }},
		{"zero notification timeout", func(c *Config) { c.Engine.MinNotificationTimeoutMs = 0 }},
		{"negative notification percent", func(c *Config) { c.Engine.MinPriceNotificationPercent = -1 }},
		{"negative volume floor", func(c *Config) { c.Activity.DefaultVolumeFloor = -1 }},
		{"zero symbol cap", func(c *Config) { c.Activity.MaxSymbolsPerInterval = 0 }},
		{"telegram enabled without token", func(c *Config) {
			c.Telegram.Enabled = true
			c.Telegram.Recipients = []int64{1}
			c.Telegram.BotToken = ""
		}},
		{"telegram enabled without recipients", func(c *Config) {
			c.Telegram.Enabled = true
			c.Telegram.BotToken = "token"
		}},
		{"limit cap out of range", func(c *Config) { c.Server.LimitCap = 5000 }},
		{"empty db path", func(c *Config) { c.Storage.DBPath = "" }},
		{"persistence interval too short", func(c *Config) { c.Storage.PersistenceInterval = 0 }},
		{"unknown log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"unknown log format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, "{}\n"))
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation to fail")
			}
		})
	}
}
