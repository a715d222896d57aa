package models

import (
	"math"
	"testing"
)

func TestTickValidate(t *testing.T) {
	valid := Tick{Symbol: "BTCUSDT", Price: 100, Volume: 1e6, TimestampMs: 1700000000000}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate failed for a valid tick: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Tick)
	}{
		{"empty symbol", func(tk *Tick) { tk.Symbol = "" }},
		{"zero price", func(tk *Tick) { tk.Price = 0 }},
		{"nan price", func(tk *Tick) { tk.Price = math.NaN() }},
		{"infinite price", func(tk *Tick) { tk.Price = math.Inf(1) }},
		{"negative volume", func(tk *Tick) { tk.Volume = -1 }},
		{"zero timestamp", func(tk *Tick) { tk.TimestampMs = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tick := valid
			tt.mutate(&tick)
			if err := tick.Validate(); err == nil {
				t.Error("Expected validation to fail")
			}
		})
	}
}

func TestBreachEventPercents(t *testing.T) {
	event := BreachEvent{CurrentPrice: 104, PreviousPrice: 100, OpenPrice: 95}
	if got := event.ChangePercent(); got != 4 {
		t.Errorf("ChangePercent = %v, want 4", got)
	}

	// Above the open: plain relative change.
	up := BreachEvent{CurrentPrice: 110, OpenPrice: 100}
	if got := up.DailyChangePercent(); math.Abs(got-10) > 1e-9 {
		t.Errorf("DailyChangePercent = %v, want 10", got)
	}
	// Below the open: the drawdown is expressed as the recovery it would take.
	down := BreachEvent{CurrentPrice: 50, OpenPrice: 100}
	if got := down.DailyChangePercent(); math.Abs(got+100) > 1e-9 {
		t.Errorf("DailyChangePercent = %v, want -100", got)
	}

	zero := BreachEvent{CurrentPrice: 100}
	if got := zero.ChangePercent(); got != 0 {
		t.Errorf("ChangePercent with zero baseline = %v, want 0", got)
	}
}

func TestThresholdsValidate(t *testing.T) {
	defaults := DefaultThresholds()
	if err := defaults.Validate(); err != nil {
		t.Fatalf("Default thresholds must validate: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Thresholds)
	}{
		{"zero notification timeout", func(th *Thresholds) { th.MinNotificationTimeoutMs = 0 }},
		{"zero breach timeout", func(th *Thresholds) { th.MinPriceBreachTimeoutMs = 0 }},
		{"zero notification percent", func(th *Thresholds) { th.MinPriceNotificationPercent = 0 }},
		{"nan breach percent", func(th *Thresholds) { th.MinPriceBreachPercent = math.NaN() }},
		{"negative volume limit", func(th *Thresholds) { th.MinVolumeLimit = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := DefaultThresholds()
			tt.mutate(&th)
			if err := th.Validate(); err == nil {
				t.Error("Expected validation to fail")
			}
		})
	}
}

func TestNewTimeframeDerivesWindow(t *testing.T) {
	tf := NewTimeframe("5m", 5*60*1000, 60)
	if tf.WindowMs != 5*60*1000*60 {
		t.Errorf("WindowMs = %d, want cadence times sample cap", tf.WindowMs)
	}
	if err := tf.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}
