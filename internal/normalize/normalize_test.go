package normalize

import (
	"testing"
	"time"
)

func validRaw() RawTicker {
	return RawTicker{
		EventType:   EventMiniTicker,
		EventTimeMs: 1700000000000,
		Symbol:      "BTCUSDT",
		ClosePrice:  "50000.5",
		OpenPrice:   "49000",
		HighPrice:   "51000",
		LowPrice:    "48500",
		QuoteVolume: "123456789",
	}
}

func TestNormalize(t *testing.T) {
	n := New("USDT")
	now := time.UnixMilli(1700000001234)

	tick, ok := n.Normalize(validRaw(), now)
	if !ok {
		t.Fatal("Expected valid raw ticker to normalize")
	}
	if tick.Symbol != "BTCUSDT" {
		t.Errorf("Symbol = %q, want BTCUSDT", tick.Symbol)
	}
	if tick.Price != 50000.5 || tick.Open != 49000 || tick.High != 51000 || tick.Low != 48500 {
		t.Errorf("Prices not carried over: %+v", tick)
	}
	if tick.Volume != 123456789 {
		t.Errorf("Volume = %v, want 123456789", tick.Volume)
	}
	if tick.TimestampMs != 1700000000000 {
		t.Errorf("TimestampMs = %d, want event time", tick.TimestampMs)
	}
}

func TestNormalizeRejections(t *testing.T) {
	n := New("USDT")
	now := time.UnixMilli(1700000001234)

	tests := []struct {
		name   string
		mutate func(*RawTicker)
	}{
		{"wrong event type", func(r *RawTicker) { r.EventType = "24hrTicker" }},
		{"wrong quote asset", func(r *RawTicker) { r.Symbol = "BTCEUR" }},
		{"empty symbol", func(r *RawTicker) { r.Symbol = "" }},
		{"non-numeric price", func(r *RawTicker) { r.ClosePrice = "abc" }},
		{"zero price", func(r *RawTicker) { r.ClosePrice = "0" }},
		{"negative price", func(r *RawTicker) { r.ClosePrice = "-1" }},
		{"nan price", func(r *RawTicker) { r.ClosePrice = "NaN" }},
		{"infinite price", func(r *RawTicker) { r.ClosePrice = "+Inf" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw()
			tt.mutate(&raw)
			if _, ok := n.Normalize(raw, now); ok {
				t.Error("Expected raw ticker to be rejected")
			}
		})
	}
}

func TestNormalizeDefaults(t *testing.T) {
	n := New("USDT")
	now := time.UnixMilli(1700000001234)

	raw := validRaw()
	raw.QuoteVolume = "garbage"
	raw.EventTimeMs = 0
	raw.HighPrice = ""
	raw.LowPrice = "-5"

	tick, ok := n.Normalize(raw, now)
	if !ok {
		t.Fatal("Expected ticker with recoverable fields to normalize")
	}
	if tick.Volume != 0 {
		t.Errorf("Volume = %v, want 0 fallback", tick.Volume)
	}
	if tick.TimestampMs != now.UnixMilli() {
		t.Errorf("TimestampMs = %d, want ingestion clock fallback %d", tick.TimestampMs, now.UnixMilli())
	}
	if tick.High != tick.Price || tick.Low != tick.Price {
		t.Errorf("High/Low = %v/%v, want price fallback %v", tick.High, tick.Low, tick.Price)
	}
}

func TestNormalizeLowercaseSymbol(t *testing.T) {
	n := New("usdt")
	raw := validRaw()
	raw.Symbol = "ethusdt"

	tick, ok := n.Normalize(raw, time.Now())
	if !ok {
		t.Fatal("Expected lowercase symbol to normalize")
	}
	if tick.Symbol != "ETHUSDT" {
		t.Errorf("Symbol = %q, want ETHUSDT", tick.Symbol)
	}
}
