// Package normalize shapes raw mini-ticker feed messages into Ticks.
// Anything malformed or outside the configured quote asset is silently
// dropped; nothing past this boundary has to re-validate input.
package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"

	"tickersentry/internal/models"
)

// EventMiniTicker is the feed's event type for rolling 24h mini-ticker updates.
const EventMiniTicker = "24hrMiniTicker"

// RawTicker is one entry of the all-market mini-ticker stream as delivered on
// the wire. Numeric fields arrive as strings.
type RawTicker struct {
	EventType   string `json:"e"`
	EventTimeMs int64  `json:"E"`
	Symbol      string `json:"s"`
	ClosePrice  string `json:"c"`
	OpenPrice   string `json:"o"`
	HighPrice   string `json:"h"`
	LowPrice    string `json:"l"`
	AssetVolume string `json:"v"`
	QuoteVolume string `json:"q"`
}

// Normalizer validates and shapes raw ticker messages for one quote asset.
type Normalizer struct {
	quoteAsset string
}

// New returns a normalizer accepting only symbols quoted in quoteAsset.
func New(quoteAsset string) *Normalizer {
	return &Normalizer{quoteAsset: strings.ToUpper(quoteAsset)}
}

// Normalize converts a raw message into a Tick. The second return value is
// false when the message must be dropped. The only side effect is the clock
// fallback when the feed provides no valid event time.
func (n *Normalizer) Normalize(raw RawTicker, now time.Time) (models.Tick, bool) {
	if raw.EventType != EventMiniTicker {
		return models.Tick{}, false
	}
	symbol := strings.ToUpper(strings.TrimSpace(raw.Symbol))
	if symbol == "" || !strings.HasSuffix(symbol, n.quoteAsset) {
		return models.Tick{}, false
	}

	price, ok := parsePrice(raw.ClosePrice)
	if !ok {
		return models.Tick{}, false
	}

	tick := models.Tick{
		Symbol:      symbol,
		Price:       price,
		Open:        parsePriceOr(raw.OpenPrice, price),
		High:        parsePriceOr(raw.HighPrice, price),
		Low:         parsePriceOr(raw.LowPrice, price),
		Volume:      parseVolume(raw.QuoteVolume),
		TimestampMs: raw.EventTimeMs,
	}
	if tick.TimestampMs <= 0 {
		tick.TimestampMs = now.UnixMilli()
	}
	if err := tick.Validate(); err != nil {
		return models.Tick{}, false
	}
	return tick, true
}

func parsePrice(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	return v, true
}

// parsePriceOr falls back when an auxiliary price field is unusable, so the
// engine's session bounds always start from something finite.
func parsePriceOr(s string, fallback float64) float64 {
	if v, ok := parsePrice(s); ok {
		return v
	}
	return fallback
}

func parseVolume(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
