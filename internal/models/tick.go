// Package models defines the core domain entities: ticks, breach events, and
// the per-symbol state tracked by the decision engine and activity tracker.
package models

import (
	"errors"
	"math"
	"time"
)

// Tick is one normalized mini-ticker update for one symbol. Open/High/Low carry
// the feed's rolling daily values; the engine seeds its session bounds from them.
// Ticks are transient: consumed by both core components, never persisted.
type Tick struct {
	Symbol      string  `json:"symbol"`
	Price       float64 `json:"price"`
	Open        float64 `json:"open"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Volume      float64 `json:"volume"`
	TimestampMs int64   `json:"timestampMs"`
}

// Validate checks tick field constraints.
func (t *Tick) Validate() error {
	if t.Symbol == "" {
		return errors.New("tick symbol must not be empty")
	}
	if !(t.Price > 0) || math.IsInf(t.Price, 0) {
		return errors.New("tick price must be a finite positive number")
	}
	if t.Volume < 0 || math.IsNaN(t.Volume) || math.IsInf(t.Volume, 0) {
		return errors.New("tick volume must be a finite non-negative number")
	}
	if t.TimestampMs <= 0 {
		return errors.New("tick timestamp must be positive")
	}
	return nil
}

// BreachEvent is a notable price move emitted by the decision engine and
// delivered, batched, to the notification collaborator.
type BreachEvent struct {
	ID            string    `json:"id"`
	Symbol        string    `json:"symbol"`
	CurrentPrice  float64   `json:"currentPrice"`
	PreviousPrice float64   `json:"previousPrice"`
	OpenPrice     float64   `json:"openPrice"`
	Volume        float64   `json:"volume"`
	DetectedAt    time.Time `json:"detectedAt"`
}

// ChangePercent returns the relative change from the previous notified price.
func (e *BreachEvent) ChangePercent() float64 {
	if e.PreviousPrice == 0 {
		return 0
	}
	return (e.CurrentPrice - e.PreviousPrice) / e.PreviousPrice * 100
}

// DailyChangePercent returns the change relative to the daily open, using the
// asymmetric formula the announcer has always displayed for drawdowns.
func (e *BreachEvent) DailyChangePercent() float64 {
	if e.OpenPrice == 0 || e.CurrentPrice == 0 {
		return 0
	}
	if e.CurrentPrice > e.OpenPrice {
		return (e.CurrentPrice - e.OpenPrice) / e.OpenPrice * 100
	}
	return (e.OpenPrice/e.CurrentPrice - 1) * -100
}
