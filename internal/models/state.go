package models

import (
	"errors"
	"math"
)

// SymbolState is the decision engine's per-symbol record. The triple
// PreviousPrice/SessionHigh/SessionLow always refers to the last *notified*
// tick (or the first one seen), not the last observed one: the baseline only
// advances when a notification fires.
type SymbolState struct {
	PreviousPrice  float64 `json:"previousPrice"`
	SessionHigh    float64 `json:"sessionHigh"`
	SessionLow     float64 `json:"sessionLow"`
	LastNotifiedAt int64   `json:"lastNotifiedAt"`
}

// Thresholds are the runtime-tunable parameters of the decision engine.
// Timeouts are in milliseconds since the stream timestamps are.
type Thresholds struct {
	MinNotificationTimeoutMs    int64   `json:"minNotificationTimeoutMs"`
	MinPriceNotificationPercent float64 `json:"minPriceNotificationPercent"`
	MinPriceBreachTimeoutMs     int64   `json:"minPriceBreachTimeoutMs"`
	MinPriceBreachPercent       float64 `json:"minPriceBreachPercent"`
	MinVolumeLimit              float64 `json:"minVolumeLimit"`
}

// DefaultThresholds mirrors the long-standing announcer defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinNotificationTimeoutMs:    3000,
		MinPriceNotificationPercent: 3,
		MinPriceBreachTimeoutMs:     1,
		MinPriceBreachPercent:       0.5,
		MinVolumeLimit:              500000,
	}
}

// Validate checks threshold invariants. Invalid values must be rejected at the
// tunable-parameter boundary so the prior values stay in effect.
func (th *Thresholds) Validate() error {
	if th.MinNotificationTimeoutMs <= 0 {
		return errors.New("min notification timeout must be positive")
	}
	if th.MinPriceBreachTimeoutMs <= 0 {
		return errors.New("min price breach timeout must be positive")
	}
	if !(th.MinPriceNotificationPercent > 0) || math.IsInf(th.MinPriceNotificationPercent, 0) {
		return errors.New("min price notification percent must be a finite positive number")
	}
	if !(th.MinPriceBreachPercent > 0) || math.IsInf(th.MinPriceBreachPercent, 0) {
		return errors.New("min price breach percent must be a finite positive number")
	}
	if th.MinVolumeLimit < 0 || math.IsNaN(th.MinVolumeLimit) {
		return errors.New("min volume limit must not be negative")
	}
	return nil
}
