package models

import "errors"

// Timeframe defines one independent aggregation cadence for the activity
// tracker. Immutable after construction.
type Timeframe struct {
	Key              string `json:"key"`
	SampleIntervalMs int64  `json:"sampleIntervalMs"`
	WindowMs         int64  `json:"windowMs"`
	MaxSamples       int    `json:"maxSamples"`
}

// NewTimeframe builds a timeframe whose retention window spans maxSamples
// buckets, matching the announcer's historical layout.
func NewTimeframe(key string, sampleIntervalMs int64, maxSamples int) Timeframe {
	return Timeframe{
		Key:              key,
		SampleIntervalMs: sampleIntervalMs,
		WindowMs:         sampleIntervalMs * int64(maxSamples),
		MaxSamples:       maxSamples,
	}
}

// DefaultTimeframes returns the cadences tracked out of the box.
func DefaultTimeframes() []Timeframe {
	return []Timeframe{
		NewTimeframe("1s", 1000, 60),
		NewTimeframe("1m", 60*1000, 60),
		NewTimeframe("5m", 5*60*1000, 60),
		NewTimeframe("15m", 15*60*1000, 60),
	}
}

// Validate checks timeframe invariants. These are construction-time programmer
// errors, not runtime conditions.
func (tf *Timeframe) Validate() error {
	if tf.Key == "" {
		return errors.New("timeframe key must not be empty")
	}
	if tf.SampleIntervalMs <= 0 {
		return errors.New("timeframe sample interval must be positive")
	}
	if tf.WindowMs <= 0 {
		return errors.New("timeframe window must be positive")
	}
	if tf.MaxSamples <= 0 {
		return errors.New("timeframe max samples must be positive")
	}
	return nil
}

// Sample is one bucket-closing snapshot in a (symbol, timeframe) series.
// Series are ordered by timestamp ascending, appended at the tail and trimmed
// from the head.
type Sample struct {
	Price       float64 `json:"price"`
	TimestampMs int64   `json:"timestamp"`
}

// SymbolMeta is the latest-observed snapshot per symbol, independent of any
// timeframe, used to gate rankings by a volume floor.
type SymbolMeta struct {
	Volume      float64 `json:"volume"`
	LastPrice   float64 `json:"lastPrice"`
	UpdatedAtMs int64   `json:"updatedAt"`
}

// MetricRow is one ranked entry returned by the activity tracker.
type MetricRow struct {
	Symbol      string  `json:"symbol"`
	Score       float64 `json:"score"`
	LastPrice   float64 `json:"lastPrice"`
	Volume      float64 `json:"volume"`
	Samples     int     `json:"samples"`
	UpdatedAtMs int64   `json:"updatedAt"`
}

// TimeframeSnapshot carries one timeframe's ranking plus its metadata.
// SampleCount is taken from an arbitrary tracked series and is representative,
// not exact.
type TimeframeSnapshot struct {
	Metrics          []MetricRow `json:"metrics"`
	SampleCount      int         `json:"sampleCount"`
	TotalSymbols     int         `json:"totalSymbols"`
	WindowMs         int64       `json:"windowMs"`
	SampleIntervalMs int64       `json:"sampleIntervalMs"`
}

// Snapshot is the full pull-model view served to the query collaborator.
type Snapshot struct {
	GeneratedAtMs int64                        `json:"generatedAt"`
	Intervals     map[string]TimeframeSnapshot `json:"intervals"`
}
