// Package activity implements the sliding-window activity tracker: bounded
// per-symbol, per-timeframe price series used to rank symbols by recent
// realized volatility.
package activity

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"tickersentry/internal/models"
)

// Options configures a Tracker.
type Options struct {
	Timeframes            []models.Timeframe
	DefaultVolumeFloor    float64
	MaxSymbolsPerInterval int
}

// QueryOptions narrows ranking and snapshot reads. A zero value means "use the
// default": all timeframes, no limit, the configured volume floor.
type QueryOptions struct {
	Timeframe   string
	Limit       int
	VolumeFloor float64
}

// Tracker owns every (timeframe, symbol) series plus the per-symbol meta used
// to gate rankings. A single RWMutex guards the whole store: ingestion is a
// short in-memory write, reads may run concurrently with each other.
type Tracker struct {
	mu         sync.RWMutex
	timeframes []models.Timeframe
	series     map[string]map[string][]models.Sample
	meta       map[string]models.SymbolMeta

	volumeFloor float64
	maxSymbols  int
}

// New constructs a tracker. Timeframe invariant violations are programmer
// errors and fail construction.
func New(opts Options) (*Tracker, error) {
	timeframes := opts.Timeframes
	if len(timeframes) == 0 {
		timeframes = models.DefaultTimeframes()
	}
	seen := make(map[string]bool, len(timeframes))
	for i := range timeframes {
		if err := timeframes[i].Validate(); err != nil {
			return nil, fmt.Errorf("invalid timeframe %q: %w", timeframes[i].Key, err)
		}
		if seen[timeframes[i].Key] {
			return nil, fmt.Errorf("duplicate timeframe key %q", timeframes[i].Key)
		}
		seen[timeframes[i].Key] = true
	}

	t := &Tracker{
		timeframes:  timeframes,
		series:      make(map[string]map[string][]models.Sample, len(timeframes)),
		meta:        make(map[string]models.SymbolMeta),
		volumeFloor: opts.DefaultVolumeFloor,
		maxSymbols:  opts.MaxSymbolsPerInterval,
	}
	if t.volumeFloor <= 0 {
		t.volumeFloor = 10000000
	}
	if t.maxSymbols <= 0 {
		t.maxSymbols = 1000
	}
	for _, tf := range timeframes {
		t.series[tf.Key] = make(map[string][]models.Sample)
	}
	return t, nil
}

// Timeframes returns the configured cadences.
func (t *Tracker) Timeframes() []models.Timeframe {
	out := make([]models.Timeframe, len(t.timeframes))
	copy(out, t.timeframes)
	return out
}

// Ingest records one tick into every timeframe. When the open bucket for a
// series is younger than the sampling cadence only its price is overwritten;
// the bucket keeps its original timestamp so the next sample lands a full
// cadence later. After insertion the head is trimmed by the retention window
// and then by the sample cap, so both bounds hold even across time gaps or
// cadence reconfiguration.
func (t *Tracker) Ingest(tick models.Tick) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.meta[tick.Symbol] = models.SymbolMeta{
		Volume:      tick.Volume,
		LastPrice:   tick.Price,
		UpdatedAtMs: tick.TimestampMs,
	}

	for _, tf := range t.timeframes {
		store := t.series[tf.Key]
		series, tracked := store[tick.Symbol]

		if !tracked && len(store) >= t.maxSymbols {
			t.evictOne(store, tick.Symbol)
		}

		if n := len(series); n == 0 || tick.TimestampMs-series[n-1].TimestampMs >= tf.SampleIntervalMs {
			series = append(series, models.Sample{Price: tick.Price, TimestampMs: tick.TimestampMs})
		} else {
			series[n-1].Price = tick.Price
		}

		cutoff := tick.TimestampMs - tf.WindowMs
		head := 0
		for head < len(series) && series[head].TimestampMs < cutoff {
			head++
		}
		if over := len(series) - head - tf.MaxSamples; over > 0 {
			head += over
		}
		if head > 0 {
			series = append([]models.Sample(nil), series[head:]...)
		}
		store[tick.Symbol] = series
	}
}

// evictOne removes an arbitrary symbol's series so the store stays within the
// cardinality bound. The victim is whatever map iteration yields first; only
// the bound is a correctness requirement.
func (t *Tracker) evictOne(store map[string][]models.Sample, incoming string) {
	for victim := range store {
		if victim != incoming {
			delete(store, victim)
			return
		}
	}
}

// Score sums the absolute relative change over consecutive positive-price
// samples, as a percentage rounded to 3 decimals. Non-positive or non-finite
// prices are skipped without breaking the chain. This approximates cumulative
// realized volatility over the window at the series' cadence, not variance.
func Score(series []models.Sample) float64 {
	if len(series) < 2 {
		return 0
	}
	var total, prev float64
	for _, sample := range series {
		price := sample.Price
		if !(price > 0) || math.IsInf(price, 0) {
			continue
		}
		if prev > 0 {
			total += math.Abs(price/prev - 1)
		}
		prev = price
	}
	return math.Round(total*100*1000) / 1000
}

// Ranking returns the symbols tracked for one timeframe ordered by descending
// score, ties broken by ascending symbol. Symbols whose latest volume is below
// the floor are excluded regardless of score. A positive limit truncates.
func (t *Tracker) Ranking(timeframeKey string, opts QueryOptions) []models.MetricRow {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rankingLocked(timeframeKey, opts)
}

func (t *Tracker) rankingLocked(timeframeKey string, opts QueryOptions) []models.MetricRow {
	store, ok := t.series[timeframeKey]
	if !ok {
		return nil
	}
	floor := opts.VolumeFloor
	if floor <= 0 {
		floor = t.volumeFloor
	}

	rows := make([]models.MetricRow, 0, len(store))
	for symbol, series := range store {
		meta, ok := t.meta[symbol]
		if !ok || meta.Volume < floor {
			continue
		}
		rows = append(rows, models.MetricRow{
			Symbol:      symbol,
			Score:       Score(series),
			LastPrice:   meta.LastPrice,
			Volume:      meta.Volume,
			Samples:     len(series),
			UpdatedAtMs: meta.UpdatedAtMs,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		return rows[i].Symbol < rows[j].Symbol
	})

	if opts.Limit > 0 && len(rows) > opts.Limit {
		rows = rows[:opts.Limit]
	}
	return rows
}

// Metric returns the ranked row for one (timeframe, symbol) pair. The volume
// floor does not apply to a direct lookup.
func (t *Tracker) Metric(timeframeKey, symbol string) (models.MetricRow, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	store, ok := t.series[timeframeKey]
	if !ok {
		return models.MetricRow{}, false
	}
	series, ok := store[symbol]
	if !ok {
		return models.MetricRow{}, false
	}
	meta := t.meta[symbol]
	return models.MetricRow{
		Symbol:      symbol,
		Score:       Score(series),
		LastPrice:   meta.LastPrice,
		Volume:      meta.Volume,
		Samples:     len(series),
		UpdatedAtMs: meta.UpdatedAtMs,
	}, true
}

// Snapshot returns the ranking plus metadata for one timeframe, or all of them
// when opts.Timeframe is empty. SampleCount is taken from an arbitrary tracked
// series as a representative value.
func (t *Tracker) Snapshot(opts QueryOptions) models.Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snap := models.Snapshot{
		GeneratedAtMs: time.Now().UnixMilli(),
		Intervals:     make(map[string]models.TimeframeSnapshot),
	}
	for _, tf := range t.timeframes {
		if opts.Timeframe != "" && opts.Timeframe != tf.Key {
			continue
		}
		store := t.series[tf.Key]
		sampleCount := 0
		for _, series := range store {
			sampleCount = len(series)
			break
		}
		snap.Intervals[tf.Key] = models.TimeframeSnapshot{
			Metrics:          t.rankingLocked(tf.Key, opts),
			SampleCount:      sampleCount,
			TotalSymbols:     len(store),
			WindowMs:         tf.WindowMs,
			SampleIntervalMs: tf.SampleIntervalMs,
		}
	}
	return snap
}

// Search returns meta rows for every tracked symbol containing the fragment,
// scored on the primary timeframe, ordered by symbol.
func (t *Tracker) Search(fragment string) []models.MetricRow {
	t.mu.RLock()
	defer t.mu.RUnlock()

	primary := t.series[t.timeframes[0].Key]
	var rows []models.MetricRow
	for symbol, meta := range t.meta {
		if fragment != "" && !strings.Contains(symbol, fragment) {
			continue
		}
		rows = append(rows, models.MetricRow{
			Symbol:      symbol,
			Score:       Score(primary[symbol]),
			LastPrice:   meta.LastPrice,
			Volume:      meta.Volume,
			Samples:     len(primary[symbol]),
			UpdatedAtMs: meta.UpdatedAtMs,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Symbol < rows[j].Symbol })
	return rows
}
