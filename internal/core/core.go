// Package core wires the breach decision engine and the activity tracker
// behind the single surface the collaborators consume: one ingest entry point,
// a drainable batch of breach events, pull-model queries, and the snapshot
// codec for persistence.
package core

import (
	"sync"
	"time"

	"tickersentry/internal/activity"
	"tickersentry/internal/engine"
	"tickersentry/internal/models"
)

// Core fans every tick out to both components. The engine and tracker each
// own their state exclusively; Core only adds the pending-batch buffer that
// backs the batched delivery contract.
type Core struct {
	engine  *engine.Engine
	tracker *activity.Tracker

	mu      sync.Mutex
	pending []models.BreachEvent
}

// New assembles a core from its two components.
func New(eng *engine.Engine, tracker *activity.Tracker) *Core {
	return &Core{engine: eng, tracker: tracker}
}

// IngestTick feeds one normalized tick to the engine and the tracker. A fired
// breach event is buffered until the next drain; ingestion itself never fails.
func (c *Core) IngestTick(tick models.Tick, now time.Time) {
	c.tracker.Ingest(tick)
	if event := c.engine.Observe(tick, now); event != nil {
		c.mu.Lock()
		c.pending = append(c.pending, *event)
		c.mu.Unlock()
	}
}

// DrainBreachEvents returns all events fired since the previous drain and
// clears the buffer. The feed loop drains once per ingestion batch so
// multiple symbols firing together go out as one delivery.
func (c *Core) DrainBreachEvents() []models.BreachEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	events := c.pending
	c.pending = nil
	return events
}

// Snapshot returns the activity view for one or all timeframes.
func (c *Core) Snapshot(opts activity.QueryOptions) models.Snapshot {
	return c.tracker.Snapshot(opts)
}

// Ranking returns the volatility ranking for one timeframe.
func (c *Core) Ranking(timeframeKey string, opts activity.QueryOptions) []models.MetricRow {
	return c.tracker.Ranking(timeframeKey, opts)
}

// Metric returns the ranked row for one (timeframe, symbol) pair.
func (c *Core) Metric(timeframeKey, symbol string) (models.MetricRow, bool) {
	return c.tracker.Metric(timeframeKey, symbol)
}

// Search returns meta rows for tracked symbols matching the fragment.
func (c *Core) Search(fragment string) []models.MetricRow {
	return c.tracker.Search(fragment)
}

// Timeframes returns the tracker's configured cadences.
func (c *Core) Timeframes() []models.Timeframe {
	return c.tracker.Timeframes()
}

// Thresholds returns the engine's active tunables.
func (c *Core) Thresholds() models.Thresholds {
	return c.engine.Thresholds()
}

// SetThresholds replaces the engine's tunables; invalid values are rejected
// and the prior ones retained.
func (c *Core) SetThresholds(th models.Thresholds) error {
	return c.engine.SetThresholds(th)
}
