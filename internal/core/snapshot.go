package core

import (
	"encoding/json"
	"fmt"
	"time"

	"tickersentry/internal/activity"
	"tickersentry/internal/models"
)

// snapshotVersion guards the blob layout. Bumping it invalidates old blobs,
// which import treats the same as corruption: start fresh.
const snapshotVersion = 1

// persistedState is the serializable form of everything mutable: the engine's
// per-symbol states, the tracker's series and meta, and the active tunables.
// JSON float64 encoding in Go round-trips exactly, so restored snapshots
// reproduce scores and breach decisions bit for bit.
type persistedState struct {
	Version    int                           `json:"version"`
	SavedAtMs  int64                         `json:"savedAt"`
	Thresholds models.Thresholds             `json:"thresholds"`
	Symbols    map[string]models.SymbolState `json:"symbols"`
	Activity   activity.State                `json:"activity"`
}

// ExportState serializes the full core state into an opaque blob for the
// persistence collaborator.
func (c *Core) ExportState() ([]byte, error) {
	state := persistedState{
		Version:    snapshotVersion,
		SavedAtMs:  time.Now().UnixMilli(),
		Thresholds: c.engine.Thresholds(),
		Symbols:    c.engine.ExportStates(),
		Activity:   c.tracker.ExportState(),
	}
	blob, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return blob, nil
}

// ImportState restores core state from a previously exported blob. A missing,
// corrupt, or incompatible blob leaves the core in a fresh empty state and
// reports why; it must never prevent startup.
func (c *Core) ImportState(blob []byte) error {
	if len(blob) == 0 {
		c.reset()
		return nil
	}

	var state persistedState
	if err := json.Unmarshal(blob, &state); err != nil {
		c.reset()
		return fmt.Errorf("failed to decode state blob: %w", err)
	}
	if state.Version != snapshotVersion {
		c.reset()
		return fmt.Errorf("unsupported state blob version %d", state.Version)
	}
	if err := state.Thresholds.Validate(); err != nil {
		c.reset()
		return fmt.Errorf("state blob carries invalid thresholds: %w", err)
	}

	c.engine.RestoreStates(state.Symbols)
	if err := c.engine.SetThresholds(state.Thresholds); err != nil {
		return err
	}
	c.tracker.RestoreState(state.Activity)

	c.mu.Lock()
	c.pending = nil
	c.mu.Unlock()
	return nil
}

func (c *Core) reset() {
	c.engine.Reset()
	c.tracker.Reset()
	c.mu.Lock()
	c.pending = nil
	c.mu.Unlock()
}
