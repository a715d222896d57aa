// Package engine implements the breach decision engine: a per-symbol state
// machine that decides when a price move is notable enough to notify about.
package engine

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"tickersentry/internal/models"
)

// Engine owns the per-symbol breach state and the tunable thresholds. All
// mutations go through the engine's lock, so ticks for the same symbol are
// serialized while reads of the tunables stay cheap.
type Engine struct {
	mu         sync.Mutex
	states     map[string]*models.SymbolState
	thresholds models.Thresholds
}

// New constructs an engine with the given thresholds. Invalid thresholds are a
// configuration error and fail construction.
func New(th models.Thresholds) (*Engine, error) {
	if err := th.Validate(); err != nil {
		return nil, fmt.Errorf("invalid thresholds: %w", err)
	}
	return &Engine{
		states:     make(map[string]*models.SymbolState),
		thresholds: th,
	}, nil
}

// Thresholds returns the currently active thresholds.
func (e *Engine) Thresholds() models.Thresholds {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.thresholds
}

// SetThresholds replaces the tunables. Invalid values are rejected and the
// prior values stay in effect.
func (e *Engine) SetThresholds(th models.Thresholds) error {
	if err := th.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.thresholds = th
	return nil
}

// Observe feeds one tick through the state machine and returns a breach event
// when the move is notable, nil otherwise. The first tick for a symbol only
// initializes its state and never emits; the initial cooldown is backdated so
// the symbol is immediately eligible.
//
// On every non-firing tick the state is left untouched: the percent-change
// baseline only advances on an actual notification.
func (e *Engine) Observe(tick models.Tick, now time.Time) *models.BreachEvent {
	nowMs := now.UnixMilli()

	e.mu.Lock()
	defer e.mu.Unlock()

	st, tracked := e.states[tick.Symbol]
	if !tracked {
		e.states[tick.Symbol] = &models.SymbolState{
			PreviousPrice:  tick.Price,
			SessionHigh:    tick.High,
			SessionLow:     tick.Low,
			LastNotifiedAt: nowMs - e.thresholds.MinNotificationTimeoutMs,
		}
		return nil
	}

	changePct := (tick.Price - st.PreviousPrice) / st.PreviousPrice * 100
	sinceNotified := nowMs - st.LastNotifiedAt

	drift := sinceNotified > e.thresholds.MinNotificationTimeoutMs &&
		math.Abs(changePct) > e.thresholds.MinPriceNotificationPercent

	breach := false
	if tick.Price > st.SessionHigh || tick.Price < st.SessionLow {
		var breachPct float64
		if tick.Price > st.SessionHigh {
			breachPct = math.Abs((tick.Price - st.SessionHigh) / st.SessionHigh * 100)
		} else {
			breachPct = math.Abs((tick.Price - st.SessionLow) / st.SessionLow * 100)
		}
		breach = breachPct > e.thresholds.MinPriceBreachPercent &&
			sinceNotified > e.thresholds.MinPriceBreachTimeoutMs
	}

	if !(drift || breach) || tick.Volume <= e.thresholds.MinVolumeLimit {
		return nil
	}

	event := &models.BreachEvent{
		ID:            uuid.New().String(),
		Symbol:        tick.Symbol,
		CurrentPrice:  tick.Price,
		PreviousPrice: st.PreviousPrice,
		OpenPrice:     tick.Open,
		Volume:        tick.Volume,
		DetectedAt:    now,
	}

	st.PreviousPrice = tick.Price
	st.SessionHigh = tick.High
	st.SessionLow = tick.Low
	st.LastNotifiedAt = nowMs

	return event
}

// State returns a copy of one symbol's state. The second return value is false
// for untracked symbols.
func (e *Engine) State(symbol string) (models.SymbolState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.states[symbol]
	if !ok {
		return models.SymbolState{}, false
	}
	return *st, true
}

// ExportStates returns a deep copy of all per-symbol states for the snapshot
// codec.
func (e *Engine) ExportStates() map[string]models.SymbolState {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]models.SymbolState, len(e.states))
	for symbol, st := range e.states {
		out[symbol] = *st
	}
	return out
}

// RestoreStates replaces all per-symbol states from a decoded snapshot.
func (e *Engine) RestoreStates(states map[string]models.SymbolState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.states = make(map[string]*models.SymbolState, len(states))
	for symbol, st := range states {
		cp := st
		e.states[symbol] = &cp
	}
}

// Reset drops all tracked symbols, returning the engine to its initial state.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.states = make(map[string]*models.SymbolState)
}
