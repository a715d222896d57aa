package activity

import "tickersentry/internal/models"

// State is the tracker's serializable form: every series keyed by timeframe
// then symbol, plus the per-symbol meta.
type State struct {
	Intervals  map[string]map[string][]models.Sample `json:"intervals"`
	SymbolMeta map[string]models.SymbolMeta          `json:"symbolMeta"`
}

// ExportState deep-copies the tracker's state for the snapshot codec, keeping
// sample order intact.
func (t *Tracker) ExportState() State {
	t.mu.RLock()
	defer t.mu.RUnlock()

	st := State{
		Intervals:  make(map[string]map[string][]models.Sample, len(t.series)),
		SymbolMeta: make(map[string]models.SymbolMeta, len(t.meta)),
	}
	for key, store := range t.series {
		out := make(map[string][]models.Sample, len(store))
		for symbol, series := range store {
			out[symbol] = append([]models.Sample(nil), series...)
		}
		st.Intervals[key] = out
	}
	for symbol, meta := range t.meta {
		st.SymbolMeta[symbol] = meta
	}
	return st
}

// RestoreState replaces the tracker's state from a decoded snapshot. Series
// for timeframes that are no longer configured are dropped; configured
// timeframes missing from the snapshot start empty.
func (t *Tracker) RestoreState(st State) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, tf := range t.timeframes {
		store := make(map[string][]models.Sample)
		for symbol, series := range st.Intervals[tf.Key] {
			store[symbol] = append([]models.Sample(nil), series...)
		}
		t.series[tf.Key] = store
	}
	t.meta = make(map[string]models.SymbolMeta, len(st.SymbolMeta))
	for symbol, meta := range st.SymbolMeta {
		t.meta[symbol] = meta
	}
}

// Reset drops all series and meta, returning the tracker to its initial state.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, tf := range t.timeframes {
		t.series[tf.Key] = make(map[string][]models.Sample)
	}
	t.meta = make(map[string]models.SymbolMeta)
}
