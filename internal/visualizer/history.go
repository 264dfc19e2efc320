package visualizer

import "time"

// DefaultHistoryWindow is how far back the pulse disk looks for its range.
const DefaultHistoryWindow = 30 * time.Second

// EnergyEntry is one frame's mean energy.
type EnergyEntry struct {
	At      time.Time
	Average float64
}

// History tracks mean frame energy over a trailing time window and maps the
// latest value into [0, 1] relative to the window's min and max.
//
// Entries are appended in time order, so eviction only ever trims a prefix.
type History struct {
	window  time.Duration
	entries []EnergyEntry
}

// NewHistory creates a history with the given retention window.
func NewHistory(window time.Duration) *History {
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	return &History{window: window}
}

// Window returns the retention window.
func (h *History) Window() time.Duration { return h.window }

// Len returns the number of retained entries.
func (h *History) Len() int { return len(h.entries) }

// Entries returns a copy of the retained entries, oldest first.
func (h *History) Entries() []EnergyEntry {
	out := make([]EnergyEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Evict drops every entry older than now minus the window.
func (h *History) Evict(now time.Time) {
	cutoff := now.Add(-h.window)
	i := 0
	for i < len(h.entries) && h.entries[i].At.Before(cutoff) {
		i++
	}
	if i > 0 {
		h.entries = h.entries[i:]
	}
}

// Push appends a measurement. Callers supply non-decreasing timestamps.
func (h *History) Push(at time.Time, average float64) {
	h.entries = append(h.entries, EnergyEntry{At: at, Average: average})
}

// Range returns the min and max over the retained entries. ok is false when
// the history is empty.
func (h *History) Range() (lo, hi float64, ok bool) {
	if len(h.entries) == 0 {
		return 0, 0, false
	}
	lo, hi = h.entries[0].Average, h.entries[0].Average
	for _, e := range h.entries[1:] {
		if e.Average < lo {
			lo = e.Average
		}
		if e.Average > hi {
			hi = e.Average
		}
	}
	return lo, hi, true
}

// Normalized maps the latest entry into [0, 1]. An empty history or a window
// with no spread yields 0.
func (h *History) Normalized() float64 {
	lo, hi, ok := h.Range()
	if !ok || hi <= lo {
		return 0
	}
	latest := h.entries[len(h.entries)-1].Average
	return clamp01((latest - lo) / (hi - lo))
}

// Observe runs one frame: evict, record the sample's mean energy, normalize.
func (h *History) Observe(now time.Time, sample []byte) float64 {
	h.Evict(now)
	h.Push(now, MeanEnergy(sample))
	return h.Normalized()
}

// MeanEnergy is the arithmetic mean over all bins of a frequency sample.
func MeanEnergy(sample []byte) float64 {
	if len(sample) == 0 {
		return 0
	}
	total := 0
	for _, v := range sample {
		total += int(v)
	}
	return float64(total) / float64(len(sample))
}
