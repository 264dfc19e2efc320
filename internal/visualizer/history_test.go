package visualizer

import (
	"math"
	"testing"
	"time"
)

func TestHistoryEvictKeepsWindowInOrder(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	h := NewHistory(30 * time.Second)
	for i := range 10 {
		h.Push(base.Add(time.Duration(i)*5*time.Second), float64(i))
	}

	now := base.Add(50 * time.Second)
	h.Evict(now)

	got := h.Entries()
	// Entries at 20s..45s are inside [now-30s, now].
	if len(got) != 6 {
		t.Fatalf("expected 6 entries, got %d", len(got))
	}
	for i, e := range got {
		want := float64(i + 4)
		if e.Average != want {
			t.Fatalf("entry %d: expected %v, got %v", i, want, e.Average)
		}
		if e.At.Before(now.Add(-30 * time.Second)) {
			t.Fatalf("entry %d at %v is outside the window", i, e.At)
		}
	}
}

func TestHistoryEvictIsIdempotent(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	h := NewHistory(30 * time.Second)
	for i := range 20 {
		h.Push(base.Add(time.Duration(i)*3*time.Second), float64(i%4))
	}

	now := base.Add(70 * time.Second)
	h.Evict(now)
	first := h.Entries()
	h.Evict(now)
	second := h.Entries()

	if len(first) != len(second) {
		t.Fatalf("expected %d entries after second evict, got %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("entry %d changed: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestHistoryKeepsEntryExactlyAtCutoff(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	h := NewHistory(30 * time.Second)
	h.Push(base, 1)
	h.Evict(base.Add(30 * time.Second))
	if h.Len() != 1 {
		t.Fatalf("expected entry at cutoff to be kept, got %d entries", h.Len())
	}
	h.Evict(base.Add(30*time.Second + time.Millisecond))
	if h.Len() != 0 {
		t.Fatalf("expected entry past cutoff to be evicted, got %d entries", h.Len())
	}
}

func TestHistoryNormalizedDegenerateRange(t *testing.T) {
	h := NewHistory(30 * time.Second)
	if got := h.Normalized(); got != 0 {
		t.Fatalf("expected 0 for empty history, got %v", got)
	}

	base := time.Unix(1_700_000_000, 0)
	h.Push(base, 42)
	if got := h.Normalized(); got != 0 {
		t.Fatalf("expected 0 for single entry, got %v", got)
	}

	for i := 1; i < 5; i++ {
		h.Push(base.Add(time.Duration(i)*time.Second), 42)
	}
	for _, now := range []time.Time{base, base.Add(10 * time.Second), base.Add(time.Hour)} {
		h.Evict(now)
		got := h.Normalized()
		if math.IsNaN(got) || got != 0 {
			t.Fatalf("expected 0 for flat history at %v, got %v", now, got)
		}
	}
}

func TestHistoryNormalizedMapsIntoRange(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	h := NewHistory(30 * time.Second)
	h.Push(base, 10)
	h.Push(base.Add(time.Second), 30)
	h.Push(base.Add(2*time.Second), 20)

	if got := h.Normalized(); math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("expected 0.5, got %v", got)
	}
	h.Push(base.Add(3*time.Second), 30)
	if got := h.Normalized(); got != 1 {
		t.Fatalf("expected 1 at max, got %v", got)
	}
}

func TestHistoryObserveUsesMeanOfAllBins(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	h := NewHistory(30 * time.Second)

	quiet := make([]byte, 64)
	loud := make([]byte, 64)
	for i := range loud {
		loud[i] = 200
	}

	if got := h.Observe(base, quiet); got != 0 {
		t.Fatalf("expected 0 for first frame, got %v", got)
	}
	if got := h.Observe(base.Add(time.Second), loud); got != 1 {
		t.Fatalf("expected 1 for loudest frame, got %v", got)
	}
	// The quiet frame ages out, leaving a flat window.
	if got := h.Observe(base.Add(31*time.Second+time.Millisecond), loud); got != 0 {
		t.Fatalf("expected 0 once range collapses, got %v", got)
	}
	if got := MeanEnergy([]byte{0, 10, 20}); got != 10 {
		t.Fatalf("expected mean 10, got %v", got)
	}
}
