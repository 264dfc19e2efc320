package capture

import (
	"math"
	"sync"
	"testing"
	"time"
)

func TestDemoIsDeterministicPerSeed(t *testing.T) {
	a := NewDemo(48000, 7).Generate(512)
	b := NewDemo(48000, 7).Generate(512)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestDemoStaysInRangeAndIsNotSilent(t *testing.T) {
	d := NewDemo(48000, 1)
	peak := 0.0
	for range 20 {
		for _, s := range d.Generate(1024) {
			if s < -1 || s > 1 {
				t.Fatalf("sample out of range: %v", s)
			}
			peak = math.Max(peak, math.Abs(float64(s)))
		}
	}
	if peak < 0.05 {
		t.Fatalf("expected audible output, peak %v", peak)
	}
}

func TestDemoContinuesAcrossBuffers(t *testing.T) {
	d := NewDemo(48000, 3)
	first := d.Generate(100)
	second := d.Generate(100)
	if first[99] == second[0] && first[0] == second[0] {
		t.Fatal("expected generator time to advance between buffers")
	}
}

type countingSink struct {
	mu      sync.Mutex
	samples int
}

func (s *countingSink) WriteMono(samples []float32) {
	s.mu.Lock()
	s.samples += len(samples)
	s.mu.Unlock()
}

func (s *countingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.samples
}

func TestDemoStartFeedsSinkUntilClose(t *testing.T) {
	d := NewDemo(48000, 1)
	sink := &countingSink{}
	if err := d.Start(sink); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for sink.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	got := sink.count()
	if got == 0 {
		t.Fatal("expected samples before close")
	}

	time.Sleep(50 * time.Millisecond)
	if sink.count() != got {
		t.Fatal("expected no samples after close")
	}
}
