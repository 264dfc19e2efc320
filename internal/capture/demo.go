package capture

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

type oscillator struct {
	freq     float64
	amp      float64
	ampMod   float64
	ampModF  float64
	freqMod  float64
	freqModF float64
}

// Demo is a synthetic source: a bank of slowly modulated sines with a
// little noise, paced in real time. Output depends only on the seed.
type Demo struct {
	sampleRate float64
	frames     int
	oscs       []oscillator
	rng        *rand.Rand
	t          float64

	mu   sync.Mutex
	done chan struct{}
	wg   sync.WaitGroup
}

// NewDemo returns a demo source at sampleRate.
func NewDemo(sampleRate int, seed uint64) *Demo {
	return &Demo{
		sampleRate: float64(sampleRate),
		frames:     defaultFramesPerBuffer,
		rng:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		oscs: []oscillator{
			{freq: 55, amp: 0.8, ampMod: 0.9, ampModF: 2.1, freqMod: 10, freqModF: 2.1},
			{freq: 80, amp: 0.6, ampMod: 0.8, ampModF: 1.05},
			{freq: 150, amp: 0.4, ampMod: 0.7, ampModF: 3.3},
			{freq: 220, amp: 0.35, ampMod: 0.6, ampModF: 1.7},
			{freq: 330, amp: 0.3, ampMod: 0.8, ampModF: 0.45},
			{freq: 440, amp: 0.3, ampMod: 0.8, ampModF: 0.8},
			{freq: 660, amp: 0.25, ampMod: 0.75, ampModF: 0.6},
			{freq: 880, amp: 0.2, ampMod: 0.6, ampModF: 1.5},
			{freq: 1200, amp: 0.15, ampMod: 0.5, ampModF: 2.5},
			{freq: 1800, amp: 0.1, ampMod: 0.6, ampModF: 3.0},
		},
	}
}

// Name implements Source.
func (d *Demo) Name() string { return "demo" }

// Generate returns the next n samples.
func (d *Demo) Generate(n int) []float32 {
	out := make([]float32, n)
	dt := 1 / d.sampleRate
	for i := range out {
		t := d.t + float64(i)*dt
		s := 0.0
		for _, o := range d.oscs {
			amp := o.amp * (1 - o.ampMod + o.ampMod*math.Abs(math.Sin(2*math.Pi*o.ampModF*t)))
			freq := o.freq + o.freqMod*math.Sin(2*math.Pi*o.freqModF*t)
			s += amp * math.Sin(2*math.Pi*freq*t)
		}
		s += (d.rng.Float64()*2 - 1) * 0.01
		out[i] = float32(s * 0.3)
	}
	d.t += float64(n) * dt
	return out
}

// Start pushes one buffer into sink per buffer duration until Close.
func (d *Demo) Start(sink Sink) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.done != nil {
		return nil
	}
	d.done = make(chan struct{})
	interval := time.Duration(float64(d.frames) / d.sampleRate * float64(time.Second))

	d.wg.Add(1)
	go func(done <-chan struct{}) {
		defer d.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				sink.WriteMono(d.Generate(d.frames))
			}
		}
	}(d.done)
	return nil
}

// Close stops the generator.
func (d *Demo) Close() error {
	d.mu.Lock()
	done := d.done
	d.done = nil
	d.mu.Unlock()
	if done != nil {
		close(done)
		d.wg.Wait()
	}
	return nil
}
