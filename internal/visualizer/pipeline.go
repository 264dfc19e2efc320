package visualizer

import (
	"time"
)

// PipelineConfig sizes every stage of a Pipeline.
type PipelineConfig struct {
	SampleRate    int
	TransformSize int
	Slices        int
	MaxFrequency  float64
	MaxJumpHeight float64
	RotationStep  float64
	HistoryWindow time.Duration
}

// DefaultPipelineConfig matches the reference plot at sampleRate.
func DefaultPipelineConfig(sampleRate int) PipelineConfig {
	return PipelineConfig{
		SampleRate:    sampleRate,
		TransformSize: DefaultTransformSize,
		Slices:        DefaultSlices,
		MaxFrequency:  DefaultMaxFrequency,
		MaxJumpHeight: DefaultMaxJumpHeight,
		RotationStep:  DefaultRotationStep,
		HistoryWindow: DefaultHistoryWindow,
	}
}

// Pipeline runs one frame of ring buffer -> analyzer -> bucketizer ->
// renderer. In pulse mode it also advances the rotor and feeds the energy
// history. It is owned by the render loop and not safe for concurrent use.
type Pipeline struct {
	ring       *RingBuffer
	analyzer   *Analyzer
	bucketizer *Bucketizer
	history    *History
	rotor      Rotor
	renderer   *Renderer
	freq       []byte
}

// NewPipeline builds the stages for cfg reading from ring.
func NewPipeline(ring *RingBuffer, cfg PipelineConfig) (*Pipeline, error) {
	analyzer, err := NewAnalyzer(cfg.TransformSize)
	if err != nil {
		return nil, err
	}
	binWidth := float64(cfg.SampleRate) / float64(cfg.TransformSize)
	layout, err := NewLayout(analyzer.BinCount(), binWidth, cfg.MaxFrequency, cfg.Slices)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		ring:       ring,
		analyzer:   analyzer,
		bucketizer: NewBucketizer(layout, cfg.MaxJumpHeight),
		history:    NewHistory(cfg.HistoryWindow),
		rotor:      NewRotor(cfg.RotationStep),
		renderer:   NewRenderer(),
		freq:       make([]byte, analyzer.BinCount()),
	}, nil
}

// Frame analyzes the latest audio and returns the frame's draw list.
func (p *Pipeline) Frame(now time.Time, pulse bool) DrawList {
	p.analyzer.Analyze(p.ring.Samples(p.analyzer.Size()), p.freq)

	scene := Scene{Pulse: pulse}
	rotation := 0.0
	if pulse {
		rotation = p.rotor.Advance()
		scene.Energy = p.history.Observe(now, p.freq)
	}
	scene.Slices = p.bucketizer.Bucketize(p.freq, rotation)
	return p.renderer.Render(scene)
}

// Blank is the draw list of a frame with nothing to plot.
func (p *Pipeline) Blank() DrawList {
	return p.renderer.Render(Scene{})
}

// FrequencyData returns the byte magnitudes of the last frame.
func (p *Pipeline) FrequencyData() []byte { return p.freq }

// History exposes the pulse energy history.
func (p *Pipeline) History() *History { return p.history }
