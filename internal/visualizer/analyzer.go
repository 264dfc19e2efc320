package visualizer

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

const (
	DefaultTransformSize = 8192
	defaultSmoothing     = 0.8
	defaultMinDecibels   = -100.0
	defaultMaxDecibels   = -30.0
)

// Analyzer turns the most recent block of PCM into byte magnitudes, one per
// frequency bin. Scaling matches a Web Audio AnalyserNode: Blackman window,
// |X|/N magnitudes smoothed over time, decibels mapped linearly from
// [minDecibels, maxDecibels] onto [0, 255].
type Analyzer struct {
	size      int
	smoothing float64
	minDB     float64
	maxDB     float64

	fft    *fourier.FFT
	window []float64
	seq    []float64
	coeffs []complex128
	prev   []float64
}

// NewAnalyzer creates an analyzer for the given transform size, which must be
// a power of two no smaller than 32.
func NewAnalyzer(size int) (*Analyzer, error) {
	if size < 32 || size&(size-1) != 0 {
		return nil, fmt.Errorf("transform size %d: must be a power of two >= 32", size)
	}

	coeffs := make([]float64, size)
	for i := range coeffs {
		coeffs[i] = 1
	}

	return &Analyzer{
		size:      size,
		smoothing: defaultSmoothing,
		minDB:     defaultMinDecibels,
		maxDB:     defaultMaxDecibels,
		fft:       fourier.NewFFT(size),
		window:    window.Blackman(coeffs),
		seq:       make([]float64, size),
		coeffs:    make([]complex128, size/2+1),
		prev:      make([]float64, size/2),
	}, nil
}

// Size returns the transform size.
func (a *Analyzer) Size() int { return a.size }

// BinCount returns the number of frequency bins, half the transform size.
func (a *Analyzer) BinCount() int { return a.size / 2 }

// Analyze fills dst with byte magnitudes computed from the trailing transform
// window of interleaved stereo samples. Missing leading samples count as
// silence. dst must hold at least BinCount bytes.
func (a *Analyzer) Analyze(samples []int16, dst []byte) {
	frames := len(samples) / 2
	pad := a.size - frames
	skip := 0
	if pad < 0 {
		skip = -pad
		pad = 0
	}

	for i := range a.size {
		if i < pad {
			a.seq[i] = 0
			continue
		}
		idx := (skip + i - pad) * 2
		mono := (float64(samples[idx]) + float64(samples[idx+1])) / 65536.0
		a.seq[i] = mono * a.window[i]
	}

	a.coeffs = a.fft.Coefficients(a.coeffs, a.seq)

	span := a.maxDB - a.minDB
	n := float64(a.size)
	for k := range a.prev {
		mag := cmplx.Abs(a.coeffs[k]) / n
		a.prev[k] = a.smoothing*a.prev[k] + (1-a.smoothing)*mag
		dst[k] = a.toByte(a.prev[k], span)
	}
}

func (a *Analyzer) toByte(v, span float64) byte {
	if v <= 0 {
		return 0
	}
	db := 20 * math.Log10(v)
	scaled := 255 * (db - a.minDB) / span
	switch {
	case scaled <= 0 || math.IsNaN(scaled):
		return 0
	case scaled >= 255:
		return 255
	}
	return byte(scaled)
}

// Reset forgets the smoothing state.
func (a *Analyzer) Reset() {
	clear(a.prev)
}
