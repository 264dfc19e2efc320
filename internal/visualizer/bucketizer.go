package visualizer

import (
	"errors"
	"fmt"
	"math"
)

const (
	DefaultSlices        = 250
	DefaultMaxFrequency  = 2000.0
	DefaultMaxJumpHeight = 100.0
)

// ErrTooFewBins is returned when there are fewer bins than slices, so some
// slice could not receive a bin of its own.
var ErrTooFewBins = errors.New("fewer frequency bins than slices")

// Slice is one angular sector of the polar plot.
type Slice struct {
	Index  int
	Angle  float64 // radians
	Energy float64 // radial displacement, >= 0
}

// Group is the half-open bin range [Start, End) aggregated into one slice.
type Group struct {
	Start int
	End   int
}

// Len returns the number of bins in the group.
func (g Group) Len() int { return g.End - g.Start }

// Layout partitions the frequency bins into slices. Boundaries follow
// maxFrequency * (i/numSlices)^2, so bass gets most of the angular room.
type Layout struct {
	groups  []Group
	numBins int
}

// NewLayout computes the slice layout for numBins bins of binWidth Hz each.
// Every group holds at least one bin, groups are contiguous, and the last
// group absorbs whatever is left up to numBins.
func NewLayout(numBins int, binWidth, maxFrequency float64, numSlices int) (*Layout, error) {
	if numSlices <= 0 {
		return nil, fmt.Errorf("slice count %d: must be positive", numSlices)
	}
	if numBins < numSlices {
		return nil, fmt.Errorf("%d bins for %d slices: %w", numBins, numSlices, ErrTooFewBins)
	}
	if binWidth <= 0 {
		return nil, fmt.Errorf("bin width %v: must be positive", binWidth)
	}

	groups := make([]Group, numSlices)
	cur := 0
	for i := range numSlices {
		start := cur
		// Leave one bin for each slice still to come.
		limit := numBins - (numSlices - 1 - i)
		ratio := float64(i) / float64(numSlices)
		target := maxFrequency * ratio * ratio
		for {
			cur++
			if cur >= limit || float64(cur)*binWidth >= target {
				break
			}
		}
		if i == numSlices-1 {
			cur = numBins
		}
		groups[i] = Group{Start: start, End: cur}
	}

	return &Layout{groups: groups, numBins: numBins}, nil
}

// Groups returns a copy of the bin groups in slice order.
func (l *Layout) Groups() []Group {
	out := make([]Group, len(l.groups))
	copy(out, l.groups)
	return out
}

// NumBins returns the number of bins the layout covers.
func (l *Layout) NumBins() int { return l.numBins }

// NumSlices returns the number of slices.
func (l *Layout) NumSlices() int { return len(l.groups) }

// JumpRate returns the per-byte growth factor so that a full-scale byte (255)
// produces a displacement of maxJumpHeight.
func JumpRate(maxJumpHeight float64) float64 {
	return math.Pow(maxJumpHeight, 1.0/255)
}

// Displacement maps a mean byte magnitude to a radial displacement. Quiet
// groups stay near 1 while loud ones grow exponentially.
func Displacement(jumpRate, mean float64) float64 {
	return math.Pow(jumpRate, mean)
}

// Bucketizer reduces a frequency sample to one displacement per slice.
type Bucketizer struct {
	layout   *Layout
	jumpRate float64
	slices   []Slice
}

// NewBucketizer creates a bucketizer over layout.
func NewBucketizer(layout *Layout, maxJumpHeight float64) *Bucketizer {
	return &Bucketizer{
		layout:   layout,
		jumpRate: JumpRate(maxJumpHeight),
		slices:   make([]Slice, layout.NumSlices()),
	}
}

// Layout returns the layout the bucketizer was built with.
func (b *Bucketizer) Layout() *Layout { return b.layout }

// Bucketize computes every slice for one frame, with angles evenly spaced over
// a full turn starting at rotation. Bins missing from a short sample count as
// zero. The returned slice is reused by the next call.
func (b *Bucketizer) Bucketize(sample []byte, rotation float64) []Slice {
	step := 2 * math.Pi / float64(len(b.slices))
	for i, g := range b.layout.groups {
		total := 0
		for bin := g.Start; bin < g.End && bin < len(sample); bin++ {
			total += int(sample[bin])
		}
		mean := float64(total) / float64(g.Len())
		b.slices[i] = Slice{
			Index:  i,
			Angle:  rotation + float64(i)*step,
			Energy: Displacement(b.jumpRate, mean),
		}
	}
	return b.slices
}

// Rotor owns the slowly advancing rotation offset of the pulse variant.
type Rotor struct {
	angle float64
	step  float64
}

// NewRotor creates a rotor advancing by step radians per frame.
func NewRotor(step float64) Rotor {
	return Rotor{step: step}
}

// Angle returns the current offset.
func (r *Rotor) Angle() float64 { return r.angle }

// Advance moves the rotor one frame forward and returns the new offset,
// kept in [0, 2π).
func (r *Rotor) Advance() float64 {
	r.angle = math.Mod(r.angle+r.step, 2*math.Pi)
	if r.angle < 0 {
		r.angle += 2 * math.Pi
	}
	return r.angle
}
