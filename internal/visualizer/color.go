package visualizer

import (
	"fmt"
	"image/color"
	"math"
	"strings"
	"sync"

	"github.com/muesli/termenv"
)

type colorRGB struct {
	R, G, B uint8
}

func rgbOf(c color.NRGBA) colorRGB {
	return colorRGB{R: c.R, G: c.G, B: c.B}
}

func (c colorRGB) key() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0 || math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	}
	return v
}

func lerpColor(a, b colorRGB, t float64) colorRGB {
	t = clamp01(t)
	mix := func(x, y uint8) uint8 { return uint8(float64(x) + (float64(y)-float64(x))*t) }
	return colorRGB{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B)}
}

// ansiState remembers the colors last written so a run of same-colored
// cells costs one escape sequence.
type ansiState struct {
	profile termenv.Profile
	fg, bg  uint32
}

const noColor = ^uint32(0)

func newANSIState(p termenv.Profile) ansiState {
	return ansiState{profile: p, fg: noColor, bg: noColor}
}

func (s *ansiState) setFg(sb *strings.Builder, c colorRGB) {
	s.set(sb, &s.fg, c, false)
}

func (s *ansiState) setBg(sb *strings.Builder, c colorRGB) {
	s.set(sb, &s.bg, c, true)
}

func (s *ansiState) set(sb *strings.Builder, cur *uint32, c colorRGB, background bool) {
	if s.profile == termenv.Ascii || *cur == c.key() {
		return
	}
	sb.WriteString(colorSequence(s.profile, c, background))
	*cur = c.key()
}

func (s *ansiState) reset(sb *strings.Builder) {
	if s.profile == termenv.Ascii || (s.fg == noColor && s.bg == noColor) {
		return
	}
	sb.WriteString(termenv.CSI + termenv.ResetSeq + "m")
	s.fg, s.bg = noColor, noColor
}

type seqKey struct {
	profile    termenv.Profile
	rgb        uint32
	background bool
}

var seqCache sync.Map

// colorSequence returns the SGR escape selecting c on profile. Truecolor is
// written directly; reduced palettes go through termenv's conversion.
func colorSequence(profile termenv.Profile, c colorRGB, background bool) string {
	k := seqKey{profile: profile, rgb: c.key(), background: background}
	if seq, ok := seqCache.Load(k); ok {
		return seq.(string)
	}

	var body string
	switch profile {
	case termenv.TrueColor:
		layer := termenv.Foreground
		if background {
			layer = termenv.Background
		}
		body = fmt.Sprintf("%s;2;%d;%d;%d", layer, c.R, c.G, c.B)
	case termenv.Ascii:
	default:
		hex := fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
		body = profile.Convert(termenv.RGBColor(hex)).Sequence(background)
	}

	seq := ""
	if body != "" {
		seq = termenv.CSI + body + "m"
	}
	seqCache.Store(k, seq)
	return seq
}
