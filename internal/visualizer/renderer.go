package visualizer

import (
	"image/color"
	"math"
)

// Drawing surface geometry. All draw commands use this fixed coordinate space.
const (
	SurfaceSize = 800
	plotOffset  = 200
	plotRadius  = SurfaceSize/2 - plotOffset
	strokeWidth = 5
	diskSwing   = 50

	// DefaultRotationStep is the pulse variant's per-frame rotation in radians.
	DefaultRotationStep = 0.002
)

var (
	strokeColor = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	diskColor   = color.NRGBA{R: 255, G: 255, B: 255, A: 48}
	glyphColor  = color.NRGBA{R: 255, G: 214, B: 120, A: 255}
)

// Point is a position on the drawing surface.
type Point struct {
	X float64
	Y float64
}

// CommandKind identifies a draw command.
type CommandKind uint8

const (
	CmdClear CommandKind = iota
	CmdDisk
	CmdPolyline
)

// Command is a single immediate-mode drawing instruction.
type Command struct {
	Kind   CommandKind
	Points []Point // CmdPolyline
	Closed bool    // CmdPolyline: connect the last point back to the first
	Center Point   // CmdDisk
	Radius float64 // CmdDisk
	Width  float64 // CmdPolyline stroke width
	Color  color.NRGBA
}

// DrawList is everything needed to draw one frame, in painter's order.
type DrawList []Command

// Scene is the renderer input for one frame.
type Scene struct {
	Slices []Slice
	Energy float64 // normalized pulse energy in [0, 1]
	Pulse  bool
}

// Renderer converts a scene into a draw list. It keeps no per-frame state,
// so equal scenes always produce equal draw lists.
type Renderer struct {
	glyph []Point
}

// NewRenderer creates a renderer for the fixed 800x800 surface.
func NewRenderer() *Renderer {
	return &Renderer{glyph: starGlyph(SurfaceSize/2, SurfaceSize/2, 40, 16, 5)}
}

// Render produces the draw list for a scene.
func (r *Renderer) Render(s Scene) DrawList {
	list := make(DrawList, 0, 4)
	list = append(list, Command{Kind: CmdClear})

	if s.Pulse {
		list = append(list,
			Command{
				Kind:   CmdDisk,
				Center: Point{X: SurfaceSize / 2, Y: SurfaceSize / 2},
				Radius: DiskRadius(s.Energy),
				Color:  diskColor,
			},
			Command{
				Kind:   CmdPolyline,
				Points: r.glyph,
				Closed: true,
				Width:  2,
				Color:  glyphColor,
			},
		)
	}

	if len(s.Slices) > 0 {
		pts := make([]Point, len(s.Slices))
		for i, sl := range s.Slices {
			pts[i] = SlicePoint(sl)
		}
		list = append(list, Command{
			Kind:   CmdPolyline,
			Points: pts,
			Closed: true,
			Width:  strokeWidth,
			Color:  strokeColor,
		})
	}
	return list
}

// SlicePoint places a slice on the surface: its displacement pushes the point
// outward from the base circle.
func SlicePoint(s Slice) Point {
	r := plotRadius + s.Energy
	return Point{
		X: r*math.Cos(s.Angle) + plotRadius + plotOffset,
		Y: r*math.Sin(s.Angle) + plotRadius + plotOffset,
	}
}

// DiskRadius maps normalized energy onto the pulse disk radius, between
// plotRadius-50 and plotRadius.
func DiskRadius(energy float64) float64 {
	return plotRadius - diskSwing + diskSwing*clamp01(energy)
}

// BaseRadius is the radius of the plot's resting circle.
func BaseRadius() float64 { return plotRadius }

func starGlyph(cx, cy, outer, inner float64, points int) []Point {
	pts := make([]Point, 0, points*2)
	for i := range points * 2 {
		r := outer
		if i%2 == 1 {
			r = inner
		}
		a := -math.Pi/2 + float64(i)*math.Pi/float64(points)
		pts = append(pts, Point{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)})
	}
	return pts
}
