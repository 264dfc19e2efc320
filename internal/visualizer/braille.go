package visualizer

import (
	"image"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Braille dot positions (col, row) → bit offset:
//
//	(0,0)=0  (1,0)=3
//	(0,1)=1  (1,1)=4
//	(0,2)=2  (1,2)=5
//	(0,3)=6  (1,3)=7
var brailleBits = [2][4]uint{
	{0, 1, 2, 6},
	{3, 4, 5, 7},
}

// Canvas rasterizes draw lists onto a grid of Braille cells. Each cell is a
// 2x4 dot grid, and dots are close to square on a typical terminal, so the
// 800x800 surface maps onto the largest centered square of dots.
type Canvas struct {
	cols    int
	rows    int
	profile termenv.Profile

	dots  []uint8
	fg    []colorRGB
	bg    []colorRGB
	bgSet []bool

	smooth bool
	spring springValue

	output string
}

// NewCanvas creates an empty canvas using the terminal's color profile.
func NewCanvas() *Canvas {
	return &Canvas{profile: lipgloss.ColorProfile()}
}

// SmoothDisk eases the pulse disk radius with a spring instead of following
// the energy frame by frame.
func (c *Canvas) SmoothDisk(fps int) {
	c.smooth = true
	c.spring = newSpringValue(fps, 6.0, 0.8)
}

// Resize sets the grid size in terminal cells.
func (c *Canvas) Resize(cols, rows int) {
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}
	if cols == c.cols && rows == c.rows {
		return
	}
	c.cols, c.rows = cols, rows
	n := cols * rows
	c.dots = make([]uint8, n)
	c.fg = make([]colorRGB, n)
	c.bg = make([]colorRGB, n)
	c.bgSet = make([]bool, n)
	c.output = ""
}

// Ready reports whether the canvas has a drawable area.
func (c *Canvas) Ready() bool { return c.cols > 0 && c.rows > 0 }

// Size returns the grid size in cells.
func (c *Canvas) Size() (cols, rows int) { return c.cols, c.rows }

// Draw executes list. backdrop, when non-nil, holds one pixel per cell and
// becomes the cell background.
func (c *Canvas) Draw(list DrawList, backdrop *image.RGBA) {
	if !c.Ready() {
		return
	}
	for _, cmd := range list {
		switch cmd.Kind {
		case CmdClear:
			c.clear(backdrop)
		case CmdDisk:
			r := cmd.Radius
			if c.smooth {
				r = c.spring.step(r)
			}
			c.disk(cmd.Center, r, rgbOf(cmd.Color), float64(cmd.Color.A)/255)
		case CmdPolyline:
			c.polyline(cmd.Points, cmd.Closed, rgbOf(cmd.Color))
		}
	}
	c.output = c.render()
}

// View returns the last drawn frame.
func (c *Canvas) View() string { return c.output }

func (c *Canvas) clear(backdrop *image.RGBA) {
	clear(c.dots)
	for i := range c.bgSet {
		c.bgSet[i] = false
	}
	if backdrop == nil {
		return
	}
	b := backdrop.Bounds()
	for row := 0; row < c.rows && row < b.Dy(); row++ {
		for col := 0; col < c.cols && col < b.Dx(); col++ {
			px := backdrop.RGBAAt(b.Min.X+col, b.Min.Y+row)
			i := row*c.cols + col
			c.bg[i] = colorRGB{R: px.R, G: px.G, B: px.B}
			c.bgSet[i] = true
		}
	}
}

func (c *Canvas) geometry() (ox, oy, scale float64) {
	dotW := float64(c.cols * 2)
	dotH := float64(c.rows * 4)
	side := math.Min(dotW, dotH)
	return (dotW - side) / 2, (dotH - side) / 2, side / SurfaceSize
}

func (c *Canvas) toDot(p Point) (int, int) {
	ox, oy, scale := c.geometry()
	return int(math.Round(ox + p.X*scale)), int(math.Round(oy + p.Y*scale))
}

func (c *Canvas) disk(center Point, radius float64, tint colorRGB, alpha float64) {
	ox, oy, scale := c.geometry()
	cx := ox + center.X*scale
	cy := oy + center.Y*scale
	r := radius * scale
	for row := range c.rows {
		for col := range c.cols {
			dx := float64(col*2+1) - cx
			dy := float64(row*4+2) - cy
			if dx*dx+dy*dy > r*r {
				continue
			}
			i := row*c.cols + col
			if !c.bgSet[i] {
				c.bg[i] = colorRGB{}
				c.bgSet[i] = true
			}
			c.bg[i] = lerpColor(c.bg[i], tint, alpha)
		}
	}
}

func (c *Canvas) polyline(pts []Point, closed bool, col colorRGB) {
	if len(pts) == 0 {
		return
	}
	for i := 1; i < len(pts); i++ {
		c.line(pts[i-1], pts[i], col)
	}
	if closed && len(pts) > 1 {
		c.line(pts[len(pts)-1], pts[0], col)
	}
	if len(pts) == 1 {
		x, y := c.toDot(pts[0])
		c.setDot(x, y, col)
	}
}

// line draws a Bresenham segment in dot space.
func (c *Canvas) line(a, b Point, col colorRGB) {
	x0, y0 := c.toDot(a)
	x1, y1 := c.toDot(b)
	dx := absInt(x1 - x0)
	dy := -absInt(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		c.setDot(x0, y0, col)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) setDot(x, y int, col colorRGB) {
	if x < 0 || y < 0 || x >= c.cols*2 || y >= c.rows*4 {
		return
	}
	i := (y/4)*c.cols + x/2
	c.dots[i] |= 1 << brailleBits[x%2][y%4]
	c.fg[i] = col
}

// Dot reports whether the dot at (x, y) in dot space is set.
func (c *Canvas) Dot(x, y int) bool {
	if x < 0 || y < 0 || x >= c.cols*2 || y >= c.rows*4 {
		return false
	}
	return c.dots[(y/4)*c.cols+x/2]&(1<<brailleBits[x%2][y%4]) != 0
}

func (c *Canvas) render() string {
	var out strings.Builder
	out.Grow(c.cols * c.rows * 4)
	state := newANSIState(c.profile)
	for row := range c.rows {
		if row > 0 {
			out.WriteByte('\n')
		}
		for col := range c.cols {
			i := row*c.cols + col
			if c.bgSet[i] {
				state.setBg(&out, c.bg[i])
			} else if state.bg != noColor {
				state.reset(&out)
			}
			if c.dots[i] == 0 {
				out.WriteByte(' ')
				continue
			}
			state.setFg(&out, c.fg[i])
			out.WriteRune(rune(0x2800 + int(c.dots[i])))
		}
		state.reset(&out)
	}
	return out.String()
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
