// Package snapshot rasterizes a visualizer draw list at full surface
// resolution and writes it out as PNG.
package snapshot

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/olivier-w/polarviz/internal/visualizer"
	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// Joins are approximated by regular polygons with this many sides.
const joinSegments = 12

// Rasterize draws list onto a SurfaceSize square image. backdrop, when
// non-nil, is scaled to fill the surface before the first command.
func Rasterize(list visualizer.DrawList, backdrop image.Image) *image.RGBA {
	const size = visualizer.SurfaceSize
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	z := vector.NewRasterizer(size, size)

	for _, cmd := range list {
		switch cmd.Kind {
		case visualizer.CmdClear:
			draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
			if backdrop != nil {
				draw.ApproxBiLinear.Scale(dst, dst.Bounds(), backdrop, backdrop.Bounds(), draw.Src, nil)
			}
		case visualizer.CmdDisk:
			z.Reset(size, size)
			addPolygon(z, circle(cmd.Center, cmd.Radius, 96))
			fill(z, dst, cmd.Color)
		case visualizer.CmdPolyline:
			z.Reset(size, size)
			stroke(z, cmd.Points, cmd.Closed, cmd.Width)
			fill(z, dst, cmd.Color)
		}
	}
	return dst
}

// Write rasterizes list and saves it as a timestamped PNG in dir, returning
// the file path.
func Write(dir string, list visualizer.DrawList, backdrop image.Image, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating snapshot dir: %w", err)
	}
	path := filepath.Join(dir, "polarviz-"+now.Format("20060102-150405.000")+".png")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating snapshot: %w", err)
	}
	if err := png.Encode(f, Rasterize(list, backdrop)); err != nil {
		f.Close()
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing snapshot: %w", err)
	}
	return path, nil
}

func fill(z *vector.Rasterizer, dst *image.RGBA, c color.NRGBA) {
	z.DrawOp = draw.Over
	z.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{})
}

// stroke adds one quad per segment plus a round join at every vertex. All
// shapes are added with the same winding so overlaps do not cancel.
func stroke(z *vector.Rasterizer, pts []visualizer.Point, closed bool, width float64) {
	if len(pts) == 0 {
		return
	}
	half := width / 2
	if half < 0.5 {
		half = 0.5
	}
	segment := func(a, b visualizer.Point) {
		dx, dy := b.X-a.X, b.Y-a.Y
		length := math.Hypot(dx, dy)
		if length == 0 {
			return
		}
		nx, ny := -dy/length*half, dx/length*half
		addPolygon(z, []visualizer.Point{
			{X: a.X + nx, Y: a.Y + ny},
			{X: b.X + nx, Y: b.Y + ny},
			{X: b.X - nx, Y: b.Y - ny},
			{X: a.X - nx, Y: a.Y - ny},
		})
	}
	for i := 1; i < len(pts); i++ {
		segment(pts[i-1], pts[i])
	}
	if closed && len(pts) > 2 {
		segment(pts[len(pts)-1], pts[0])
	}
	for _, p := range pts {
		addPolygon(z, circle(p, half, joinSegments))
	}
}

func circle(center visualizer.Point, r float64, n int) []visualizer.Point {
	pts := make([]visualizer.Point, n)
	for i := range n {
		a := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = visualizer.Point{X: center.X + r*math.Cos(a), Y: center.Y + r*math.Sin(a)}
	}
	return pts
}

// addPolygon adds pts to z as a closed path with positive signed area.
func addPolygon(z *vector.Rasterizer, pts []visualizer.Point) {
	if len(pts) < 3 {
		return
	}
	area := 0.0
	for i := range pts {
		j := (i + 1) % len(pts)
		area += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	at := func(i int) visualizer.Point {
		if area < 0 {
			return pts[len(pts)-1-i]
		}
		return pts[i]
	}
	p := at(0)
	z.MoveTo(float32(p.X), float32(p.Y))
	for i := 1; i < len(pts); i++ {
		p = at(i)
		z.LineTo(float32(p.X), float32(p.Y))
	}
	z.ClosePath()
}
