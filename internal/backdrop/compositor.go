package backdrop

import (
	"image"
	"image/color"
	"sort"
	"time"

	"github.com/olivier-w/polarviz/internal/slideshow"
	"golang.org/x/image/draw"
)

// DefaultDim darkens photos so the plot stays readable.
const DefaultDim = 0.5

// Images looks up decoded images by URL.
type Images interface {
	Image(url string) (image.Image, bool)
}

type scaleKey struct {
	url    string
	w, h   int
	aspect float64
}

// Compositor paints the slideshow slots, lowest z first, each at its current
// opacity, then dims the result. Scaled photos are cached per size.
type Compositor struct {
	images Images
	dim    float64
	scaled map[scaleKey]*image.RGBA
}

// NewCompositor creates a compositor reading from images.
func NewCompositor(images Images) *Compositor {
	return &Compositor{images: images, dim: DefaultDim, scaled: make(map[scaleKey]*image.RGBA)}
}

// Clone returns a compositor with the same settings and an empty cache, for
// use from another goroutine.
func (c *Compositor) Clone() *Compositor {
	return &Compositor{images: c.images, dim: c.dim, scaled: make(map[scaleKey]*image.RGBA)}
}

// SetDim sets the darkening amount in [0, 1].
func (c *Compositor) SetDim(dim float64) {
	c.dim = min(max(dim, 0), 1)
}

// Compose renders state at now into a w x h image. cellAspect is the height
// of one destination pixel relative to its width (2 for terminal cells).
// It returns nil when no slot has a visible, loaded photo.
func (c *Compositor) Compose(state slideshow.BoardState, now time.Time, w, h int, cellAspect float64) *image.RGBA {
	if w <= 0 || h <= 0 {
		return nil
	}
	if cellAspect <= 0 {
		cellAspect = 1
	}

	order := []int{0, 1}
	sort.SliceStable(order, func(i, j int) bool {
		return state.Slots[order[i]].Z < state.Slots[order[j]].Z
	})

	var dst *image.RGBA
	live := make(map[scaleKey]struct{}, 2)
	for _, i := range order {
		slot := state.Slots[i]
		alpha := slot.OpacityAt(now)
		if alpha <= 0 {
			continue
		}
		src, ok := c.images.Image(slot.Frame.ImageURL)
		if !ok {
			continue
		}
		key := scaleKey{url: slot.Frame.ImageURL, w: w, h: h, aspect: cellAspect}
		live[key] = struct{}{}
		scaled, ok := c.scaled[key]
		if !ok {
			scaled = cover(src, w, h, cellAspect)
			c.scaled[key] = scaled
		}

		if dst == nil {
			dst = image.NewRGBA(image.Rect(0, 0, w, h))
			draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
		}
		mask := image.NewUniform(color.Alpha{A: uint8(alpha*255 + 0.5)})
		draw.DrawMask(dst, dst.Bounds(), scaled, image.Point{}, mask, image.Point{}, draw.Over)
	}
	for k := range c.scaled {
		if _, ok := live[k]; !ok {
			delete(c.scaled, k)
		}
	}
	if dst == nil {
		return nil
	}

	if c.dim > 0 {
		shade := image.NewUniform(color.NRGBA{A: uint8(c.dim*255 + 0.5)})
		draw.Draw(dst, dst.Bounds(), shade, image.Point{}, draw.Over)
	}
	return dst
}

// cover scales src to fill w x h destination pixels of the given aspect,
// cropping the overflowing dimension around the center.
func cover(src image.Image, w, h int, cellAspect float64) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	sb := src.Bounds()
	if sb.Empty() {
		return dst
	}

	want := float64(w) / (float64(h) * cellAspect)
	have := float64(sb.Dx()) / float64(sb.Dy())
	crop := sb
	if have > want {
		cw := int(float64(sb.Dy())*want + 0.5)
		cw = max(cw, 1)
		x0 := sb.Min.X + (sb.Dx()-cw)/2
		crop = image.Rect(x0, sb.Min.Y, x0+cw, sb.Max.Y)
	} else if have < want {
		ch := int(float64(sb.Dx())/want + 0.5)
		ch = max(ch, 1)
		y0 := sb.Min.Y + (sb.Dy()-ch)/2
		crop = image.Rect(sb.Min.X, y0, sb.Max.X, y0+ch)
	}
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, crop, draw.Src, nil)
	return dst
}
