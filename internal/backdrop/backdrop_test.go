package backdrop

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/olivier-w/polarviz/internal/slideshow"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestLoaderFetchesAndDecodes(t *testing.T) {
	body := pngBytes(t, solid(8, 4, color.RGBA{R: 200, A: 255}))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/photo.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	l := NewLoader(srv.Client())
	ok := srv.URL + "/photo.png"
	missing := srv.URL + "/missing.png"
	l.Request(context.Background(), ok)
	l.Request(context.Background(), missing)
	l.Wait()

	img, found := l.Image(ok)
	if !found {
		t.Fatalf("expected image to be loaded, err %v", l.Err(ok))
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 4 {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
	if l.Err(missing) == nil {
		t.Fatal("expected error for missing image")
	}

	l.Retain(missing)
	if _, found := l.Image(ok); found {
		t.Fatal("expected unretained image to be dropped")
	}
}

type imageMap map[string]image.Image

func (m imageMap) Image(url string) (image.Image, bool) {
	img, ok := m[url]
	return img, ok
}

func shown(url string, z uint64, since time.Time) slideshow.SlotStyle {
	return slideshow.SlotStyle{
		Frame:   slideshow.Frame{ImageURL: url},
		Opacity: 1,
		FadeIn:  true,
		Fade:    3 * time.Second,
		Since:   since,
		Z:       z,
		Loaded:  true,
	}
}

func TestComposeHigherZPaintsOver(t *testing.T) {
	now := time.Now()
	images := imageMap{
		"red":  solid(4, 4, color.RGBA{R: 255, A: 255}),
		"blue": solid(4, 4, color.RGBA{B: 255, A: 255}),
	}
	c := NewCompositor(images)
	c.SetDim(0)

	var state slideshow.BoardState
	state.Slots[0] = shown("red", 2, now.Add(-time.Minute))
	state.Slots[1] = shown("blue", 1, now.Add(-time.Minute))

	got := c.Compose(state, now, 2, 2, 1).RGBAAt(0, 0)
	if got.R != 255 || got.B != 0 {
		t.Fatalf("expected red slot with higher z on top, got %v", got)
	}
}

func TestComposeFadesAndDims(t *testing.T) {
	now := time.Now()
	images := imageMap{
		"red":  solid(4, 4, color.RGBA{R: 255, A: 255}),
		"blue": solid(4, 4, color.RGBA{B: 255, A: 255}),
	}
	c := NewCompositor(images)

	var state slideshow.BoardState
	state.Slots[0] = shown("red", 0, now.Add(-time.Minute))
	state.Slots[1] = shown("blue", 1, now.Add(-1500*time.Millisecond))

	got := c.Compose(state, now, 2, 2, 1).RGBAAt(1, 1)
	// Half-faded blue over red, then darkened by half.
	if got.R < 50 || got.R > 80 || got.B < 50 || got.B > 80 {
		t.Fatalf("expected a dimmed even mix, got %v", got)
	}
}

func TestComposeWithoutVisiblePhotoIsNil(t *testing.T) {
	c := NewCompositor(imageMap{})
	var state slideshow.BoardState
	state.Slots[0] = shown("not-loaded", 0, time.Now().Add(-time.Minute))
	if img := c.Compose(state, time.Now(), 4, 4, 2); img != nil {
		t.Fatal("expected nil when no photo is loaded")
	}
}

func TestCoverCropsToCenter(t *testing.T) {
	src := solid(200, 100, color.RGBA{G: 255, A: 255})
	for y := range 100 {
		for x := 50; x < 150; x++ {
			src.SetRGBA(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	dst := cover(src, 2, 2, 1)
	for y := range 2 {
		for x := range 2 {
			if got := dst.RGBAAt(x, y); got.G > 40 {
				t.Fatalf("expected center crop at (%d, %d), got %v", x, y, got)
			}
		}
	}

	// Terminal cells are twice as tall: 4x1 cells cover a 4x2 square-pixel
	// area, so the same source fits without cropping sideways.
	wide := cover(src, 4, 1, 2)
	if got := wide.RGBAAt(0, 0); got.G < 200 {
		t.Fatalf("expected left edge of the source at the left cell, got %v", got)
	}
}
