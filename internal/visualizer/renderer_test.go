package visualizer

import (
	"math"
	"reflect"
	"testing"
)

func circleSlices(n int) []Slice {
	slices := make([]Slice, n)
	for i := range slices {
		slices[i] = Slice{Index: i, Angle: float64(i) * 2 * math.Pi / float64(n), Energy: 1}
	}
	return slices
}

func TestRenderClassicDrawsClosedPolygon(t *testing.T) {
	r := NewRenderer()
	list := r.Render(Scene{Slices: circleSlices(DefaultSlices)})

	if len(list) != 2 {
		t.Fatalf("expected clear + polygon, got %d commands", len(list))
	}
	if list[0].Kind != CmdClear {
		t.Fatalf("expected first command to clear, got %v", list[0].Kind)
	}
	poly := list[1]
	if poly.Kind != CmdPolyline || !poly.Closed {
		t.Fatalf("expected closed polyline, got %+v", poly)
	}
	if len(poly.Points) != DefaultSlices {
		t.Fatalf("expected %d points, got %d", DefaultSlices, len(poly.Points))
	}
	if poly.Width != strokeWidth || poly.Color != strokeColor {
		t.Fatalf("unexpected stroke: width %v color %v", poly.Width, poly.Color)
	}
}

func TestRenderPulseAddsDiskAndGlyphBeforePolygon(t *testing.T) {
	r := NewRenderer()
	list := r.Render(Scene{Slices: circleSlices(8), Energy: 0.5, Pulse: true})

	kinds := make([]CommandKind, len(list))
	for i, c := range list {
		kinds[i] = c.Kind
	}
	want := []CommandKind{CmdClear, CmdDisk, CmdPolyline, CmdPolyline}
	if !reflect.DeepEqual(kinds, want) {
		t.Fatalf("expected %v, got %v", want, kinds)
	}
	if got := list[1].Radius; got != BaseRadius()-25 {
		t.Fatalf("expected disk radius %v, got %v", BaseRadius()-25, got)
	}
	if len(list[2].Points) != 10 {
		t.Fatalf("expected 10 star points, got %d", len(list[2].Points))
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	r := NewRenderer()
	scene := Scene{Slices: circleSlices(32), Energy: 0.3, Pulse: true}
	if !reflect.DeepEqual(r.Render(scene), r.Render(scene)) {
		t.Fatal("expected identical draw lists for identical scenes")
	}
}

func TestDiskRadiusBounds(t *testing.T) {
	if got := DiskRadius(0); got != BaseRadius()-50 {
		t.Fatalf("expected %v at zero energy, got %v", BaseRadius()-50, got)
	}
	if got := DiskRadius(1); got != BaseRadius() {
		t.Fatalf("expected %v at full energy, got %v", BaseRadius(), got)
	}
	if got := DiskRadius(math.NaN()); got != BaseRadius()-50 {
		t.Fatalf("expected NaN energy to clamp, got %v", got)
	}
}
