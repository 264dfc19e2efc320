package ui

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/olivier-w/polarviz/internal/player"
	"github.com/olivier-w/polarviz/internal/slideshow"
	"github.com/olivier-w/polarviz/internal/visualizer"
)

func testOptions(t *testing.T) Options {
	t.Helper()
	p, err := visualizer.NewPipeline(visualizer.NewRingBuffer(16384), visualizer.DefaultPipelineConfig(48000))
	if err != nil {
		t.Fatalf("NewPipeline returned error: %v", err)
	}
	return Options{
		FPS:         60,
		Pipeline:    p,
		Canvas:      visualizer.NewCanvas(),
		InputName:   "demo",
		SnapshotDir: t.TempDir(),
	}
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("expected Model, got %T", next)
	}
	return model, cmd
}

func TestFrameBeforeResizeRearmsWithoutDrawing(t *testing.T) {
	m := New(testOptions(t))
	m, cmd := update(t, m, frameMsg(time.Now()))
	if cmd == nil {
		t.Fatal("expected the frame tick to be re-armed")
	}
	if m.last != nil {
		t.Fatal("expected no draw before the terminal size is known")
	}
	if !strings.Contains(m.View(), "polarviz") {
		t.Fatalf("expected placeholder view, got %q", m.View())
	}
}

func TestFrameDrawsAfterResize(t *testing.T) {
	m := New(testOptions(t))
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})

	cols, rows := m.opts.Canvas.Size()
	if cols != 80 || rows != 28 {
		t.Fatalf("expected 80x28 canvas under a two-line footer, got %dx%d", cols, rows)
	}

	m, cmd := update(t, m, frameMsg(time.Now()))
	if cmd == nil {
		t.Fatal("expected next frame to be scheduled")
	}
	if len(m.last) != 2 {
		t.Fatalf("expected classic draw list, got %d commands", len(m.last))
	}
	hasBraille := false
	for _, r := range m.View() {
		if r > 0x2800 && r <= 0x28FF {
			hasBraille = true
			break
		}
	}
	if !hasBraille {
		t.Fatal("expected braille dots in the view")
	}
}

func TestVariantKeyTogglesPulse(t *testing.T) {
	m := New(testOptions(t))
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})
	m, _ = update(t, m, runeKey('v'))
	if !m.pulse {
		t.Fatal("expected pulse after pressing v")
	}
	m, _ = update(t, m, frameMsg(time.Now()))
	if len(m.last) != 4 {
		t.Fatalf("expected pulse draw list, got %d commands", len(m.last))
	}
	if !strings.Contains(m.statusLine(), "pulse") {
		t.Fatalf("expected status line to name the variant, got %q", m.statusLine())
	}
}

func TestCaptureErrorBlanksPlotAndShowsError(t *testing.T) {
	opts := testOptions(t)
	opts.CaptureErr = errors.New("no default input device")
	m := New(opts)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 200, Height: 30})
	m, _ = update(t, m, frameMsg(time.Now()))

	if len(m.last) != 1 || m.last[0].Kind != visualizer.CmdClear {
		t.Fatalf("expected blank frame, got %+v", m.last)
	}
	if !strings.Contains(m.statusLine(), "no default input device") {
		t.Fatalf("expected capture error in status line, got %q", m.statusLine())
	}
}

func TestSnapshotKeyWritesPNG(t *testing.T) {
	m := New(testOptions(t))
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})
	m, _ = update(t, m, frameMsg(time.Now()))

	m, cmd := update(t, m, runeKey('s'))
	if cmd == nil || !m.saving {
		t.Fatal("expected snapshot command")
	}
	msg, ok := cmd().(snapshotSavedMsg)
	if !ok {
		t.Fatal("expected snapshotSavedMsg")
	}
	if msg.err != nil {
		t.Fatalf("snapshot failed: %v", msg.err)
	}
	if _, err := os.Stat(msg.path); err != nil {
		t.Fatalf("expected snapshot file: %v", err)
	}

	m, _ = update(t, m, msg)
	if m.saving || !strings.Contains(m.message, "saved") {
		t.Fatalf("expected saved message, got %q", m.message)
	}
}

type oneSource struct{}

func (oneSource) Next(context.Context) (slideshow.Frame, error) {
	return slideshow.Frame{
		ImageURL:     "http://127.0.0.1:0/photo.jpg",
		Photographer: slideshow.Photographer{Name: "Ada", Username: "ada"},
	}, nil
}

type failingSource struct{}

func (failingSource) Next(context.Context) (slideshow.Frame, error) {
	return slideshow.Frame{}, errors.New("rate limited")
}

func TestStatusLineShowsCreditAndSlideshowError(t *testing.T) {
	board := slideshow.NewBoard()
	c := slideshow.NewController(oneSource{}, board, nil, slideshow.DefaultTiming())
	for range 2 {
		if _, err := c.Step(context.Background()); err != nil {
			t.Fatalf("Step returned error: %v", err)
		}
	}

	opts := testOptions(t)
	opts.Board = board
	m := New(opts)
	m.backdrop = true
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 200, Height: 30})
	m, _ = update(t, m, frameMsg(time.Now()))
	if !strings.Contains(m.statusLine(), "photo by Ada (@ada)") {
		t.Fatalf("expected photo credit, got %q", m.statusLine())
	}

	failing := slideshow.NewBoard()
	fc := slideshow.NewController(failingSource{}, failing, nil, slideshow.DefaultTiming())
	if _, err := fc.Step(context.Background()); err == nil {
		t.Fatal("expected failing step")
	}
	opts.Board = failing
	m = New(opts)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 200, Height: 30})
	m, _ = update(t, m, frameMsg(time.Now()))
	if !strings.Contains(m.statusLine(), "rate limited") {
		t.Fatalf("expected slideshow error, got %q", m.statusLine())
	}
}

type fakePlayback struct {
	done   chan struct{}
	paused bool
	closed bool
	volume float64
}

func (p *fakePlayback) Done() <-chan struct{}   { return p.done }
func (p *fakePlayback) Position() time.Duration { return 65 * time.Second }
func (p *fakePlayback) Duration() time.Duration { return 3 * time.Minute }
func (p *fakePlayback) TogglePause()            { p.paused = !p.paused }
func (p *fakePlayback) Paused() bool            { return p.paused }
func (p *fakePlayback) Close() error            { p.closed = true; return nil }
func (p *fakePlayback) SetVolume(v float64)     { p.volume = min(max(v, 0), 1) }
func (p *fakePlayback) Volume() float64         { return p.volume }

func (p *fakePlayback) Metadata() player.Metadata {
	return player.Metadata{Title: "Song", Artist: "Band"}
}

func TestPlaybackStatusPauseAndQuit(t *testing.T) {
	pb := &fakePlayback{done: make(chan struct{})}
	cancelled := false
	opts := testOptions(t)
	opts.Playback = pb
	opts.Cancel = func() { cancelled = true }
	m := New(opts)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 200, Height: 30})

	if !strings.Contains(m.statusLine(), "Band - Song") || !strings.Contains(m.statusLine(), "1:05 / 3:00") {
		t.Fatalf("unexpected status line %q", m.statusLine())
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if !pb.paused {
		t.Fatal("expected space to pause playback")
	}

	pb.volume = 0.5
	m, _ = update(t, m, runeKey('+'))
	if pb.volume < 0.549 || pb.volume > 0.551 {
		t.Fatalf("expected volume 0.55, got %v", pb.volume)
	}
	m, _ = update(t, m, runeKey('-'))
	m, _ = update(t, m, runeKey('-'))
	if pb.volume < 0.449 || pb.volume > 0.451 {
		t.Fatalf("expected volume 0.45, got %v", pb.volume)
	}
	if !strings.Contains(m.message, "volume 45%") {
		t.Fatalf("expected volume message, got %q", m.message)
	}

	m, cmd := update(t, m, runeKey('q'))
	if cmd == nil || !m.quitting {
		t.Fatal("expected quit")
	}
	if !cancelled || !pb.closed {
		t.Fatalf("expected cancel and close on quit, got cancel %v close %v", cancelled, pb.closed)
	}
	if m.View() != "" {
		t.Fatal("expected empty view after quit")
	}
}

func TestPauseKeyDisabledWithoutPlayback(t *testing.T) {
	m := New(testOptions(t))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if m.quitting {
		t.Fatal("expected space to be ignored")
	}
}

func TestFormatClock(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{-time.Second, "0:00"},
		{65 * time.Second, "1:05"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
	}
	for _, c := range cases {
		if got := formatClock(c.d); got != c.want {
			t.Fatalf("formatClock(%v) = %q, want %q", c.d, got, c.want)
		}
	}
}
