package ui

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/olivier-w/polarviz/internal/backdrop"
	"github.com/olivier-w/polarviz/internal/player"
	"github.com/olivier-w/polarviz/internal/slideshow"
	"github.com/olivier-w/polarviz/internal/snapshot"
	"github.com/olivier-w/polarviz/internal/visualizer"
)

const (
	messageTTL = 5 * time.Second
	cellAspect = 2
	volumeStep = 0.05
)

// Playback is the file player as seen by the UI.
type Playback interface {
	Done() <-chan struct{}
	Position() time.Duration
	Duration() time.Duration
	TogglePause()
	Paused() bool
	SetVolume(v float64)
	Volume() float64
	Metadata() player.Metadata
	Close() error
}

// Options wires the model to the rest of the program. Board, Loader,
// Compositor and Playback are optional.
type Options struct {
	Pulse       bool
	FPS         int
	Pipeline    *visualizer.Pipeline
	Canvas      *visualizer.Canvas
	Board       *slideshow.Board
	Loader      *backdrop.Loader
	Compositor  *backdrop.Compositor
	Playback    Playback
	InputName   string
	CaptureErr  error
	SnapshotDir string
	Context     context.Context
	Cancel      context.CancelFunc
}

// Model is the Bubbletea model for the visualizer screen.
type Model struct {
	opts     Options
	keys     keyMap
	help     help.Model
	width    int
	height   int
	pulse    bool
	backdrop bool
	version  uint64
	board    slideshow.BoardState
	last     visualizer.DrawList

	message   string
	messageAt time.Time
	saving    bool
	quitting  bool
}

// New creates a Model.
func New(opts Options) Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	h := help.New()
	h.ShortSeparator = "  "
	return Model{
		opts:     opts,
		keys:     newKeyMap(opts.Playback != nil),
		help:     h,
		pulse:    opts.Pulse,
		backdrop: opts.Compositor != nil,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(frameCmd(m.opts.FPS), checkDone(m.opts.Playback), tea.SetWindowTitle("polarviz"))
}

func checkDone(p Playback) tea.Cmd {
	if p == nil {
		return nil
	}
	return func() tea.Msg {
		<-p.Done()
		return playbackEndedMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resizeCanvas()
		return m, nil

	case frameMsg:
		// Always re-arm; an unsized canvas just skips drawing.
		next := frameCmd(m.opts.FPS)
		if !m.opts.Canvas.Ready() {
			return m, next
		}
		m.drawFrame(time.Time(msg))
		return m, next

	case snapshotSavedMsg:
		m.saving = false
		if msg.err != nil {
			m.setMessage(fmt.Sprintf("snapshot failed: %v", msg.err))
		} else {
			m.setMessage("saved " + msg.path)
		}
		return m, nil

	case playbackEndedMsg:
		return m.quit()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Variant):
		m.pulse = !m.pulse
		m.setMessage("variant " + m.variantName())
	case key.Matches(msg, m.keys.Backdrop):
		if m.opts.Compositor != nil {
			m.backdrop = !m.backdrop
		}
	case key.Matches(msg, m.keys.Snapshot):
		if !m.saving {
			m.saving = true
			m.setMessage("saving snapshot...")
			return m, m.snapshotCmd()
		}
	case key.Matches(msg, m.keys.Pause):
		m.opts.Playback.TogglePause()
	case key.Matches(msg, m.keys.VolUp):
		m.adjustVolume(volumeStep)
	case key.Matches(msg, m.keys.VolDown):
		m.adjustVolume(-volumeStep)
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resizeCanvas()
	}
	return m, nil
}

func (m *Model) adjustVolume(delta float64) {
	p := m.opts.Playback
	p.SetVolume(p.Volume() + delta)
	m.setMessage(fmt.Sprintf("volume %.0f%%", p.Volume()*100))
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	if m.opts.Cancel != nil {
		m.opts.Cancel()
	}
	if m.opts.Playback != nil {
		m.opts.Playback.Close()
	}
	return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
}

func (m *Model) resizeCanvas() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	rows := m.height - lipgloss.Height(m.footer())
	m.opts.Canvas.Resize(m.width, max(rows, 1))
}

func (m *Model) drawFrame(now time.Time) {
	m.syncBoard()

	var list visualizer.DrawList
	if m.opts.CaptureErr != nil {
		list = m.opts.Pipeline.Blank()
	} else {
		list = m.opts.Pipeline.Frame(now, m.pulse)
	}

	var bg *image.RGBA
	if m.backdrop && m.opts.Compositor != nil {
		cols, rows := m.opts.Canvas.Size()
		bg = m.opts.Compositor.Compose(m.board, now, cols, rows, cellAspect)
	}
	m.opts.Canvas.Draw(list, bg)
	m.last = list

	if m.message != "" && !m.saving && now.Sub(m.messageAt) > messageTTL {
		m.message = ""
	}
}

// syncBoard copies the slideshow state and starts loading any new photos.
func (m *Model) syncBoard() {
	if m.opts.Board == nil {
		return
	}
	st := m.opts.Board.Snapshot()
	if st.Version != m.version && m.opts.Loader != nil {
		var urls []string
		for _, s := range st.Slots {
			if s.Loaded {
				urls = append(urls, s.Frame.ImageURL)
				m.opts.Loader.Request(m.opts.Context, s.Frame.ImageURL)
			}
		}
		m.opts.Loader.Retain(urls...)
	}
	m.version = st.Version
	m.board = st
}

func (m Model) snapshotCmd() tea.Cmd {
	list := m.last
	if list == nil {
		list = m.opts.Pipeline.Blank()
	}
	state := m.board
	dir := m.opts.SnapshotDir
	var comp *backdrop.Compositor
	if m.backdrop && m.opts.Compositor != nil {
		comp = m.opts.Compositor.Clone()
	}
	return func() tea.Msg {
		now := time.Now()
		var bg image.Image
		if comp != nil {
			if img := comp.Compose(state, now, visualizer.SurfaceSize, visualizer.SurfaceSize, 1); img != nil {
				bg = img
			}
		}
		path, err := snapshot.Write(dir, list, bg, now)
		return snapshotSavedMsg{path: path, err: err}
	}
}

func (m *Model) setMessage(s string) {
	m.message = s
	m.messageAt = time.Now()
}

func (m Model) variantName() string {
	if m.pulse {
		return "pulse"
	}
	return "classic"
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.opts.Canvas.Ready() {
		return "\n  " + titleStyle.Render("polarviz") + "\n"
	}
	return m.opts.Canvas.View() + "\n" + m.footer()
}

func (m Model) footer() string {
	return m.statusLine() + "\n" + m.help.View(m.keys)
}

func (m Model) statusLine() string {
	parts := []string{titleStyle.Render("polarviz"), statusStyle.Render(m.variantName())}

	input := m.opts.InputName
	if p := m.opts.Playback; p != nil {
		input = p.Metadata().String()
		t := formatClock(p.Position())
		if d := p.Duration(); d > 0 {
			t += " / " + formatClock(d)
		}
		if p.Paused() {
			t += " paused"
		}
		input += " " + timeStyle.Render(t)
	}
	if input != "" {
		parts = append(parts, statusStyle.Render(input))
	}
	if m.opts.CaptureErr != nil {
		parts = append(parts, errorStyle.Render("no audio: "+m.opts.CaptureErr.Error()))
	}
	if who, ok := m.board.Credit(); ok && m.backdrop {
		credit := "photo by " + who.Name
		if who.Username != "" {
			credit += " (@" + who.Username + ")"
		}
		parts = append(parts, creditStyle.Render(credit))
	}
	if m.board.Err != nil {
		parts = append(parts, errorStyle.Render("slideshow: "+m.board.Err.Error()))
	}
	if m.message != "" {
		parts = append(parts, statusStyle.Render(m.message))
	}

	line := strings.Join(parts, "  ")
	if m.width > 0 {
		line = lipgloss.NewStyle().MaxWidth(m.width).Render(line)
	}
	return line
}
