package main

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/olivier-w/polarviz/internal/ui"
)

type startupPhase uint8

const (
	phaseOpening startupPhase = iota
	phaseFailed
)

type startupResolvedMsg struct {
	model ui.Model
	err   error
}

// startupModel shows a spinner while the audio input and slideshow open,
// then hands the program over to the visualizer.
type startupModel struct {
	open    func() (ui.Model, error)
	phase   startupPhase
	errMsg  string
	width   int
	height  int
	spinner spinner.Model
}

func newStartupModel(open func() (ui.Model, error)) startupModel {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = startupStatusStyle

	return startupModel{
		open:    open,
		phase:   phaseOpening,
		spinner: s,
	}
}

func (m startupModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, openCmd(m.open))
}

func openCmd(open func() (ui.Model, error)) tea.Cmd {
	return func() tea.Msg {
		model, err := open()
		return startupResolvedMsg{model: model, err: err}
	}
}

func (m startupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if m.phase != phaseOpening {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case startupResolvedMsg:
		if msg.err != nil {
			m.phase = phaseFailed
			m.errMsg = msg.err.Error()
			return m, nil
		}

		cmds := []tea.Cmd{msg.model.Init()}
		if m.width > 0 || m.height > 0 {
			w, h := m.width, m.height
			cmds = append(cmds, func() tea.Msg {
				return tea.WindowSizeMsg{Width: w, Height: h}
			})
		}
		return msg.model, tea.Batch(cmds...)

	case tea.KeyMsg:
		if m.phase == phaseFailed || key.Matches(msg, startupQuit) {
			return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
		}
	}
	return m, nil
}

func (m startupModel) View() string {
	lines := []string{startupHeaderStyle.Render("polarviz"), ""}
	if m.phase == phaseFailed {
		lines = append(lines,
			startupErrorStyle.Render(m.errMsg),
			"",
			startupHelpStyle.Render("press any key to exit"),
		)
	} else {
		lines = append(lines,
			m.spinner.View()+" "+startupStatusStyle.Render("Opening audio..."),
			"",
			startupHelpStyle.Render(startupQuit.Help().Key+" quit"),
		)
	}
	return startupFrame.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

var startupQuit = key.NewBinding(
	key.WithKeys("q", "esc", "ctrl+c"),
	key.WithHelp("q", "quit"),
)

var (
	startupFrame       = lipgloss.NewStyle().Padding(1, 2)
	startupHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#3C3C3C", Dark: "#9A9A9A"})
	startupStatusStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#4A4A4A", Dark: "#C8C8C8"})
	startupHelpStyle   = lipgloss.NewStyle().Faint(true)
	startupErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B00020", Dark: "#FF7A7A"})
)
