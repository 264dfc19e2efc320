package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit     key.Binding
	Variant  key.Binding
	Snapshot key.Binding
	Backdrop key.Binding
	Pause    key.Binding
	VolUp    key.Binding
	VolDown  key.Binding
	Help     key.Binding
}

func newKeyMap(canPause bool) keyMap {
	k := keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Variant: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "variant"),
		),
		Snapshot: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "snapshot"),
		),
		Backdrop: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "backdrop"),
		),
		Pause: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "pause"),
		),
		VolUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "vol up"),
		),
		VolDown: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "vol down"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more"),
		),
	}
	k.Pause.SetEnabled(canPause)
	k.VolUp.SetEnabled(canPause)
	k.VolDown.SetEnabled(canPause)
	return k
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Variant, k.Snapshot, k.Pause, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Variant, k.Backdrop, k.Snapshot},
		{k.Pause, k.VolUp, k.VolDown},
		{k.Help, k.Quit},
	}
}
