package main

import (
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/olivier-w/polarviz/internal/config"
	"github.com/olivier-w/polarviz/internal/ui"
)

func noOpen() (ui.Model, error) { return ui.Model{}, nil }

func TestStartupModelOpensOnInit(t *testing.T) {
	called := false
	m := newStartupModel(func() (ui.Model, error) {
		called = true
		return ui.Model{}, errBoom{}
	})
	if m.Init() == nil {
		t.Fatal("expected init command")
	}
	msg, ok := openCmd(m.open)().(startupResolvedMsg)
	if !ok {
		t.Fatal("expected startupResolvedMsg")
	}
	if !called || msg.err == nil {
		t.Fatalf("expected open to run and fail, got called %v err %v", called, msg.err)
	}
}

func TestStartupModelErrorShowsFailure(t *testing.T) {
	m := newStartupModel(noOpen)

	model, cmd := m.Update(startupResolvedMsg{err: errBoom{}})
	if cmd != nil {
		t.Fatal("expected no command on error")
	}
	startup := model.(startupModel)
	if startup.phase != phaseFailed {
		t.Fatalf("expected phaseFailed, got %v", startup.phase)
	}
	if startup.errMsg != "boom" {
		t.Fatalf("expected error message, got %q", startup.errMsg)
	}

	_, cmd = startup.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected any key to quit after a failure")
	}
}

func TestStartupModelHandsOverWithSize(t *testing.T) {
	m := newStartupModel(noOpen)
	model, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = model.(startupModel)

	model, cmd := m.Update(startupResolvedMsg{model: ui.New(ui.Options{})})
	if _, ok := model.(ui.Model); !ok {
		t.Fatalf("expected ui.Model after resolve, got %T", model)
	}
	if cmd == nil {
		t.Fatal("expected init and resize commands")
	}
}

func TestStartupModelIgnoresKeysWhileOpening(t *testing.T) {
	m := newStartupModel(noOpen)
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}}); cmd != nil {
		t.Fatal("expected no command for an unrelated key")
	}
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}); cmd == nil {
		t.Fatal("expected q to quit")
	}
}

func TestStartupModelStopsSpinnerAfterFailure(t *testing.T) {
	m := newStartupModel(noOpen)
	m.phase = phaseFailed
	if _, cmd := m.Update(spinner.TickMsg{}); cmd != nil {
		t.Fatal("expected spinner to stop")
	}
}

func TestLoadConfigFlagsOverrideDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	o, fs, err := parseFlags([]string{"--variant", "pulse", "--fps", "30", "--no-slideshow", "song.wav"})
	if err != nil {
		t.Fatalf("parseFlags returned error: %v", err)
	}
	cfg, err := loadConfig(o, fs, func(string) string { return "" })
	if err != nil {
		t.Fatalf("loadConfig returned error: %v", err)
	}
	if cfg.Visual.Variant != config.VariantPulse || cfg.Visual.FPS != 30 {
		t.Fatalf("expected flag overrides, got %+v", cfg.Visual)
	}
	if cfg.Slideshow.Enabled {
		t.Fatal("expected slideshow disabled")
	}
	if cfg.Audio.Source != config.SourceFile || cfg.Audio.File != "song.wav" {
		t.Fatalf("expected positional file source, got %+v", cfg.Audio)
	}
}

func TestLoadConfigEnvBeforeFlags(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	env := map[string]string{"POLARVIZ_VARIANT": "pulse", "POLARVIZ_FPS": "24"}
	o, fs, err := parseFlags([]string{"--fps", "50", "--demo"})
	if err != nil {
		t.Fatalf("parseFlags returned error: %v", err)
	}
	cfg, err := loadConfig(o, fs, func(k string) string { return env[k] })
	if err != nil {
		t.Fatalf("loadConfig returned error: %v", err)
	}
	if cfg.Visual.Variant != config.VariantPulse {
		t.Fatalf("expected env variant, got %q", cfg.Visual.Variant)
	}
	if cfg.Visual.FPS != 50 {
		t.Fatalf("expected flag fps to win, got %d", cfg.Visual.FPS)
	}
	if cfg.Audio.Source != config.SourceDemo {
		t.Fatalf("expected demo source, got %q", cfg.Audio.Source)
	}
}

func TestLoadConfigRejectsBadInput(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	for _, args := range [][]string{
		{"--variant", "spiral"},
		{"song.aac"},
		{"--fps", "0"},
	} {
		o, fs, err := parseFlags(args)
		if err != nil {
			t.Fatalf("parseFlags(%v) returned error: %v", args, err)
		}
		if _, err := loadConfig(o, fs, func(string) string { return "" }); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }
