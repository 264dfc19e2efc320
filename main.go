package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/olivier-w/polarviz/internal/capture"
	"github.com/olivier-w/polarviz/internal/config"
	"github.com/olivier-w/polarviz/internal/player"
	"github.com/olivier-w/polarviz/internal/ui"
)

type options struct {
	configPath  string
	listDevices bool
	demo        bool
	noSlideshow bool

	variant     string
	source      string
	device      string
	file        string
	loop        bool
	fps         int
	snapshotDir string
}

func parseFlags(args []string) (options, *flag.FlagSet, error) {
	var o options
	fs := flag.NewFlagSet("polarviz", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "path to a YAML config file")
	fs.BoolVar(&o.listDevices, "list-devices", false, "list audio input devices and exit")
	fs.BoolVar(&o.demo, "demo", false, "use the synthetic demo signal instead of a microphone")
	fs.BoolVar(&o.noSlideshow, "no-slideshow", false, "disable the photo backdrop")
	fs.StringVar(&o.variant, "variant", "", "plot variant: classic or pulse")
	fs.StringVar(&o.source, "source", "", "audio source: mic, demo or file")
	fs.StringVar(&o.device, "device", "", "input device index or name prefix")
	fs.StringVar(&o.file, "file", "", "audio file to play and visualize ("+strings.Join(player.SupportedExtensions(), ", ")+")")
	fs.BoolVar(&o.loop, "loop", false, "restart the file when it ends")
	fs.IntVar(&o.fps, "fps", 0, "frames per second")
	fs.StringVar(&o.snapshotDir, "snapshot-dir", "", "directory for PNG snapshots")
	if err := fs.Parse(args); err != nil {
		return o, fs, err
	}
	if o.file == "" && fs.NArg() > 0 {
		o.file = fs.Arg(0)
	}
	return o, fs, nil
}

// loadConfig layers defaults, the config file, the environment and the
// command line, in that order.
func loadConfig(o options, fs *flag.FlagSet, getenv func(string) string) (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		if err := cfg.LoadFile(o.configPath); err != nil {
			return nil, err
		}
	} else if path, err := cfg.TryLoadDefault(); err != nil {
		return nil, err
	} else if path != "" {
		log.Printf("config: loaded %s", path)
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		return nil, err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["variant"] {
		cfg.Visual.Variant = strings.ToLower(o.variant)
	}
	if set["source"] {
		cfg.Audio.Source = strings.ToLower(o.source)
	}
	if set["device"] {
		cfg.Audio.Device = o.device
	}
	if o.file != "" {
		cfg.Audio.File = o.file
		if !set["source"] {
			cfg.Audio.Source = config.SourceFile
		}
	}
	if o.demo {
		cfg.Audio.Source = config.SourceDemo
	}
	if set["loop"] {
		cfg.Audio.Loop = o.loop
	}
	if set["fps"] {
		cfg.Visual.FPS = o.fps
	}
	if set["snapshot-dir"] {
		cfg.Visual.SnapshotDir = o.snapshotDir
	}
	if o.noSlideshow {
		cfg.Slideshow.Enabled = false
	}
	if cfg.Audio.Source == config.SourceFile && cfg.Audio.File != "" && !player.Supported(cfg.Audio.File) {
		return nil, fmt.Errorf("unsupported format %s (supported: %s)", cfg.Audio.File, strings.Join(player.SupportedExtensions(), ", "))
	}
	return cfg, cfg.Validate()
}

func main() {
	if os.Getenv("POLARVIZ_DEBUG") != "" {
		f, err := tea.LogToFile("polarviz-debug.log", "polarviz")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	o, fs, err := parseFlags(os.Args[1:])
	if err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if o.listDevices {
		names, err := capture.InputDevices()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		for i, name := range names {
			fmt.Printf("%d  %s\n", i+1, name)
		}
		return
	}

	cfg, err := loadConfig(o, fs, os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		mu   sync.Mutex
		sess *session
	)
	open := func() (ui.Model, error) {
		s, err := openSession(ctx, cfg)
		if err != nil {
			return ui.Model{}, err
		}
		mu.Lock()
		sess = s
		mu.Unlock()
		return s.model, nil
	}

	program := tea.NewProgram(newStartupModel(open), tea.WithAltScreen(), tea.WithContext(ctx))
	_, runErr := program.Run()
	mu.Lock()
	if sess != nil {
		sess.shutdown()
	}
	mu.Unlock()
	if runErr != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}
