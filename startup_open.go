package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/olivier-w/polarviz/internal/backdrop"
	"github.com/olivier-w/polarviz/internal/capture"
	"github.com/olivier-w/polarviz/internal/config"
	"github.com/olivier-w/polarviz/internal/player"
	"github.com/olivier-w/polarviz/internal/slideshow"
	"github.com/olivier-w/polarviz/internal/ui"
	"github.com/olivier-w/polarviz/internal/unsplash"
	"github.com/olivier-w/polarviz/internal/visualizer"
)

// session is everything opened for one run.
type session struct {
	model    ui.Model
	source   capture.Source
	playback *player.Player
	cancel   context.CancelFunc
}

// input is the opened audio side of a session.
type input struct {
	name     string
	rate     int
	source   capture.Source
	playback *player.Player
	err      error
}

// openInput starts the configured audio source writing into ring. A live
// capture failure is reported in input.err and does not stop the program;
// a file that cannot be played does.
func openInput(cfg *config.Config, ring *visualizer.RingBuffer) (input, error) {
	in := input{rate: cfg.Audio.SampleRate}
	switch cfg.Audio.Source {
	case config.SourceFile:
		p, err := player.New(cfg.Audio.File, ring, cfg.Audio.Loop)
		if err != nil {
			return in, fmt.Errorf("opening %s: %w", cfg.Audio.File, err)
		}
		in.playback = p
		in.rate = p.SampleRate()
		in.name = p.Metadata().String()
		return in, nil

	case config.SourceDemo:
		in.source = capture.NewDemo(in.rate, uint64(time.Now().UnixNano()))

	default:
		in.source = capture.NewMic(cfg.Audio.Device, in.rate)
	}

	if err := in.source.Start(ring); err != nil {
		log.Printf("capture: %v", err)
		in.err = err
		in.source.Close()
		in.source = nil
		return in, nil
	}
	in.name = in.source.Name()
	return in, nil
}

// openSession builds the whole visualizer from cfg. Background work stops
// when ctx is cancelled or the returned session's cancel is called.
func openSession(ctx context.Context, cfg *config.Config) (*session, error) {
	ring := visualizer.NewRingBuffer(cfg.Audio.TransformSize * 2)
	in, err := openInput(cfg, ring)
	if err != nil {
		return nil, err
	}

	pipeline, err := visualizer.NewPipeline(ring, visualizer.PipelineConfig{
		SampleRate:    in.rate,
		TransformSize: cfg.Audio.TransformSize,
		Slices:        cfg.Visual.Slices,
		MaxFrequency:  cfg.Visual.MaxFrequency,
		MaxJumpHeight: cfg.Visual.MaxJumpHeight,
		RotationStep:  cfg.Visual.RotationStep,
		HistoryWindow: cfg.Visual.HistoryWindow,
	})
	if err != nil {
		closeInput(in)
		return nil, fmt.Errorf("building pipeline: %w", err)
	}

	canvas := visualizer.NewCanvas()
	if cfg.Visual.Spring {
		canvas.SmoothDisk(cfg.Visual.FPS)
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &session{source: in.source, playback: in.playback, cancel: cancel}
	opts := ui.Options{
		Pulse:       cfg.Visual.Variant == config.VariantPulse,
		FPS:         cfg.Visual.FPS,
		Pipeline:    pipeline,
		Canvas:      canvas,
		InputName:   in.name,
		CaptureErr:  in.err,
		SnapshotDir: cfg.Visual.SnapshotDir,
		Context:     ctx,
		Cancel:      s.close,
	}
	if in.playback != nil {
		opts.Playback = in.playback
	}

	if cfg.Slideshow.Enabled {
		opts.Board, opts.Loader, opts.Compositor = startSlideshow(ctx, cfg)
	}

	s.model = ui.New(opts)
	return s, nil
}

// startSlideshow runs the photo controller in the background and returns
// what the UI reads from it.
func startSlideshow(ctx context.Context, cfg *config.Config) (*slideshow.Board, *backdrop.Loader, *backdrop.Compositor) {
	sc := cfg.Slideshow
	client := unsplash.New(sc.APIURL, sc.Authorization)
	id, slug := cfg.Topic()
	fetcher := slideshow.NewPhotoFetcher(client, id, slug, sc.Width, sc.Height)

	timing := slideshow.DefaultTiming()
	timing.Hold = sc.Hold
	timing.Hidden = sc.Hidden
	timing.Fade = sc.Fade

	board := slideshow.NewBoard()
	controller := slideshow.NewController(slideshow.NewCursor(fetcher, sc.BatchSize), board, nil, timing)
	go func() {
		if err := controller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("slideshow: stopped: %v", err)
		}
	}()

	loader := backdrop.NewLoader(nil)
	compositor := backdrop.NewCompositor(loader)
	compositor.SetDim(sc.Dim)
	return board, loader, compositor
}

// close stops background work and capture. The UI calls it on quit and
// closes playback itself.
func (s *session) close() {
	s.cancel()
	if s.source != nil {
		if err := s.source.Close(); err != nil {
			log.Printf("capture: close: %v", err)
		}
	}
}

// shutdown releases everything, for when the program exits without the UI
// quitting normally.
func (s *session) shutdown() {
	s.close()
	if s.playback != nil {
		s.playback.Close()
	}
}

func closeInput(in input) {
	if in.source != nil {
		in.source.Close()
	}
	if in.playback != nil {
		in.playback.Close()
	}
}
