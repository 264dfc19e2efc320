package player

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

const (
	channelCount  = 2
	bytesPerFrame = channelCount * 2
	otoBuffer     = 40 * time.Millisecond
)

// Tap receives a copy of every PCM chunk handed to the audio device.
type Tap interface {
	Write(p []byte)
}

// tapReader feeds the device from the decoder, mirrors the bytes into the
// tap and optionally reopens the file at EOF.
type tapReader struct {
	mu   sync.Mutex
	open func() (*os.File, pcmDecoder, error)
	file *os.File
	dec  pcmDecoder
	tap  Tap
	loop bool
	pos  int64
	eof  bool
}

func (r *tapReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.eof {
		return 0, io.EOF
	}

	p = p[:len(p)-len(p)%bytesPerFrame]
	n, err := r.dec.Read(p)
	if n > 0 {
		if r.tap != nil {
			r.tap.Write(p[:n])
		}
		r.pos += int64(n)
	}
	if errors.Is(err, io.EOF) {
		if r.loop && r.rewind() == nil {
			return n, nil
		}
		r.eof = true
		return n, io.EOF
	}
	return n, err
}

func (r *tapReader) rewind() error {
	f, dec, err := r.open()
	if err != nil {
		log.Printf("player: reopening for loop: %v", err)
		return err
	}
	r.file.Close()
	r.file = f
	r.dec = dec
	r.pos = 0
	return nil
}

func (r *tapReader) state() (pos int64, eof bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pos, r.eof
}

func (r *tapReader) close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.eof = true
	return r.file.Close()
}

// Player plays one local audio file as 16-bit stereo and taps what it plays.
type Player struct {
	path      string
	meta      Metadata
	rate      int
	duration  time.Duration
	reader    *tapReader
	otoPlayer *oto.Player
	volume    float64
	paused    bool
	done      chan struct{}
	mu        sync.Mutex
	closed    bool
}

var (
	globalOtoCtx *oto.Context
	otoRate      int
	otoOnce      sync.Once
	otoInitErr   error
)

// initOto creates the process-wide device context. oto allows only one, so
// every later file must share the first file's sample rate.
func initOto(rate int) (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   rate,
			ChannelCount: channelCount,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   otoBuffer,
		}
		var ready chan struct{}
		globalOtoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr == nil {
			<-ready
			otoRate = rate
		}
	})
	if otoInitErr != nil {
		return nil, otoInitErr
	}
	if rate != otoRate {
		return nil, fmt.Errorf("sample rate %d differs from open device rate %d", rate, otoRate)
	}
	return globalOtoCtx, nil
}

func openFile(path string) (*os.File, pcmDecoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	dec, err := openDecoder(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return f, toStereo(dec), nil
}

// New starts playing path. tap may be nil. When loop is set, playback
// restarts from the beginning at the end of the file.
func New(path string, tap Tap, loop bool) (*Player, error) {
	f, dec, err := openFile(path)
	if err != nil {
		return nil, err
	}

	ctx, err := initOto(dec.SampleRate())
	if err != nil {
		f.Close()
		return nil, err
	}

	r := &tapReader{
		open: func() (*os.File, pcmDecoder, error) { return openFile(path) },
		file: f,
		dec:  dec,
		tap:  tap,
		loop: loop,
	}

	rate := dec.SampleRate()
	p := &Player{
		path:     path,
		meta:     ReadMetadata(path),
		rate:     rate,
		duration: time.Duration(float64(dec.Length()) / float64(rate*bytesPerFrame) * float64(time.Second)),
		reader:   r,
		volume:   0.8,
		done:     make(chan struct{}),
	}

	p.otoPlayer = ctx.NewPlayer(r)
	p.otoPlayer.SetVolume(p.volume)
	p.otoPlayer.Play()
	log.Printf("player: playing %s at %d Hz", path, rate)

	go p.monitor()
	return p, nil
}

func (p *Player) monitor() {
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return
		}
		_, eof := p.reader.state()
		playing := p.otoPlayer.IsPlaying()
		paused := p.paused
		p.mu.Unlock()

		if eof && !playing && !paused {
			close(p.done)
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
}

// Done closes when playback reaches the end of a non-looping file.
func (p *Player) Done() <-chan struct{} {
	return p.done
}

// SampleRate is the rate of the PCM written to the tap.
func (p *Player) SampleRate() int { return p.rate }

// Metadata describes the file being played.
func (p *Player) Metadata() Metadata { return p.meta }

// Position returns how far into the file the decoder has read.
func (p *Player) Position() time.Duration {
	pos, _ := p.reader.state()
	return time.Duration(float64(pos) / float64(p.rate*bytesPerFrame) * float64(time.Second))
}

// Duration returns the file length, or 0 when the decoder cannot tell.
func (p *Player) Duration() time.Duration { return p.duration }

// TogglePause toggles between play and pause.
func (p *Player) TogglePause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	if p.paused {
		p.otoPlayer.Play()
	} else {
		p.otoPlayer.Pause()
	}
	p.paused = !p.paused
}

// Paused reports whether playback is paused.
func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// SetVolume sets volume, clamped to [0, 1].
func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = min(max(v, 0), 1)
	p.otoPlayer.SetVolume(p.volume)
}

// Volume returns the current volume.
func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// Close stops playback and releases the file.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.otoPlayer.Pause()
	if err := p.otoPlayer.Close(); err != nil {
		log.Printf("player: closing device player: %v", err)
	}
	return p.reader.close()
}
