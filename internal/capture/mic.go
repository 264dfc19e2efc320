package capture

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// Mic captures mono float32 audio from a PortAudio input device. The raw
// device signal is used as is.
type Mic struct {
	device     string
	sampleRate float64
	frames     int

	mu      sync.Mutex
	name    string
	stream  *portaudio.Stream
	buf     []float32
	done    chan struct{}
	wg      sync.WaitGroup
	readErr error
}

// NewMic returns a microphone source. device selects an input by 1-based
// index or name prefix; empty uses the default input.
func NewMic(device string, sampleRate int) *Mic {
	return &Mic{
		device:     device,
		sampleRate: float64(sampleRate),
		frames:     defaultFramesPerBuffer,
		name:       "microphone",
	}
}

// Name describes the opened device.
func (m *Mic) Name() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.name
}

// Start opens the device and begins pushing samples into sink.
func (m *Mic) Start(sink Sink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stream != nil {
		return errors.New("microphone already started")
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("%w: initializing portaudio: %v", ErrUnavailable, err)
	}
	info, err := findInput(m.device)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	p := portaudio.LowLatencyParameters(info, nil)
	p.Input.Channels = 1
	p.Output.Channels = 0
	if m.sampleRate > 0 {
		p.SampleRate = m.sampleRate
	}
	p.FramesPerBuffer = m.frames

	buf := make([]float32, m.frames)
	stream, err := portaudio.OpenStream(p, buf)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("%w: opening %s: %v", ErrUnavailable, info.Name, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("%w: starting %s: %v", ErrUnavailable, info.Name, err)
	}

	m.name = info.Name
	m.stream = stream
	m.buf = buf
	m.done = make(chan struct{})
	m.readErr = nil
	log.Printf("capture: microphone %q at %.0f Hz", info.Name, p.SampleRate)

	m.wg.Add(1)
	go m.readLoop(stream, buf, sink, m.done)
	return nil
}

func (m *Mic) readLoop(stream *portaudio.Stream, buf []float32, sink Sink, done <-chan struct{}) {
	defer m.wg.Done()
	for {
		select {
		case <-done:
			return
		default:
		}
		if err := stream.Read(); err != nil {
			if errors.Is(err, portaudio.InputOverflowed) {
				continue
			}
			log.Printf("capture: read failed: %v", err)
			m.mu.Lock()
			m.readErr = err
			m.mu.Unlock()
			return
		}
		sink.WriteMono(buf)
	}
}

// Err returns the error that stopped capture, if any.
func (m *Mic) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readErr
}

// Close stops capture and releases PortAudio.
func (m *Mic) Close() error {
	m.mu.Lock()
	stream := m.stream
	done := m.done
	m.stream = nil
	m.mu.Unlock()
	if stream == nil {
		return nil
	}

	close(done)
	m.wg.Wait()

	var errs []error
	if err := stream.Stop(); err != nil {
		errs = append(errs, err)
	}
	if err := stream.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := portaudio.Terminate(); err != nil {
		errs = append(errs, err)
	}
	log.Printf("capture: microphone stopped")
	return errors.Join(errs...)
}

func findInput(device string) (*portaudio.DeviceInfo, error) {
	if device == "" {
		info, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("no default input device: %v", err)
		}
		return info, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("listing devices: %v", err)
	}
	inputs := make([]*portaudio.DeviceInfo, 0, len(devices))
	for _, d := range devices {
		if d.MaxInputChannels > 0 {
			inputs = append(inputs, d)
		}
	}
	if i, err := strconv.Atoi(device); err == nil && i > 0 && i <= len(inputs) {
		return inputs[i-1], nil
	}
	for _, d := range inputs {
		if strings.HasPrefix(d.Name, device) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("input device not found: %s", device)
}

// InputDevices lists input device names in selection order.
func InputDevices() ([]string, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: initializing portaudio: %v", ErrUnavailable, err)
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	var names []string
	for _, d := range devices {
		if d.MaxInputChannels > 0 {
			names = append(names, d.Name)
		}
	}
	return names, nil
}
