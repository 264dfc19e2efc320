// Package capture feeds live or synthetic audio into the visualizer.
package capture

import "errors"

// ErrUnavailable wraps every failure to open an input device.
var ErrUnavailable = errors.New("audio capture unavailable")

// Sink receives mono samples in [-1, 1].
type Sink interface {
	WriteMono(samples []float32)
}

// Source is a running audio input.
type Source interface {
	Name() string
	Start(sink Sink) error
	Close() error
}

const defaultFramesPerBuffer = 1024
