package visualizer

import (
	"encoding/binary"
	"math"
	"sync"
)

// Captured audio is stored as interleaved stereo signed 16-bit little-endian
// PCM, the same format the player hands to oto.
const bytesPerFrame = 4

// RingBuffer is a thread-safe circular PCM buffer. Capture goroutines push
// into it and the render loop pulls the most recent frames once per tick.
type RingBuffer struct {
	mu   sync.Mutex
	buf  []byte
	size int
	w    int // write position
	fill int
}

// NewRingBuffer creates a ring buffer holding up to frames stereo frames.
func NewRingBuffer(frames int) *RingBuffer {
	size := frames * bytesPerFrame
	return &RingBuffer{
		buf:  make([]byte, size),
		size: size,
	}
}

// Write appends raw PCM bytes, overwriting the oldest data when full.
func (rb *RingBuffer) Write(p []byte) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.write(p)
}

func (rb *RingBuffer) write(p []byte) {
	if len(p) > rb.size {
		p = p[len(p)-rb.size:]
	}
	for _, b := range p {
		rb.buf[rb.w] = b
		rb.w = (rb.w + 1) % rb.size
	}
	rb.fill += len(p)
	if rb.fill > rb.size {
		rb.fill = rb.size
	}
}

// WriteMono converts mono float samples in [-1, 1] to stereo PCM and appends them.
func (rb *RingBuffer) WriteMono(samples []float32) {
	raw := make([]byte, len(samples)*bytesPerFrame)
	for i, s := range samples {
		v := uint16(floatToInt16(s))
		binary.LittleEndian.PutUint16(raw[i*4:], v)
		binary.LittleEndian.PutUint16(raw[i*4+2:], v)
	}
	rb.mu.Lock()
	rb.write(raw)
	rb.mu.Unlock()
}

// Samples returns up to frames most recent stereo frames as interleaved int16.
func (rb *RingBuffer) Samples(frames int) []int16 {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := frames * bytesPerFrame
	if n > rb.fill {
		n = rb.fill - rb.fill%bytesPerFrame
	}
	if n <= 0 {
		return nil
	}

	out := make([]int16, n/2)
	start := (rb.w - n + rb.size) % rb.size
	for i := range out {
		lo := rb.buf[(start+2*i)%rb.size]
		hi := rb.buf[(start+2*i+1)%rb.size]
		out[i] = int16(uint16(lo) | uint16(hi)<<8)
	}
	return out
}

// Clear drops everything buffered so far.
func (rb *RingBuffer) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.w = 0
	rb.fill = 0
}

func floatToInt16(s float32) int16 {
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	return int16(math.Round(float64(s) * 32767))
}
