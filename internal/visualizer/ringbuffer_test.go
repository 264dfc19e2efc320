package visualizer

import (
	"encoding/binary"
	"testing"
)

func TestRingBufferReturnsMostRecentFrames(t *testing.T) {
	rb := NewRingBuffer(4)
	for i := range 6 {
		frame := make([]byte, 4)
		binary.LittleEndian.PutUint16(frame, uint16(i))
		binary.LittleEndian.PutUint16(frame[2:], uint16(100+i))
		rb.Write(frame)
	}

	got := rb.Samples(3)
	want := []int16{3, 103, 4, 104, 5, 105}
	if len(got) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d: expected %d, got %d", i, want[i], got[i])
		}
	}

	if got := rb.Samples(10); len(got) != 8 {
		t.Fatalf("expected capped read of 8 samples, got %d", len(got))
	}
}

func TestRingBufferWriteMonoDuplicatesChannels(t *testing.T) {
	rb := NewRingBuffer(8)
	rb.WriteMono([]float32{0.5, -1, 2})

	got := rb.Samples(3)
	want := []int16{16384, 16384, -32767, -32767, 32767, 32767}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestRingBufferClear(t *testing.T) {
	rb := NewRingBuffer(8)
	rb.WriteMono([]float32{0.1, 0.2})
	rb.Clear()
	if got := rb.Samples(2); got != nil {
		t.Fatalf("expected no samples after clear, got %v", got)
	}
}
