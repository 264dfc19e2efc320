package slideshow

import (
	"sync"
	"time"
)

// Phase is the controller step that runs next.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseShow
	PhasePrepare
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseShow:
		return "show"
	case PhasePrepare:
		return "prepare"
	default:
		return "unknown"
	}
}

// SlotStyle is the display state of one background slot.
type SlotStyle struct {
	Frame   Frame
	Opacity float64 // target opacity, 0 or 1
	FadeIn  bool    // ramp from 0 to Opacity starting at Since
	Fade    time.Duration
	Since   time.Time
	Z       uint64
	Loaded  bool // a frame has been assigned
}

// OpacityAt is the displayed opacity at now.
func (s SlotStyle) OpacityAt(now time.Time) float64 {
	if !s.Loaded || s.Opacity <= 0 {
		return 0
	}
	if !s.FadeIn || s.Fade <= 0 {
		return s.Opacity
	}
	elapsed := now.Sub(s.Since)
	if elapsed <= 0 {
		return 0
	}
	if elapsed >= s.Fade {
		return s.Opacity
	}
	return s.Opacity * float64(elapsed) / float64(s.Fade)
}

// BoardState is an immutable copy of the board.
type BoardState struct {
	Slots   [2]SlotStyle
	Active  int // slot most recently shown
	Err     error
	Version uint64
}

// Top returns the slot currently painted above the other.
func (b BoardState) Top() int {
	if b.Slots[1].Loaded && (!b.Slots[0].Loaded || b.Slots[1].Z > b.Slots[0].Z) {
		return 1
	}
	return 0
}

// Credit is the photographer of the visible photo, if any.
func (b BoardState) Credit() (Photographer, bool) {
	s := b.Slots[b.Active]
	if !s.Loaded || s.Opacity == 0 {
		return Photographer{}, false
	}
	return s.Frame.Photographer, true
}

// Board is the slideshow's shared display state. The controller is the only
// writer; readers take snapshots.
type Board struct {
	mu    sync.RWMutex
	state BoardState
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{}
}

// Snapshot returns the current state.
func (b *Board) Snapshot() BoardState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

func (b *Board) setSlot(i int, s SlotStyle, active bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.Slots[i] = s
	if active {
		b.state.Active = i
	}
	b.state.Version++
}

func (b *Board) setErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state.Err == nil && err == nil {
		return
	}
	b.state.Err = err
	b.state.Version++
}
