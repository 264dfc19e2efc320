package slideshow

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Clock is the time source of the controller.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock is the wall clock.
var RealClock Clock = realClock{}

// Timing is the slideshow schedule.
type Timing struct {
	Hold     time.Duration // a shown slot before the other is prepared
	Hidden   time.Duration // a prepared slot waits invisible this long
	Fade     time.Duration
	RetryMin time.Duration
	RetryMax time.Duration
}

// DefaultTiming is the 10s/50s schedule with a 3s fade.
func DefaultTiming() Timing {
	return Timing{
		Hold:     10 * time.Second,
		Hidden:   50 * time.Second,
		Fade:     3 * time.Second,
		RetryMin: 5 * time.Second,
		RetryMax: 5 * time.Minute,
	}
}

// Controller alternates two slots: Show fades the current slot in, Prepare
// loads the next frame into the other slot invisibly above it. The z order
// increases at every Prepare and never wraps in practice.
type Controller struct {
	src    Source
	board  *Board
	clock  Clock
	timing Timing

	phase   Phase
	slot    int
	z       uint64
	backoff time.Duration
}

// NewController creates a controller writing to board. A nil clock uses the
// wall clock.
func NewController(src Source, board *Board, clock Clock, timing Timing) *Controller {
	if clock == nil {
		clock = RealClock
	}
	return &Controller{src: src, board: board, clock: clock, timing: timing}
}

// Phase returns the step that runs next.
func (c *Controller) Phase() Phase { return c.phase }

// Z returns the current z order counter.
func (c *Controller) Z() uint64 { return c.z }

// Step runs one phase and returns how long to wait before the next. On a
// fetch error the phase is kept and the wait is the retry backoff.
func (c *Controller) Step(ctx context.Context) (time.Duration, error) {
	switch c.phase {
	case PhaseIdle:
		f, err := c.src.Next(ctx)
		if err != nil {
			return c.fail(fmt.Errorf("fetching first photo: %w", err))
		}
		c.ok()
		c.slot = 0
		c.board.setSlot(0, SlotStyle{Frame: f, Z: c.z, Loaded: true}, false)
		c.phase = PhaseShow
		return 0, nil

	case PhaseShow:
		s := c.board.Snapshot().Slots[c.slot]
		s.Opacity = 1
		s.FadeIn = true
		s.Fade = c.timing.Fade
		s.Since = c.clock.Now()
		s.Z = c.z
		c.board.setSlot(c.slot, s, true)
		c.phase = PhasePrepare
		return c.timing.Hold, nil

	case PhasePrepare:
		f, err := c.src.Next(ctx)
		if err != nil {
			return c.fail(fmt.Errorf("fetching next photo: %w", err))
		}
		c.ok()
		next := 1 - c.slot
		c.z++
		c.board.setSlot(next, SlotStyle{Frame: f, Z: c.z, Loaded: true}, false)
		c.slot = next
		c.phase = PhaseShow
		return c.timing.Hidden, nil
	}
	return 0, fmt.Errorf("slideshow: unknown phase %d", c.phase)
}

// Run steps the controller until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	log.Printf("slideshow: started")
	defer log.Printf("slideshow: stopped")
	for {
		wait, err := c.Step(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("slideshow: %v (retry in %s)", err, wait)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.clock.After(wait):
		}
	}
}

func (c *Controller) fail(err error) (time.Duration, error) {
	switch {
	case c.backoff <= 0:
		c.backoff = c.timing.RetryMin
	default:
		c.backoff *= 2
	}
	if c.timing.RetryMax > 0 && c.backoff > c.timing.RetryMax {
		c.backoff = c.timing.RetryMax
	}
	c.board.setErr(err)
	return c.backoff, err
}

func (c *Controller) ok() {
	c.backoff = 0
	c.board.setErr(nil)
}
