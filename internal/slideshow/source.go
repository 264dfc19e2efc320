// Package slideshow drives the two-slot background crossfade and the
// endless photo source behind it.
package slideshow

import (
	"context"
	"errors"
)

// DefaultBatchSize is how many photos are requested per fetch.
const DefaultBatchSize = 30

// ErrEmptyBatch is returned when the fetcher succeeds with no frames.
var ErrEmptyBatch = errors.New("slideshow: fetch returned no photos")

// Photographer credits a background photo.
type Photographer struct {
	Name      string
	Username  string
	AvatarURL string
}

// Frame is one background photo.
type Frame struct {
	ID           string
	ImageURL     string
	Photographer Photographer
}

// Source yields frames one at a time, forever.
type Source interface {
	Next(ctx context.Context) (Frame, error)
}

// Fetcher retrieves a batch of up to n frames.
type Fetcher interface {
	Fetch(ctx context.Context, n int) ([]Frame, error)
}

// Cursor is a Source over repeated Fetcher batches. Callers only see a
// flat sequence; a new batch is fetched when the current one runs out.
// A Cursor is not safe for concurrent use.
type Cursor struct {
	fetcher Fetcher
	size    int
	batch   []Frame
	next    int
}

// NewCursor returns a cursor fetching batches of size frames.
func NewCursor(f Fetcher, size int) *Cursor {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return &Cursor{fetcher: f, size: size}
}

// Next returns the next frame. A failed fetch leaves the cursor unchanged,
// so the following call retries the same fetch.
func (c *Cursor) Next(ctx context.Context) (Frame, error) {
	if c.next >= len(c.batch) {
		batch, err := c.fetcher.Fetch(ctx, c.size)
		if err != nil {
			return Frame{}, err
		}
		if len(batch) == 0 {
			return Frame{}, ErrEmptyBatch
		}
		c.batch = batch
		c.next = 0
	}
	f := c.batch[c.next]
	c.next++
	return f, nil
}

// Buffered reports how many frames remain before the next fetch.
func (c *Cursor) Buffered() int {
	return len(c.batch) - c.next
}
