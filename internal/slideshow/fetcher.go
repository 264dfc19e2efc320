package slideshow

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"sync"

	"github.com/olivier-w/polarviz/internal/unsplash"
)

// PhotoAPI is the part of the photo API the fetcher calls.
type PhotoAPI interface {
	Topic(ctx context.Context, slug string) (unsplash.Topic, error)
	RandomPhotos(ctx context.Context, q unsplash.RandomQuery) ([]unsplash.Photo, error)
}

// PhotoFetcher turns random photo batches into frames sized for a viewport.
type PhotoFetcher struct {
	api    PhotoAPI
	slug   string
	width  int
	height int

	mu      sync.Mutex
	topicID string
}

// NewPhotoFetcher creates a fetcher. When topicID is empty, it is resolved
// from slug on the first fetch and reused afterwards.
func NewPhotoFetcher(api PhotoAPI, topicID, slug string, width, height int) *PhotoFetcher {
	return &PhotoFetcher{
		api:     api,
		slug:    slug,
		width:   width,
		height:  height,
		topicID: topicID,
	}
}

// Fetch implements Fetcher.
func (f *PhotoFetcher) Fetch(ctx context.Context, n int) ([]Frame, error) {
	topic, err := f.topic(ctx)
	if err != nil {
		return nil, err
	}

	photos, err := f.api.RandomPhotos(ctx, unsplash.RandomQuery{
		TopicID:       topic,
		Orientation:   "landscape",
		ContentFilter: "high",
		Count:         n,
	})
	if err != nil {
		return nil, err
	}

	frames := make([]Frame, 0, len(photos))
	for _, p := range photos {
		if p.URLs.Raw == "" {
			continue
		}
		frames = append(frames, Frame{
			ID:       p.ID,
			ImageURL: ImageURL(p.URLs.Raw, f.width, f.height),
			Photographer: Photographer{
				Name:      p.User.Name,
				Username:  p.User.Username,
				AvatarURL: p.User.ProfileImage.Medium,
			},
		})
	}
	log.Printf("slideshow: fetched %d photos (topic %s)", len(frames), topic)
	return frames, nil
}

// TopicID returns the resolved topic, or "" before resolution.
func (f *PhotoFetcher) TopicID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.topicID
}

func (f *PhotoFetcher) topic(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.topicID != "" || f.slug == "" {
		return f.topicID, nil
	}
	t, err := f.api.Topic(ctx, f.slug)
	if err != nil {
		return "", fmt.Errorf("resolving topic: %w", err)
	}
	log.Printf("slideshow: topic %q resolved to %s", f.slug, t.ID)
	f.topicID = t.ID
	return f.topicID, nil
}

// ImageURL sizes a raw image URL for a width x height viewport, cropped
// and re-encoded as JPEG. Existing query parameters are kept.
func ImageURL(raw string, width, height int) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if width > 0 {
		q.Set("w", strconv.Itoa(width))
	}
	if height > 0 {
		q.Set("h", strconv.Itoa(height))
	}
	q.Set("fit", "crop")
	q.Set("fm", "jpg")
	u.RawQuery = q.Encode()
	return u.String()
}
