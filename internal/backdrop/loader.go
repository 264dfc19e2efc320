// Package backdrop downloads slideshow photos and composites the two
// slideshow slots into a background image.
package backdrop

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	_ "golang.org/x/image/webp"
)

const (
	loadTimeout  = 30 * time.Second
	maxImageSize = 32 << 20
)

// Loader fetches and decodes images in the background and keeps them until
// they are no longer retained.
type Loader struct {
	client *http.Client

	mu      sync.Mutex
	images  map[string]image.Image
	pending map[string]struct{}
	errs    map[string]error
	wg      sync.WaitGroup
}

// NewLoader returns a loader using client, or a default client when nil.
func NewLoader(client *http.Client) *Loader {
	if client == nil {
		client = &http.Client{Timeout: loadTimeout}
	}
	return &Loader{
		client:  client,
		images:  make(map[string]image.Image),
		pending: make(map[string]struct{}),
		errs:    make(map[string]error),
	}
}

// Request starts loading url unless it is loaded, loading, or failed.
func (l *Loader) Request(ctx context.Context, url string) {
	if url == "" {
		return
	}
	l.mu.Lock()
	if _, ok := l.images[url]; ok {
		l.mu.Unlock()
		return
	}
	if _, ok := l.pending[url]; ok {
		l.mu.Unlock()
		return
	}
	if _, ok := l.errs[url]; ok {
		l.mu.Unlock()
		return
	}
	l.pending[url] = struct{}{}
	l.wg.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.wg.Done()
		img, err := l.Load(ctx, url)

		l.mu.Lock()
		defer l.mu.Unlock()
		if _, ok := l.pending[url]; !ok {
			// Released while loading.
			return
		}
		delete(l.pending, url)
		if err != nil {
			log.Printf("backdrop: %v", err)
			l.errs[url] = err
			return
		}
		l.images[url] = img
	}()
}

// Load fetches and decodes url synchronously.
func (l *Loader) Load(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", url, err)
	}
	req.Header.Set("User-Agent", "polarviz")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("loading %s: HTTP %d", url, resp.StatusCode)
	}

	img, format, err := image.Decode(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", url, err)
	}
	b := img.Bounds()
	log.Printf("backdrop: loaded %s image %dx%d", format, b.Dx(), b.Dy())
	return img, nil
}

// Image returns the decoded image for url if it has finished loading.
func (l *Loader) Image(url string) (image.Image, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	img, ok := l.images[url]
	return img, ok
}

// Err returns the load error for url, if any.
func (l *Loader) Err(url string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.errs[url]
}

// Retain forgets every image, pending load, and error not in urls.
func (l *Loader) Retain(urls ...string) {
	keep := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		keep[u] = struct{}{}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for u := range l.images {
		if _, ok := keep[u]; !ok {
			delete(l.images, u)
		}
	}
	for u := range l.pending {
		if _, ok := keep[u]; !ok {
			delete(l.pending, u)
		}
	}
	for u := range l.errs {
		if _, ok := keep[u]; !ok {
			delete(l.errs, u)
		}
	}
}

// Wait blocks until all started loads finish.
func (l *Loader) Wait() {
	l.wg.Wait()
}
