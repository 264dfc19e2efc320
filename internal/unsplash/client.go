// Package unsplash is a minimal read-only client for the two photo API
// endpoints the slideshow needs.
package unsplash

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.unsplash.com"

	requestTimeout = 15 * time.Second
	errorBodyLimit = 512
)

// ErrNoAuthorization is returned when a request is attempted without an
// Authorization header value.
var ErrNoAuthorization = errors.New("unsplash: no authorization configured")

// StatusError is a non-2xx API response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unsplash: HTTP %d", e.Code)
	}
	return fmt.Sprintf("unsplash: HTTP %d: %s", e.Code, e.Body)
}

// Topic is the subset of the topic object the slideshow uses.
type Topic struct {
	ID    string `json:"id"`
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// Photo is the subset of a photo object the slideshow uses.
type Photo struct {
	ID   string `json:"id"`
	URLs struct {
		Raw     string `json:"raw"`
		Regular string `json:"regular"`
	} `json:"urls"`
	User User `json:"user"`
}

// User is a photographer.
type User struct {
	Name         string `json:"name"`
	Username     string `json:"username"`
	ProfileImage struct {
		Small  string `json:"small"`
		Medium string `json:"medium"`
		Large  string `json:"large"`
	} `json:"profile_image"`
}

// RandomQuery parameterizes a random photo batch.
type RandomQuery struct {
	TopicID       string
	Orientation   string
	ContentFilter string
	Count         int
}

// Client talks to the API. The zero value is not usable; use New.
type Client struct {
	baseURL       string
	authorization string
	http          *http.Client
}

// New returns a client for baseURL. authorization is sent verbatim as the
// Authorization header, e.g. "Client-ID abc".
func New(baseURL, authorization string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		authorization: authorization,
		http:          &http.Client{Timeout: requestTimeout},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// Topic looks up a topic by slug or ID.
func (c *Client) Topic(ctx context.Context, slug string) (Topic, error) {
	var t Topic
	if slug == "" {
		return t, errors.New("unsplash: empty topic slug")
	}
	err := c.get(ctx, "/topics/"+url.PathEscape(slug), nil, &t)
	if err != nil {
		return t, fmt.Errorf("looking up topic %q: %w", slug, err)
	}
	if t.ID == "" {
		return t, fmt.Errorf("looking up topic %q: response has no id", slug)
	}
	return t, nil
}

// RandomPhotos fetches a batch of random photos.
func (c *Client) RandomPhotos(ctx context.Context, q RandomQuery) ([]Photo, error) {
	params := url.Values{}
	if q.TopicID != "" {
		params.Set("topics", q.TopicID)
	}
	if q.Orientation != "" {
		params.Set("orientation", q.Orientation)
	}
	if q.ContentFilter != "" {
		params.Set("content_filter", q.ContentFilter)
	}
	if q.Count > 0 {
		params.Set("count", strconv.Itoa(q.Count))
	}

	var photos []Photo
	if err := c.get(ctx, "/photos/random", params, &photos); err != nil {
		return nil, fmt.Errorf("fetching random photos: %w", err)
	}
	return photos, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if c.authorization == "" {
		return ErrNoAuthorization
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.authorization)
	req.Header.Set("Accept-Version", "v1")
	req.Header.Set("User-Agent", "polarviz")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
