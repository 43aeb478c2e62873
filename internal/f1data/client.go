package f1data

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"reflect"
	"time"

	"github.com/pkg/errors"
)

const maxBodyBytes = 64 << 20 // car_data for a full race is large

var _ Source = (*Client)(nil)

// Client implements Source over the Ergast-compatible and OpenF1 HTTP APIs.
type Client struct {
	ergastURL string
	openF1URL string
	http      *http.Client
	cache     Cache
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithCache makes the client read through cache before calling upstream.
func WithCache(cache Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// NewClient builds a client for the given API base URLs (no trailing slash).
func NewClient(ergastURL, openF1URL string, opts ...Option) *Client {
	c := &Client{
		ergastURL: ergastURL,
		openF1URL: openF1URL,
		http:      &http.Client{Timeout: 45 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// getJSON decodes the body at url into v, consulting the cache first. Only responses
// that decode cleanly and carry data are cached: an empty list usually means upstream
// has not published yet.
func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	return c.fetchJSON(ctx, url, v, func() bool { return !isEmpty(v) })
}

// fetchJSON is getJSON with the caller deciding, after decoding, whether the body is
// worth caching.
func (c *Client) fetchJSON(ctx context.Context, url string, v any, cacheable func() bool) error {
	if c.cache != nil {
		body, ok, err := c.cache.Get(url)
		if err != nil {
			log.Printf("f1data: cache read %s: %v", url, err)
		} else if ok {
			if err := json.Unmarshal(body, v); err == nil {
				return nil
			}
			log.Printf("f1data: discarding undecodable cache entry for %s", url)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrapf(err, "build request %s", url)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "GET %s", url)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errors.Wrapf(ErrNotFound, "GET %s", url)
	case resp.StatusCode != http.StatusOK:
		return errors.Wrapf(ErrUpstream, "GET %s: %s", url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return errors.Wrapf(err, "read %s", url)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrapf(err, "decode %s", url)
	}

	if c.cache != nil && cacheable() {
		if err := c.cache.Put(url, body); err != nil {
			log.Printf("f1data: cache write %s: %v", url, err)
		}
	}
	return nil
}

// isEmpty reports whether a decoded payload holds nothing: an empty JSON list, or an
// Ergast race table without races.
func isEmpty(v any) bool {
	if r, ok := v.(*ergastResponse); ok {
		return len(r.MRData.RaceTable.Races) == 0
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	return rv.Kind() == reflect.Slice && rv.Len() == 0
}
