// Package static loads review pages without a browser, either over HTTP or
// from saved HTML files.
package static

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/revscrape/internal/dom"
	"github.com/law-makers/revscrape/internal/ratelimit"
)

// maxBodySize caps the bytes read from a single page
const maxBodySize = 16 << 20

// Fetcher performs rate limited GET requests and caches parsed bodies
type Fetcher struct {
	client    *http.Client
	limiter   ratelimit.RateLimiter
	cache     *expirable.LRU[string, []byte]
	userAgent string
	headers   map[string]string
}

// NewFetcher creates a Fetcher. A nil limiter disables throttling.
func NewFetcher(client *http.Client, lim ratelimit.RateLimiter, cacheSize int, cacheTTL time.Duration, ua string, headers map[string]string) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if lim == nil {
		lim = ratelimit.Unlimited{}
	}
	if cacheSize <= 0 {
		cacheSize = 1
	}
	return &Fetcher{
		client:    client,
		limiter:   lim,
		cache:     expirable.NewLRU[string, []byte](cacheSize, nil, cacheTTL),
		userAgent: ua,
		headers:   headers,
	}
}

// Fetch retrieves url and parses it into a dom.Node
func (f *Fetcher) Fetch(ctx context.Context, url string) (dom.Node, error) {
	body, err := f.body(ctx, url)
	if err != nil {
		return nil, err
	}
	root, err := dom.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return root, nil
}

func (f *Fetcher) body(ctx context.Context, url string) ([]byte, error) {
	if cached, ok := f.cache.Get(url); ok {
		log.Debug().Str("url", url).Msg("Cache hit")
		return cached, nil
	}

	if err := f.limiter.Wait(ctx, url); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	for key, value := range f.headers {
		req.Header.Set(key, value)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}

	reader, err := decompressReader(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to decode body: %w", err)
	}
	defer reader.Close()

	body, err := io.ReadAll(io.LimitReader(reader, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	log.Debug().
		Str("url", url).
		Int("status", resp.StatusCode).
		Int64("response_time_ms", time.Since(start).Milliseconds()).
		Int("bytes", len(body)).
		Msg("Fetch completed")

	f.cache.Add(url, body)
	return body, nil
}

// decodedBody reads through a decoder and closes it along with the
// response body
type decodedBody struct {
	io.Reader
	closers []io.Closer
}

func (d *decodedBody) Close() error {
	var first error
	for _, c := range d.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// decompressReader unwraps the body according to Content-Encoding. The
// transport leaves it encoded because Accept-Encoding is set explicitly.
func decompressReader(resp *http.Response) (io.ReadCloser, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		return &decodedBody{Reader: zr, closers: []io.Closer{zr, resp.Body}}, nil
	case "deflate":
		fr := flate.NewReader(resp.Body)
		return &decodedBody{Reader: fr, closers: []io.Closer{fr, resp.Body}}, nil
	case "br":
		return &decodedBody{Reader: brotli.NewReader(resp.Body), closers: []io.Closer{resp.Body}}, nil
	default:
		return resp.Body, nil
	}
}
