// Package downloader fetches review images concurrently and can bundle them
// into a zip archive.
package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/law-makers/revscrape/internal/ratelimit"
)

// DownloadResult represents the result of a download operation
type DownloadResult struct {
	Job      Job
	FilePath string
	Size     int64
	Success  bool
	Error    error
	Duration time.Duration
}

// Downloader streams images to disk
type Downloader struct {
	client    *http.Client
	limiter   ratelimit.RateLimiter
	userAgent string
	headers   map[string]string
}

// NewDownloader creates a Downloader. A nil limiter disables throttling and a
// nil proxy falls back to the environment proxy settings.
func NewDownloader(timeout time.Duration, lim ratelimit.RateLimiter, userAgent string, headers map[string]string, proxy func(*http.Request) (*url.URL, error)) *Downloader {
	if lim == nil {
		lim = ratelimit.Unlimited{}
	}
	if proxy == nil {
		proxy = http.ProxyFromEnvironment
	}

	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               proxy,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &Downloader{
		client:    client,
		limiter:   lim,
		userAgent: userAgent,
		headers:   headers,
	}
}

// Download fetches one job into dir
func (d *Downloader) Download(ctx context.Context, job Job, dir string) *DownloadResult {
	start := time.Now()
	result := &DownloadResult{Job: job}
	fail := func(err error) *DownloadResult {
		result.Error = err
		result.Duration = time.Since(start)
		return result
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fail(fmt.Errorf("failed to create output directory: %w", err))
	}

	if err := d.limiter.Wait(ctx, job.URL); err != nil {
		return fail(fmt.Errorf("rate limit wait: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, job.URL, nil)
	if err != nil {
		return fail(fmt.Errorf("failed to create request: %w", err))
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}
	for key, value := range d.headers {
		req.Header.Set(key, value)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fail(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fail(fmt.Errorf("bad status: %s", resp.Status))
	}

	filePath := filepath.Join(dir, sanitizeFilename(job.Filename))
	result.FilePath = filePath

	outFile, err := os.Create(filePath)
	if err != nil {
		return fail(fmt.Errorf("failed to create file: %w", err))
	}
	n, err := io.Copy(outFile, resp.Body)
	if err != nil {
		outFile.Close()
		os.Remove(filePath)
		return fail(fmt.Errorf("failed to write file: %w", err))
	}
	if err := outFile.Close(); err != nil {
		os.Remove(filePath)
		return fail(fmt.Errorf("failed to close file: %w", err))
	}

	result.Size = n
	result.Success = true
	result.Duration = time.Since(start)

	log.Debug().
		Str("url", job.URL).
		Str("file", filePath).
		Int64("bytes", n).
		Dur("duration", result.Duration).
		Msg("Download completed")

	return result
}

// sanitizeFilename keeps a name inside its directory
func sanitizeFilename(input string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", "..", "_", ":", "_", "*", "_",
		"?", "_", "\"", "_", "<", "_", ">", "_", "|", "_",
	)
	input = replacer.Replace(input)
	input = strings.TrimSpace(input)
	input = strings.Trim(input, ".")

	if input == "" {
		input = fmt.Sprintf("image_%d.jpg", time.Now().UnixNano())
	}
	if len(input) > 200 {
		ext := filepath.Ext(input)
		if len(ext) > 10 {
			ext = ""
		}
		input = input[:200-len(ext)] + ext
	}
	return input
}
