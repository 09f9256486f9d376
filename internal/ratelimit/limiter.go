// Package ratelimit paces requests per host so page fetches and image
// downloads never hammer a single storefront or CDN.
package ratelimit

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter blocks callers until a request to a URL may proceed
type RateLimiter interface {
	// Wait blocks until a request for the given URL can proceed.
	// If the context is cancelled first, its error is returned.
	Wait(ctx context.Context, urlStr string) error
}

// HostLimiter keeps one token bucket per host
type HostLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	perHost  rate.Limit
	burst    int
}

// NewHostLimiter creates a limiter allowing requestsPerSecond per host
func NewHostLimiter(requestsPerSecond float64, burst int) *HostLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1.0
	}
	if burst <= 0 {
		burst = 1
	}

	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		perHost:  rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

// Wait blocks until the request for the given URL can proceed
func (hl *HostLimiter) Wait(ctx context.Context, urlStr string) error {
	host := extractHost(urlStr)
	if host == "" {
		// file and fixture locations are never throttled
		return nil
	}
	return hl.limiter(host).Wait(ctx)
}

func (hl *HostLimiter) limiter(host string) *rate.Limiter {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	l, ok := hl.limiters[host]
	if !ok {
		l = rate.NewLimiter(hl.perHost, hl.burst)
		hl.limiters[host] = l
	}
	return l
}

// Unlimited never blocks
type Unlimited struct{}

func (Unlimited) Wait(ctx context.Context, _ string) error {
	return ctx.Err()
}

func extractHost(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Host
}
