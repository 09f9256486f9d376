// Package reqctx tags a crawl with an ID so log lines and errors from one
// crawl can be correlated.
package reqctx

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

type key int

const crawlKey key = 0

// CrawlContext identifies one crawl
type CrawlContext struct {
	CrawlID   string
	StartTime time.Time
}

// WithCrawl returns ctx carrying a fresh crawl ID. An existing ID is kept.
func WithCrawl(ctx context.Context) context.Context {
	if _, ok := ctx.Value(crawlKey).(*CrawlContext); ok {
		return ctx
	}
	return context.WithValue(ctx, crawlKey, &CrawlContext{
		CrawlID:   generateID(),
		StartTime: time.Now(),
	})
}

// FromContext returns the crawl context, or a placeholder when none was set
func FromContext(ctx context.Context) *CrawlContext {
	if cc, ok := ctx.Value(crawlKey).(*CrawlContext); ok {
		return cc
	}
	return &CrawlContext{
		CrawlID:   "unknown",
		StartTime: time.Now(),
	}
}

// Elapsed returns the time since the crawl started
func (c *CrawlContext) Elapsed() time.Duration {
	return time.Since(c.StartTime)
}

// generateID returns a ULID so crawl IDs sort by start time
func generateID() string {
	return ulid.Make().String()
}

// CrawlError wraps an error with the crawl that produced it
type CrawlError struct {
	CrawlID string
	Err     error
}

// Error implements the error interface
func (e *CrawlError) Error() string {
	return fmt.Sprintf("[%s] %v", e.CrawlID, e.Err)
}

// Unwrap returns the underlying error
func (e *CrawlError) Unwrap() error {
	return e.Err
}

// NewCrawlError tags err with the crawl ID from ctx
func NewCrawlError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	return &CrawlError{
		CrawlID: FromContext(ctx).CrawlID,
		Err:     err,
	}
}
