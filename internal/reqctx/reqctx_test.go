package reqctx

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
)

func TestWithCrawl(t *testing.T) {
	ctx := WithCrawl(context.Background())
	cc := FromContext(ctx)
	if _, err := ulid.Parse(cc.CrawlID); err != nil {
		t.Errorf("Expected a ULID, got %q: %v", cc.CrawlID, err)
	}
	if again := FromContext(WithCrawl(ctx)); again.CrawlID != cc.CrawlID {
		t.Errorf("Expected existing ID to be kept, got %q and %q", cc.CrawlID, again.CrawlID)
	}
	if FromContext(context.Background()).CrawlID != "unknown" {
		t.Error("Expected placeholder ID without a crawl")
	}
}

func TestNewCrawlError(t *testing.T) {
	base := errors.New("boom")
	ctx := WithCrawl(context.Background())
	err := NewCrawlError(ctx, base)
	if !errors.Is(err, base) {
		t.Error("Expected wrapped error to match base")
	}
	if !strings.Contains(err.Error(), FromContext(ctx).CrawlID) {
		t.Errorf("Expected crawl ID in message, got %q", err.Error())
	}
	if NewCrawlError(ctx, nil) != nil {
		t.Error("Expected nil for nil error")
	}
}

func TestCrawlContext_Elapsed(t *testing.T) {
	cc := &CrawlContext{CrawlID: "x", StartTime: time.Now().Add(-2 * time.Second)}
	if got := cc.Elapsed(); got < 2*time.Second {
		t.Errorf("Expected at least 2s elapsed, got %v", got)
	}
}
