// Package crawler drives pagination over a review list and hands off from a
// product page to its review list.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/law-makers/revscrape/internal/dom"
	"github.com/law-makers/revscrape/internal/extract"
	"github.com/law-makers/revscrape/internal/reqctx"
	"github.com/law-makers/revscrape/internal/store"
	"github.com/law-makers/revscrape/pkg/models"
)

// State is the position of a Session in the crawl lifecycle
type State int

const (
	NotStarted State = iota
	Looping
	Done
	Failed
	AwaitingNavigation
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Looping:
		return "looping"
	case Done:
		return "done"
	case Failed:
		return "failed"
	case AwaitingNavigation:
		return "awaiting_navigation"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session is the state of one crawl. It is created per command and never shared.
type Session struct {
	ID      string
	State   State
	Page    int
	Reviews []models.Review
	// Seen counts review containers visited so far, failed ones included
	Seen int
}

// NewSession starts a session at page 1, identified by the crawl in ctx
func NewSession(ctx context.Context) *Session {
	return &Session{
		ID:      reqctx.FromContext(ctx).CrawlID,
		State:   NotStarted,
		Page:    1,
		Reviews: []models.Review{},
	}
}

// Driver paginates through a review list
type Driver struct {
	Extractor *extract.Extractor
	Slot      store.Slot
	Settler   Settler
	Metrics   *Metrics

	// MaxPages stops the crawl after that many pages. Zero means no limit.
	MaxPages int
	// OnPage is called after each page with the page number and the running review count
	OnPage func(page, total int)
}

// Run crawls from the current page until the next-page control is missing or
// disabled. ErrNotReviewList is returned, with the session left in
// NotStarted, when the first page has no next-page control at all.
func (d *Driver) Run(ctx context.Context, sess *Session, page dom.Page) (*models.CrawlResult, error) {
	sel := d.Extractor.Selectors()

	root, err := page.Snapshot(ctx)
	if err != nil {
		sess.State = Failed
		return nil, NewCrawlError(ErrCodePage, "failed to read first page", err)
	}
	if _, ok := root.Find(sel.NextPage); !ok {
		return nil, ErrNotReviewList
	}

	product, found := d.consumeProduct(sess)
	defer d.clearSlot(sess)

	sess.State = Looping
	log.Info().Str("crawl_id", sess.ID).Bool("product_info", found).Msg("Crawling review list")

	if err := d.loop(ctx, sess, page, root); err != nil {
		sess.State = Failed
		sess.Reviews = nil
		log.Error().Err(err).Str("crawl_id", sess.ID).Int("page", sess.Page).Msg("Crawl failed")
		return nil, err
	}
	sess.State = Done

	if !found {
		loc, err := page.Location(ctx)
		if err != nil {
			loc = models.NotAvailable
		}
		product = models.ProductInfo{
			Title:     models.NotScrapedLabel,
			Price:     models.NotScrapedLabel,
			SourceURL: loc,
		}
	}

	result := models.NewCrawlResult(product, sess.Reviews)
	log.Info().
		Str("crawl_id", sess.ID).
		Int("pages", sess.Page).
		Int("reviews", result.TotalReviews).
		Dur("elapsed", reqctx.FromContext(ctx).Elapsed()).
		Msg("Crawl completed")
	return result, nil
}

func (d *Driver) loop(ctx context.Context, sess *Session, page dom.Page, root dom.Node) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = NewCrawlError(ErrCodePage, "unexpected fault", fmt.Errorf("%v", p)).WithDetail("page", sess.Page)
		}
	}()

	sel := d.Extractor.Selectors()
	settler := d.Settler
	if settler == nil {
		settler = FixedDelay(3 * time.Second)
	}

	for {
		start := time.Now()

		reviews, seen := d.Extractor.Page(root, sess.Page, sess.Seen)
		sess.Seen += seen
		sess.Reviews = append(sess.Reviews, reviews...)
		d.Metrics.page(len(reviews), time.Since(start))
		if d.OnPage != nil {
			d.OnPage(sess.Page, len(sess.Reviews))
		}

		if d.MaxPages > 0 && sess.Page >= d.MaxPages {
			log.Debug().Str("crawl_id", sess.ID).Int("page", sess.Page).Msg("Page limit reached")
			return nil
		}

		next, ok := root.Find(sel.NextPage)
		if !ok || isDisabled(next, sel.DisabledClass) {
			return nil
		}

		if err := page.Activate(ctx, sel.NextPage); err != nil {
			return NewCrawlError(ErrCodePage, "failed to open next page", err).WithDetail("page", sess.Page)
		}
		if err := settler.Settle(ctx); err != nil {
			return NewCrawlError(ErrCodeCancelled, "crawl interrupted", err).WithDetail("page", sess.Page)
		}
		sess.Page++

		root, err = page.Snapshot(ctx)
		if err != nil {
			return NewCrawlError(ErrCodePage, "failed to read page", err).WithDetail("page", sess.Page)
		}
	}
}

// isDisabled reports whether the control or its container is marked disabled
func isDisabled(n dom.Node, class string) bool {
	check := func(n dom.Node) bool {
		if class != "" && n.HasClass(class) {
			return true
		}
		if v, ok := n.Attr("aria-disabled"); ok && v == "true" {
			return true
		}
		_, ok := n.Attr("disabled")
		return ok
	}
	if check(n) {
		return true
	}
	if parent, ok := n.Parent(); ok {
		return check(parent)
	}
	return false
}

// consumeProduct reads the persisted product. A slot that cannot be read is
// logged and treated as empty.
func (d *Driver) consumeProduct(sess *Session) (models.ProductInfo, bool) {
	if d.Slot == nil {
		return models.ProductInfo{}, false
	}
	info, ok, err := d.Slot.Load()
	if err != nil {
		log.Warn().Err(err).Str("crawl_id", sess.ID).Msg("Ignoring unreadable product info")
		return models.ProductInfo{}, false
	}
	return info, ok
}

func (d *Driver) clearSlot(sess *Session) {
	if d.Slot == nil {
		return
	}
	if err := d.Slot.Clear(); err != nil {
		log.Warn().Err(err).Str("crawl_id", sess.ID).Msg("Failed to clear product info")
	}
}

// IsNotReviewList reports whether err is the entry guard signal
func IsNotReviewList(err error) bool {
	return errors.Is(err, ErrNotReviewList)
}
