package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/law-makers/revscrape/internal/dom"
	"github.com/law-makers/revscrape/internal/reqctx"
	urlutil "github.com/law-makers/revscrape/internal/utils/url"
	"github.com/law-makers/revscrape/pkg/models"
)

// NavigatingMessage is returned with StatusNavigating
const NavigatingMessage = "opened the full review list; re-issue the command once the page has loaded"

// Service answers crawl commands for one page. Only one crawl runs at a time.
type Service struct {
	driver *Driver
	page   dom.Page
	// marker identifies review list locations by URL
	marker string

	running atomic.Bool
}

// NewService creates a Service crawling page with driver
func NewService(driver *Driver, page dom.Page, reviewListMarker string) *Service {
	return &Service{
		driver: driver,
		page:   page,
		marker: reviewListMarker,
	}
}

// Handle runs cmd and reports the outcome. It never panics on a bad page.
func (s *Service) Handle(ctx context.Context, cmd models.Command) models.Response {
	if cmd.Action != models.ActionScrape {
		return s.fail(ctx, fmt.Errorf("%w %q", ErrUnknownAction, cmd.Action))
	}

	if !s.running.CompareAndSwap(false, true) {
		return s.fail(ctx, ErrCrawlInProgress)
	}
	defer s.running.Store(false)

	ctx = reqctx.WithCrawl(ctx)
	sess := NewSession(ctx)

	result, err := s.driver.Run(ctx, sess, s.page)
	switch {
	case err == nil:
		s.driver.Metrics.crawl(string(models.StatusSuccess))
		return models.Response{Status: models.StatusSuccess, Data: result}
	case IsNotReviewList(err):
		return s.handoff(ctx, sess, cmd, err)
	default:
		return s.fail(ctx, err)
	}
}

// Running reports whether a crawl is in flight
func (s *Service) Running() bool {
	return s.running.Load()
}

// handoff captures product details on a product page, persists them and opens
// the full review list. Any other page reports guardErr unchanged.
func (s *Service) handoff(ctx context.Context, sess *Session, cmd models.Command, guardErr error) models.Response {
	sel := s.driver.Extractor.Selectors()

	location := cmd.URL
	if location == "" {
		loc, err := s.page.Location(ctx)
		if err != nil {
			return s.fail(ctx, NewCrawlError(ErrCodePage, "failed to read location", err))
		}
		location = loc
	}

	root, err := s.page.Snapshot(ctx)
	if err != nil {
		return s.fail(ctx, NewCrawlError(ErrCodePage, "failed to read product page", err))
	}
	if _, ok := root.Find(sel.SeeMoreReviews); !ok || urlutil.LooksLikeReviewList(location, s.marker) {
		return s.fail(ctx, guardErr)
	}

	info := s.driver.Extractor.Product(root, location)
	if s.driver.Slot != nil {
		if err := s.driver.Slot.Save(info); err != nil {
			return s.fail(ctx, NewCrawlError(ErrCodeSlot, "failed to persist product info", err))
		}
	}

	if err := s.page.Activate(ctx, sel.SeeMoreReviews); err != nil {
		return s.fail(ctx, NewCrawlError(ErrCodePage, "failed to open review list", err))
	}
	sess.State = AwaitingNavigation

	log.Info().
		Str("crawl_id", sess.ID).
		Str("title", info.Title).
		Str("price", info.Price).
		Msg("Product captured, navigating to review list")

	s.driver.Metrics.crawl(string(models.StatusNavigating))
	return models.Response{Status: models.StatusNavigating, Message: NavigatingMessage}
}

func (s *Service) fail(ctx context.Context, err error) models.Response {
	if !errors.Is(err, ErrCrawlInProgress) {
		log.Error().Err(reqctx.NewCrawlError(ctx, err)).Msg("Crawl command failed")
	}
	s.driver.Metrics.crawl(string(models.StatusError))
	return models.Response{Status: models.StatusError, Message: err.Error()}
}
