// Package extract turns review list and product page snapshots into models.
package extract

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/law-makers/revscrape/internal/config"
	"github.com/law-makers/revscrape/internal/dom"
	"github.com/law-makers/revscrape/pkg/models"
)

// Extractor reads reviews and product details using a selector table
type Extractor struct {
	sel config.Selectors

	// Now supplies the timestamp used for generated review IDs
	Now func() time.Time
	// OnFault is called for every review node that could not be extracted
	OnFault func(err error)
}

// New creates an Extractor for the given selector table
func New(sel config.Selectors) *Extractor {
	return &Extractor{sel: sel, Now: time.Now}
}

// Selectors returns the selector table in use
func (e *Extractor) Selectors() config.Selectors {
	return e.sel
}

// Page extracts every review container under root in document order. A
// container that fails extraction is logged and skipped. The reviews are
// never nil. Containers are numbered from firstIndex for generated IDs, and
// the number of containers visited is returned so the caller can continue
// the numbering on the next page.
func (e *Extractor) Page(root dom.Node, pageNumber, firstIndex int) ([]models.Review, int) {
	containers := root.FindAll(e.sel.ReviewContainer)
	reviews := make([]models.Review, 0, len(containers))

	for i, n := range containers {
		r, err := e.review(n, pageNumber, firstIndex+i)
		if err != nil {
			log.Warn().Err(err).Int("page", pageNumber).Int("index", firstIndex+i).Msg("Skipping review")
			if e.OnFault != nil {
				e.OnFault(err)
			}
			continue
		}
		reviews = append(reviews, r)
	}

	log.Debug().Int("page", pageNumber).Int("reviews", len(reviews)).Msg("Extracted page")
	return reviews, len(containers)
}

func (e *Extractor) review(n dom.Node, pageNumber, index int) (r models.Review, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("malformed review node: %v", p)
		}
	}()

	id, ok := nonEmptyAttr(n, "id")
	if !ok {
		id = "Review_" + strconv.FormatInt(e.now().UnixMilli(), 10) + "_" + strconv.Itoa(index)
	}

	return models.Review{
		ID:           id,
		PageNumber:   pageNumber,
		ReviewerName: orDefault(e.reviewer(n), models.AnonymousName),
		Rating:       orDefault(e.rating(n), models.NotAvailable),
		Text:         orDefault(e.text(n), models.NotAvailable),
		ImageURLs:    e.images(n),
	}, nil
}

func (e *Extractor) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func (e *Extractor) text(n dom.Node) *string {
	return findText(n, e.sel.ReviewText)
}

func (e *Extractor) reviewer(n dom.Node) *string {
	return findText(n, e.sel.ReviewerName)
}

// rating prefers the visible label, then aria-label, then title
func (e *Extractor) rating(n dom.Node) *string {
	r, ok := n.Find(e.sel.ReviewRating)
	if !ok {
		return nil
	}
	if v := findText(r, e.sel.RatingLabel); v != nil {
		return v
	}
	for _, attr := range []string{"aria-label", "title"} {
		if v, ok := nonEmptyAttr(r, attr); ok {
			return &v
		}
	}
	return nil
}

func (e *Extractor) images(n dom.Node) []string {
	urls := []string{}
	for _, tile := range n.FindAll(e.sel.ReviewImage) {
		img := tile
		if tile.Tag() != "img" {
			found, ok := tile.Find("img")
			if !ok {
				continue
			}
			img = found
		}

		src, ok := nonEmptyAttr(img, "data-a-hires")
		if !ok {
			src, _ = img.Attr("src")
		}
		u := HighResImageURL(strings.TrimSpace(src))
		if u == "" || u == models.ImageNotFound || strings.HasSuffix(strings.ToLower(u), ".gif") {
			continue
		}
		urls = append(urls, u)
	}
	return urls
}

func findText(n dom.Node, selector string) *string {
	found, ok := n.Find(selector)
	if !ok {
		return nil
	}
	if t := found.Text(); t != "" {
		return &t
	}
	return nil
}

func nonEmptyAttr(n dom.Node, name string) (string, bool) {
	v, ok := n.Attr(name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func orDefault(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}
