package static

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/law-makers/revscrape/internal/dom"
	urlutil "github.com/law-makers/revscrape/internal/utils/url"
)

// Page is a dom.Page over plain HTTP. Activating a control follows its href.
type Page struct {
	fetcher *Fetcher
	url     string
	root    dom.Node
}

// Open fetches url and positions a Page on it
func Open(ctx context.Context, f *Fetcher, url string) (*Page, error) {
	p := &Page{fetcher: f}
	if err := p.navigate(ctx, url); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Page) navigate(ctx context.Context, url string) error {
	root, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		return err
	}
	p.url = url
	p.root = root
	return nil
}

func (p *Page) Snapshot(context.Context) (dom.Node, error) {
	return p.root, nil
}

func (p *Page) Location(context.Context) (string, error) {
	return p.url, nil
}

func (p *Page) Activate(ctx context.Context, selector string) error {
	control, ok := p.root.Find(selector)
	if !ok {
		return fmt.Errorf("no element matches %q", selector)
	}
	href, _ := control.Attr("href")
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return fmt.Errorf("element %q has no followable href", selector)
	}
	return p.navigate(ctx, urlutil.ResolveURL(p.url, href))
}

// ErrEndOfSequence is returned when activating past the last saved page
var ErrEndOfSequence = errors.New("no more saved pages")

// Sequence replays saved pages in order. Each activation moves to the next page
// regardless of which control was clicked.
type Sequence struct {
	pages     []dom.Node
	locations []string
	pos       int
}

// NewSequence builds a Sequence from in-memory documents
func NewSequence(docs ...string) (*Sequence, error) {
	s := &Sequence{}
	for i, doc := range docs {
		root, err := dom.ParseString(doc)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		s.pages = append(s.pages, root)
		s.locations = append(s.locations, fmt.Sprintf("fixture://page-%d", i+1))
	}
	if len(s.pages) == 0 {
		return nil, errors.New("sequence needs at least one page")
	}
	return s, nil
}

// Len returns the number of pages in the sequence
func (s *Sequence) Len() int {
	return len(s.pages)
}

// Remaining returns the number of pages from the current one to the end
func (s *Sequence) Remaining() int {
	return len(s.pages) - s.pos
}

func (s *Sequence) Snapshot(context.Context) (dom.Node, error) {
	return s.pages[s.pos], nil
}

func (s *Sequence) Location(context.Context) (string, error) {
	return s.locations[s.pos], nil
}

func (s *Sequence) Activate(_ context.Context, selector string) error {
	if _, ok := s.pages[s.pos].Find(selector); !ok {
		return fmt.Errorf("no element matches %q", selector)
	}
	if s.pos+1 >= len(s.pages) {
		return ErrEndOfSequence
	}
	s.pos++
	return nil
}
