package crawler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/law-makers/revscrape/internal/config"
	"github.com/law-makers/revscrape/internal/dom"
	"github.com/law-makers/revscrape/internal/extract"
	"github.com/law-makers/revscrape/internal/static"
	"github.com/law-makers/revscrape/internal/store"
	"github.com/law-makers/revscrape/pkg/models"
)

func reviewPage(page, count int, next string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < count; i++ {
		fmt.Fprintf(&b, `<div data-hook="review" id="P%dR%d"><span class="a-profile-name">User %d</span>
<i class="review-rating"><span class="a-icon-alt">%d.0 out of 5 stars</span></i>
<span class="review-text-content">Review %d on page %d</span></div>`, page, i, i, i%5+1, i, page)
	}
	b.WriteString(`<div id="cm_cr-pagination_bar"><ul>`)
	b.WriteString(next)
	b.WriteString(`</ul></div></body></html>`)
	return b.String()
}

const (
	enabledNext  = `<li class="a-last"><a href="/next">Next page</a></li>`
	disabledNext = `<li class="a-disabled a-last"><a>Next page</a></li>`
)

const productPage = `<html><body>
<span id="productTitle">  Wireless Mouse  </span>
<div id="corePriceDisplay_desktop_feature_div"><span class="a-price-symbol">$</span><span class="a-price-whole">19<span class="a-price-decimal">.</span></span><span class="a-price-fraction">99</span></div>
<div id="reviews-medley-footer"><a href="/product-reviews/B000">See more reviews</a></div>
</body></html>`

func newDriver(slot store.Slot) *Driver {
	return &Driver{
		Extractor: extract.New(config.DefaultSelectors()),
		Slot:      slot,
		Settler:   NoDelay{},
		Metrics:   NewMetrics(),
	}
}

func mustSequence(t *testing.T, docs ...string) *static.Sequence {
	t.Helper()
	s, err := static.NewSequence(docs...)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestDriver_ThreePages(t *testing.T) {
	seq := mustSequence(t,
		reviewPage(1, 3, enabledNext),
		reviewPage(2, 3, enabledNext),
		reviewPage(3, 2, disabledNext),
	)
	slot := &store.MemorySlot{}
	slot.Save(models.ProductInfo{Title: "Wireless Mouse", Price: "$19.99", SourceURL: "https://x"})

	var progress []int
	d := newDriver(slot)
	d.OnPage = func(page, total int) { progress = append(progress, total) }

	sess := NewSession(context.Background())
	result, err := d.Run(context.Background(), sess, seq)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if sess.State != Done {
		t.Errorf("Expected Done, got %s", sess.State)
	}

	var pages []int
	for _, r := range result.Reviews {
		pages = append(pages, r.PageNumber)
	}
	if got := fmt.Sprint(pages); got != "[1 1 1 2 2 2 3 3]" {
		t.Errorf("Unexpected page numbers %s", got)
	}
	if result.TotalReviews != 8 {
		t.Errorf("Expected 8 reviews, got %d", result.TotalReviews)
	}
	if result.Reviews[3].ID != "P2R0" {
		t.Errorf("Expected page-major order, got %q at index 3", result.Reviews[3].ID)
	}
	if result.Product.Title != "Wireless Mouse" {
		t.Errorf("Expected persisted product, got %+v", result.Product)
	}
	if fmt.Sprint(progress) != "[3 6 8]" {
		t.Errorf("Unexpected progress %v", progress)
	}
	if _, ok, _ := slot.Load(); ok {
		t.Error("Expected slot to be cleared after Done")
	}
	if got := counterValue(t, d.Metrics, "revscrape_pages_total"); got != 3 {
		t.Errorf("Expected 3 pages counted, got %v", got)
	}
}

func TestDriver_GeneratedIDsUniqueAcrossPages(t *testing.T) {
	anon := func(doc string) string { return strings.ReplaceAll(doc, ` id="P`, ` data-ref="P`) }
	seq := mustSequence(t,
		anon(reviewPage(1, 3, enabledNext)),
		anon(reviewPage(2, 3, enabledNext)),
		anon(reviewPage(3, 2, disabledNext)),
	)
	slot := &store.MemorySlot{}
	slot.Save(models.ProductInfo{Title: "Wireless Mouse"})

	d := newDriver(slot)
	d.Extractor.Now = func() time.Time { return time.UnixMilli(1700000000000) }

	result, err := d.Run(context.Background(), NewSession(context.Background()), seq)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	ids := make(map[string]bool)
	for _, r := range result.Reviews {
		if ids[r.ID] {
			t.Fatalf("Duplicate review id %q", r.ID)
		}
		ids[r.ID] = true
	}
	if len(ids) != 8 {
		t.Errorf("Expected 8 distinct ids, got %d", len(ids))
	}
	if last := result.Reviews[7].ID; last != "Review_1700000000000_7" {
		t.Errorf("Expected crawl-wide numbering, got %q", last)
	}
}

func counterValue(t *testing.T, m *Metrics, name string) float64 {
	t.Helper()
	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestDriver_DisabledVariants(t *testing.T) {
	variants := map[string]string{
		"absent":             ``,
		"class on container": `<li class="a-last a-disabled"><a href="/n">Next</a></li>`,
		"class on control":   `<li class="a-last"><a class="a-disabled" href="/n">Next</a></li>`,
		"aria-disabled":      `<li class="a-last"><a aria-disabled="true" href="/n">Next</a></li>`,
		"disabled attr":      `<li class="a-last" disabled><a href="/n">Next</a></li>`,
	}
	for name, last := range variants {
		t.Run(name, func(t *testing.T) {
			seq := mustSequence(t, reviewPage(1, 1, enabledNext), reviewPage(2, 2, last), reviewPage(3, 5, enabledNext))
			result, err := newDriver(&store.MemorySlot{}).Run(context.Background(), NewSession(context.Background()), seq)
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if result.TotalReviews != 3 {
				t.Errorf("Expected crawl to stop on page 2 with 3 reviews, got %d", result.TotalReviews)
			}
		})
	}
}

func TestDriver_SentinelProduct(t *testing.T) {
	seq := mustSequence(t, reviewPage(1, 2, disabledNext))
	result, err := newDriver(&store.MemorySlot{}).Run(context.Background(), NewSession(context.Background()), seq)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	want := models.ProductInfo{Title: models.NotScrapedLabel, Price: models.NotScrapedLabel, SourceURL: "fixture://page-1"}
	if result.Product != want {
		t.Errorf("Expected %+v, got %+v", want, result.Product)
	}
}

func TestDriver_CorruptSlot(t *testing.T) {
	slot := store.NewFileSlot(t.TempDir())
	if err := os.WriteFile(slot.Path, []byte("garbage"), 0o600); err != nil {
		t.Fatal(err)
	}
	seq := mustSequence(t, reviewPage(1, 1, disabledNext))
	result, err := newDriver(slot).Run(context.Background(), NewSession(context.Background()), seq)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Product.Title != models.NotScrapedLabel {
		t.Errorf("Expected sentinel title, got %q", result.Product.Title)
	}
	if _, err := os.Stat(slot.Path); !os.IsNotExist(err) {
		t.Error("Expected corrupt slot to be cleared")
	}
}

func TestDriver_MaxPages(t *testing.T) {
	seq := mustSequence(t, reviewPage(1, 2, enabledNext), reviewPage(2, 2, enabledNext), reviewPage(3, 2, enabledNext))
	d := newDriver(&store.MemorySlot{})
	d.MaxPages = 2
	result, err := d.Run(context.Background(), NewSession(context.Background()), seq)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.TotalReviews != 4 {
		t.Errorf("Expected 4 reviews from 2 pages, got %d", result.TotalReviews)
	}
}

func TestDriver_NotReviewList(t *testing.T) {
	slot := &store.MemorySlot{}
	slot.Save(models.ProductInfo{Title: "kept"})

	sess := NewSession(context.Background())
	_, err := newDriver(slot).Run(context.Background(), sess, mustSequence(t, productPage))
	if !errors.Is(err, ErrNotReviewList) {
		t.Fatalf("Expected ErrNotReviewList, got %v", err)
	}
	if Code(err) != ErrCodeNotReviewList {
		t.Errorf("Expected code %s, got %q", ErrCodeNotReviewList, Code(err))
	}
	if sess.State != NotStarted {
		t.Errorf("Expected NotStarted, got %s", sess.State)
	}
	if _, ok, _ := slot.Load(); !ok {
		t.Error("Slot must not be consumed before the guard passes")
	}
}

// failingPage errors when asked to advance past the first page
type failingPage struct{ *static.Sequence }

func (failingPage) Activate(context.Context, string) error { return errors.New("tab crashed") }

func TestDriver_FailureDropsResults(t *testing.T) {
	slot := &store.MemorySlot{}
	slot.Save(models.ProductInfo{Title: "consumed"})

	sess := NewSession(context.Background())
	result, err := newDriver(slot).Run(context.Background(), sess, failingPage{mustSequence(t, reviewPage(1, 3, enabledNext))})
	if err == nil || result != nil {
		t.Fatalf("Expected failure without result, got %v / %v", result, err)
	}
	if sess.State != Failed {
		t.Errorf("Expected Failed, got %s", sess.State)
	}
	if sess.Reviews != nil {
		t.Errorf("Expected accumulator to be dropped, got %d reviews", len(sess.Reviews))
	}
	if Code(err) != ErrCodePage || !strings.Contains(err.Error(), "tab crashed") {
		t.Errorf("Unexpected error %v", err)
	}
	if _, ok, _ := slot.Load(); ok {
		t.Error("Expected slot to be cleared after Failed")
	}
}

func TestDriver_CancelledWhileSettling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := newDriver(&store.MemorySlot{})
	d.Settler = FixedDelay(time.Hour)
	_, err := d.Run(ctx, NewSession(ctx), mustSequence(t, reviewPage(1, 1, enabledNext), reviewPage(2, 1, disabledNext)))
	if Code(err) != ErrCodeCancelled || !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected cancellation, got %v", err)
	}
}

func TestService_Success(t *testing.T) {
	svc := NewService(newDriver(&store.MemorySlot{}), mustSequence(t, reviewPage(1, 2, disabledNext)), "customer-reviews")
	resp := svc.Handle(context.Background(), models.Command{Action: models.ActionScrape, URL: "fixture://page-1"})
	if resp.Status != models.StatusSuccess || resp.Data == nil || resp.Data.TotalReviews != 2 {
		t.Fatalf("Unexpected response %+v", resp)
	}
}

func TestService_Handoff(t *testing.T) {
	slot := &store.MemorySlot{}
	seq := mustSequence(t, productPage, reviewPage(1, 2, disabledNext))
	svc := NewService(newDriver(slot), seq, "customer-reviews")

	resp := svc.Handle(context.Background(), models.Command{Action: models.ActionScrape, URL: "https://www.amazon.com/dp/B000"})
	if resp.Status != models.StatusNavigating {
		t.Fatalf("Expected navigating, got %+v", resp)
	}
	info, ok, _ := slot.Load()
	if !ok {
		t.Fatal("Expected product info to be persisted")
	}
	want := models.ProductInfo{Title: "Wireless Mouse", Price: "$19.99", SourceURL: "https://www.amazon.com/dp/B000"}
	if info != want {
		t.Errorf("Expected %+v, got %+v", want, info)
	}

	// second command on the review list picks up the product
	resp = svc.Handle(context.Background(), models.Command{Action: models.ActionScrape, URL: "fixture://page-2"})
	if resp.Status != models.StatusSuccess {
		t.Fatalf("Expected success, got %+v", resp)
	}
	if resp.Data.Product != want {
		t.Errorf("Expected carried product %+v, got %+v", want, resp.Data.Product)
	}
	if _, ok, _ := slot.Load(); ok {
		t.Error("Expected slot to be cleared")
	}
}

func TestService_GuardErrorVerbatim(t *testing.T) {
	tests := map[string]struct {
		doc string
		url string
	}{
		"no see-more control":    {`<html><body><p>empty</p></body></html>`, "https://www.amazon.com/dp/B000"},
		"already on review list": {productPage, "https://www.amazon.com/product-reviews/B000/customer-reviews"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			slot := &store.MemorySlot{}
			svc := NewService(newDriver(slot), mustSequence(t, tt.doc), "customer-reviews")
			resp := svc.Handle(context.Background(), models.Command{Action: models.ActionScrape, URL: tt.url})
			if resp.Status != models.StatusError || resp.Message != ErrNotReviewList.Error() {
				t.Fatalf("Expected guard error, got %+v", resp)
			}
			if _, ok, _ := slot.Load(); ok {
				t.Error("Slot must not be written")
			}
		})
	}
}

func TestService_UnknownAction(t *testing.T) {
	svc := NewService(newDriver(&store.MemorySlot{}), mustSequence(t, productPage), "customer-reviews")
	resp := svc.Handle(context.Background(), models.Command{Action: "exportData"})
	if resp.Status != models.StatusError || !strings.Contains(resp.Message, "exportData") {
		t.Fatalf("Unexpected response %+v", resp)
	}
	if !strings.HasPrefix(resp.Message, string(ErrCodeValidation)) {
		t.Errorf("Expected validation code in %q", resp.Message)
	}
}

func TestCode_Sentinels(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"not review list", ErrNotReviewList, ErrCodeNotReviewList},
		{"in progress", ErrCrawlInProgress, ErrCodeInProgress},
		{"wrapped unknown action", fmt.Errorf("%w %q", ErrUnknownAction, "x"), ErrCodeValidation},
		{"page error", NewCrawlError(ErrCodePage, "boom", errors.New("tab crashed")), ErrCodePage},
		{"plain", errors.New("plain"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Code(tt.err); got != tt.want {
				t.Errorf("Code() = %q, want %q", got, tt.want)
			}
		})
	}
	if errors.Is(ErrCrawlInProgress, ErrNotReviewList) {
		t.Error("Distinct sentinels must not match each other")
	}
}

// blockingPage holds the first snapshot until released
type blockingPage struct {
	dom.Page
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (b *blockingPage) Snapshot(ctx context.Context) (dom.Node, error) {
	b.once.Do(func() {
		close(b.entered)
		<-b.release
	})
	return b.Page.Snapshot(ctx)
}

func TestService_SingleFlight(t *testing.T) {
	page := &blockingPage{
		Page:    mustSequence(t, reviewPage(1, 1, disabledNext)),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc := NewService(newDriver(&store.MemorySlot{}), page, "customer-reviews")
	cmd := models.Command{Action: models.ActionScrape}

	first := make(chan models.Response, 1)
	go func() { first <- svc.Handle(context.Background(), cmd) }()
	<-page.entered

	if !svc.Running() {
		t.Error("Expected service to report a running crawl")
	}
	resp := svc.Handle(context.Background(), cmd)
	if resp.Status != models.StatusError || resp.Message != ErrCrawlInProgress.Error() {
		t.Fatalf("Expected in-progress error, got %+v", resp)
	}

	close(page.release)
	if resp := <-first; resp.Status != models.StatusSuccess {
		t.Fatalf("Expected first crawl to succeed, got %+v", resp)
	}
	if svc.Running() {
		t.Error("Expected service to be idle")
	}
}
