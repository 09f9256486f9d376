package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/law-makers/revscrape/internal/export"
	"github.com/law-makers/revscrape/pkg/models"
)

func reviewPage(page int, last bool) string {
	var b strings.Builder
	b.WriteString(`<html><body>`)
	for i := 1; i <= 2; i++ {
		fmt.Fprintf(&b, `<div data-hook="review" id="P%dR%d"><span class="a-profile-name">User %d</span>
<i class="review-rating"><span class="a-icon-alt">4.0 out of 5 stars</span></i>
<span class="review-text-content">Review %d on page %d</span></div>`, page, i, i, i, page)
	}
	if last {
		b.WriteString(`<div id="cm_cr-pagination_bar"><ul><li class="a-disabled a-last"><a>Next page</a></li></ul></div>`)
	} else {
		b.WriteString(`<div id="cm_cr-pagination_bar"><ul><li class="a-last"><a href="/next">Next page</a></li></ul></div>`)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

const productPage = `<html><body>
<span id="productTitle">Wireless Mouse</span>
<div id="corePriceDisplay_desktop_feature_div"><span class="a-price-symbol">$</span><span class="a-price-whole">19<span class="a-price-decimal">.</span></span><span class="a-price-fraction">99</span></div>
<div id="reviews-medley-footer"><a href="/product-reviews/B000">See more reviews</a></div>
</body></html>`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// run executes the root command with args and returns what it printed
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = prev })

	resetFlags(rootCmd)
	rootCmd.SetArgs(append(args, "--slot", "memory", "-q"))
	err := rootCmd.ExecuteContext(context.Background())
	if cerr := closeApp(rootCmd); err == nil {
		err = cerr
	}
	return buf.String(), err
}

// resetFlags restores every flag to its default so runs do not leak into each other
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			var def []string
			if trimmed := strings.Trim(f.DefValue, "[]"); trimmed != "" {
				def = strings.Split(trimmed, ",")
			}
			_ = sv.Replace(def)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func readJSONResult(t *testing.T, path string) *models.CrawlResult {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read result: %v", err)
	}
	var result models.CrawlResult
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	return &result
}

func TestParseCommand_ReviewPages(t *testing.T) {
	dir := t.TempDir()
	p1 := writeFile(t, dir, "p1.html", reviewPage(1, false))
	p2 := writeFile(t, dir, "p2.html", reviewPage(2, true))
	out := t.TempDir()

	if _, err := run(t, "parse", p1, p2, "-f", "json", "-o", out); err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	result := readJSONResult(t, filepath.Join(out, export.Filename(models.NotScrapedLabel, export.FormatJSON)))
	if result.TotalReviews != 4 {
		t.Fatalf("expected 4 reviews, got %d", result.TotalReviews)
	}
	if result.Reviews[3].PageNumber != 2 {
		t.Errorf("expected last review on page 2, got %d", result.Reviews[3].PageNumber)
	}
	if result.Product.Title != models.NotScrapedLabel {
		t.Errorf("expected placeholder title, got %q", result.Product.Title)
	}
}

func TestParseCommand_ProductHandoff(t *testing.T) {
	dir := t.TempDir()
	product := writeFile(t, dir, "product.html", productPage)
	p1 := writeFile(t, dir, "p1.html", reviewPage(1, false))
	// The last saved page still offers a next page; the crawl stops at the end of the files
	p2 := writeFile(t, dir, "p2.html", reviewPage(2, false))

	out, err := run(t, "parse", product, p1, p2, "--url", "https://www.amazon.com/dp/B000", "-f", "json", "--print")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	var result models.CrawlResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("stdout is not a JSON result: %v\n%s", err, out)
	}
	want := models.ProductInfo{Title: "Wireless Mouse", Price: "$19.99", SourceURL: "https://www.amazon.com/dp/B000"}
	if result.Product != want {
		t.Errorf("product = %+v, want %+v", result.Product, want)
	}
	if result.TotalReviews != 4 {
		t.Errorf("expected 4 reviews, got %d", result.TotalReviews)
	}
}

func TestParseCommand_NotReviewList(t *testing.T) {
	dir := t.TempDir()
	page := writeFile(t, dir, "other.html", `<html><body><p>nothing here</p></body></html>`)

	_, err := run(t, "parse", page, "--print", "--url", "")
	if err == nil {
		t.Fatal("expected an error for a page without reviews")
	}
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	result := models.NewCrawlResult(
		models.ProductInfo{Title: "Wireless Mouse", Price: "$19.99", SourceURL: "https://www.amazon.com/dp/B000"},
		[]models.Review{{ID: "R1", PageNumber: 1, ReviewerName: "Ann", Rating: "5.0 out of 5 stars", Text: "Great", ImageURLs: []string{}}},
	)
	data, err := json.Marshal(result)
	if err != nil {
		t.Fatal(err)
	}
	in := writeFile(t, dir, "result.json", string(data))
	out := t.TempDir()

	printed, err := run(t, "export", in, "-f", "csv", "-f", "md", "-o", out)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	for _, name := range []string{"amazon_Wireless_Mouse_reviews.csv", "amazon_Wireless_Mouse_reviews.md"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
		if !strings.Contains(printed, name) {
			t.Errorf("expected %s in output, got %q", name, printed)
		}
	}
}

func TestSlotShow_Empty(t *testing.T) {
	out, err := run(t, "slot", "show")
	if err != nil {
		t.Fatalf("slot show failed: %v", err)
	}
	if !strings.Contains(out, "No product info saved.") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{
		512:             "512 B",
		2048:            "2.0 KB",
		5 * 1024 * 1024: "5.0 MB",
	}
	for in, want := range tests {
		if got := formatBytes(in); got != want {
			t.Errorf("formatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}
