package export

import (
	"bytes"
	"fmt"

	"github.com/law-makers/revscrape/pkg/models"
)

const (
	banner    = "======================================"
	separator = "--------------------------------------"
)

// TXT renders a human readable report. Review text is never truncated.
func TXT(result *models.CrawlResult) []byte {
	var b bytes.Buffer

	fmt.Fprintln(&b, banner)
	fmt.Fprintln(&b, "  Amazon Product Review Report")
	fmt.Fprintln(&b, banner)
	fmt.Fprintf(&b, "Product Title: %s\n", orNA(result.Product.Title))
	fmt.Fprintf(&b, "Product Price: %s\n", orNA(result.Product.Price))
	fmt.Fprintf(&b, "Product URL: %s\n", orNA(result.Product.SourceURL))
	fmt.Fprintf(&b, "Total Reviews: %d\n", result.TotalReviews)
	fmt.Fprintln(&b, separator)
	fmt.Fprintln(&b)

	for i, r := range result.Reviews {
		name := r.ReviewerName
		if name == "" {
			name = models.AnonymousName
		}
		fmt.Fprintf(&b, "[%d] Reviewer: %s\n", i+1, name)
		fmt.Fprintf(&b, "    Rating: %s\n", orNA(r.Rating))
		fmt.Fprintf(&b, "    Text: %s\n", collapseNewlines(orNA(r.Text)))
		if len(r.ImageURLs) > 0 {
			fmt.Fprintf(&b, "    Images: %d\n", len(r.ImageURLs))
			for j, u := range r.ImageURLs {
				fmt.Fprintf(&b, "    - Image %d: %s\n", j+1, u)
			}
		}
		fmt.Fprintln(&b)
	}

	return b.Bytes()
}
