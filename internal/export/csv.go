package export

import (
	"bytes"
	"encoding/csv"
	"strings"

	"github.com/law-makers/revscrape/pkg/models"
)

// CSVHeader is the first row of every CSV export
var CSVHeader = []string{
	"Review ID", "Reviewer Name", "Rating", "Review Text", "Image URLs",
	"Product Title", "Product Price", "Product URL",
}

// NoReviewsRow is written in place of data rows when the result is empty
var NoReviewsRow = []string{"No reviews found", "", "", "", "", "", "", ""}

// CSV writes one row per review with the product repeated on every row.
// Fields have line breaks collapsed and are quoted only when needed.
func CSV(result *models.CrawlResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(CSVHeader); err != nil {
		return nil, err
	}

	if len(result.Reviews) == 0 {
		if err := w.Write(NoReviewsRow); err != nil {
			return nil, err
		}
	}

	product := result.Product
	for _, r := range result.Reviews {
		row := []string{
			r.ID,
			r.ReviewerName,
			r.Rating,
			r.Text,
			strings.Join(r.ImageURLs, " | "),
			orNA(product.Title),
			orNA(product.Price),
			orNA(product.SourceURL),
		}
		for i := range row {
			row[i] = collapseNewlines(row[i])
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
