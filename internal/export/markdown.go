package export

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/law-makers/revscrape/pkg/models"
)

// Markdown renders the product as a table followed by one section per review
func Markdown(result *models.CrawlResult) ([]byte, error) {
	var buf bytes.Buffer
	md := markdown.NewMarkdown(&buf)

	md.H1("Review Report: " + orNA(result.Product.Title))
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Price", cell(orNA(result.Product.Price))},
			{"Source", cell(orNA(result.Product.SourceURL))},
			{"Total Reviews", strconv.Itoa(result.TotalReviews)},
		},
	})
	md.PlainText("")

	if len(result.Reviews) == 0 {
		md.Note("No reviews found.")
		return build(md, &buf)
	}

	for i, r := range result.Reviews {
		md.H2(strconv.Itoa(i+1) + ". " + r.ReviewerName + " (" + r.Rating + ")")
		md.PlainText("")
		md.PlainTextf("*Page %d, review `%s`*", r.PageNumber, r.ID)
		md.PlainText("")
		md.PlainText(collapseNewlines(r.Text))
		md.PlainText("")
		if len(r.ImageURLs) > 0 {
			md.BulletList(r.ImageURLs...)
			md.PlainText("")
		}
	}

	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated by revscrape*")

	return build(md, &buf)
}

func build(md *markdown.Markdown, buf *bytes.Buffer) ([]byte, error) {
	if err := md.Build(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// cell escapes table separators
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
