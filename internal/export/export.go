// Package export renders a crawl result as JSON, CSV, a plain text report or
// Markdown. Every renderer accepts any result, including one without reviews.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/law-makers/revscrape/pkg/models"
)

// Format is an export format
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatTXT      Format = "txt"
	FormatMarkdown Format = "md"
)

// Formats lists the supported formats
var Formats = []Format{FormatJSON, FormatCSV, FormatTXT, FormatMarkdown}

// ParseFormat maps a user supplied name onto a Format
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "txt", "text":
		return FormatTXT, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported format %q (must be json, csv, txt or md)", s)
	}
}

// Extension returns the file extension including the dot
func (f Format) Extension() string {
	return "." + string(f)
}

// MIMEType returns the content type of the format
func (f Format) MIMEType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatTXT:
		return "text/plain;charset=utf-8"
	case FormatMarkdown:
		return "text/markdown;charset=utf-8"
	default:
		return "application/json"
	}
}

// Artifact is a rendered export ready to be written
type Artifact struct {
	Data     []byte
	MIMEType string
	Filename string
}

// Render encodes result in format
func Render(result *models.CrawlResult, format Format) (*Artifact, error) {
	if result == nil {
		return nil, fmt.Errorf("nothing to export")
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		data, err = JSON(result)
	case FormatCSV:
		data, err = CSV(result)
	case FormatTXT:
		data = TXT(result)
	case FormatMarkdown:
		data, err = Markdown(result)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", format, err)
	}

	return &Artifact{
		Data:     data,
		MIMEType: format.MIMEType(),
		Filename: Filename(result.Product.Title, format),
	}, nil
}

// Filename builds amazon_<title>_reviews<ext> from the first 30 characters of
// the title. Characters other than ASCII letters, digits and CJK ideographs
// become underscores. An empty title yields "data".
func Filename(title string, format Format) string {
	base := "data"
	if title != "" {
		runes := []rune(title)
		if len(runes) > 30 {
			runes = runes[:30]
		}
		for i, r := range runes {
			if !keepInFilename(r) {
				runes[i] = '_'
			}
		}
		base = string(runes)
	}
	return "amazon_" + base + "_reviews" + format.Extension()
}

func keepInFilename(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r >= 0x4e00 && r <= 0x9fa5:
		return true
	}
	return false
}

// Save writes the artifact into dir and returns the full path
func Save(dir string, a *Artifact) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	path := filepath.Join(dir, a.Filename)
	if err := os.WriteFile(path, a.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// collapseNewlines replaces each line break with a space and trims the result
func collapseNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.TrimSpace(s)
}

func orNA(s string) string {
	if s == "" {
		return models.NotAvailable
	}
	return s
}
