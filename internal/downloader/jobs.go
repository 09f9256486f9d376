package downloader

import (
	"net/url"
	"path"
	"strconv"

	"github.com/law-makers/revscrape/internal/extract"
	"github.com/law-makers/revscrape/pkg/models"
)

// Job is one review image to fetch
type Job struct {
	URL      string
	Filename string
	ReviewID string
}

// Jobs lists every image of every review in result order. Files are named
// <reviewID>_<index>_<original name>, falling back to <reviewID>_<index>.jpg.
func Jobs(result *models.CrawlResult) []Job {
	jobs := []Job{}
	if result == nil {
		return jobs
	}
	for _, r := range result.Reviews {
		id := r.ID
		if id == "" {
			id = "no_id"
		}
		for i, raw := range r.ImageURLs {
			u := extract.HighResImageURL(raw)
			if u == models.ImageNotFound {
				continue
			}
			name := id + "_" + strconv.Itoa(i) + ".jpg"
			if parsed, err := url.Parse(u); err == nil {
				if base := path.Base(parsed.Path); base != "." && base != "/" && base != "" {
					name = id + "_" + strconv.Itoa(i) + "_" + base
				}
			}
			jobs = append(jobs, Job{URL: u, Filename: sanitizeFilename(name), ReviewID: r.ID})
		}
	}
	return jobs
}
