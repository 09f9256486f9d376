// internal/cli/crawl.go
package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/law-makers/revscrape/internal/app"
	"github.com/law-makers/revscrape/internal/crawler"
	"github.com/law-makers/revscrape/internal/dom"
	"github.com/law-makers/revscrape/internal/export"
	"github.com/law-makers/revscrape/internal/ui"
	"github.com/law-makers/revscrape/internal/utils/headers"
	urlutil "github.com/law-makers/revscrape/internal/utils/url"
	"github.com/law-makers/revscrape/pkg/models"
)

var crawlFlags struct {
	mode        string
	format      string
	output      string
	maxPages    int
	pageDelay   time.Duration
	follow      bool
	images      bool
	imageDir    string
	zip         bool
	headers     []string
	metricsFile string
}

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl <url>",
	Short: "Collect every review from a product page or review list",
	Long: `Opens the URL and collects reviews page by page until the next-page
control disappears or is disabled.

Given a product page, the title and price are captured first and the full
review list is opened. With --follow (the default) the crawl then continues
there on its own.`,
	Example: `  # Crawl a product's reviews into JSON
  revscrape crawl https://www.amazon.com/dp/B0EXAMPLE

  # Export as CSV without a browser
  revscrape crawl https://www.amazon.com/product-reviews/B0EXAMPLE --mode=static -f csv

  # Download review images and zip them
  revscrape crawl https://www.amazon.de/dp/B0EXAMPLE --images --zip`,
	Args: cobra.ExactArgs(1),
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	f := crawlCmd.Flags()
	f.StringVarP(&crawlFlags.mode, "mode", "m", "", "Page backend: browser or static (default from config)")
	f.StringVarP(&crawlFlags.format, "format", "f", "", "Export format: json, csv, txt or md")
	f.StringVarP(&crawlFlags.output, "output", "o", "", "Directory to write the export to")
	f.IntVar(&crawlFlags.maxPages, "max-pages", 0, "Stop after this many pages (0 means no limit)")
	f.DurationVar(&crawlFlags.pageDelay, "page-delay", 0, "Wait after each page turn (e.g. 3s)")
	f.BoolVar(&crawlFlags.follow, "follow", true, "Continue into the review list after a product page")
	f.BoolVar(&crawlFlags.images, "images", false, "Download review images after crawling")
	f.StringVar(&crawlFlags.imageDir, "image-dir", "review_images", "Directory for downloaded images")
	f.BoolVar(&crawlFlags.zip, "zip", false, "Bundle downloaded images into a zip archive")
	f.StringArrayVarP(&crawlFlags.headers, "header", "H", []string{}, "Custom headers (e.g., -H \"Accept-Language: de-DE\")")
	f.StringVar(&crawlFlags.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file when done")
}

func runCrawl(cmd *cobra.Command, args []string) error {
	a, err := mustApp(cmd)
	if err != nil {
		return err
	}
	target := args[0]
	if err := urlutil.ValidateStoreURL(target, a.Config.HostPattern); err != nil {
		return err
	}

	headerMap, err := headers.ParseHeaders(crawlFlags.headers)
	if err != nil {
		return err
	}
	format, err := export.ParseFormat(orDefault(crawlFlags.format, a.Config.Format))
	if err != nil {
		return err
	}
	mode := models.PageMode(orDefault(crawlFlags.mode, a.Config.Mode))

	opts := crawlOptions(cmd, a)
	if crawlFlags.metricsFile != "" {
		defer writeMetrics(a, crawlFlags.metricsFile)
	}

	ctx := cmd.Context()
	log.Debug().Str("url", target).Str("mode", string(mode)).Msg("Opening page")
	page, err := a.OpenPage(ctx, target, app.PageOptions{Mode: mode, Headers: headerMap})
	if err != nil {
		return fmt.Errorf("failed to open page: %w", err)
	}

	result, err := crawlPage(ctx, a, page, target, opts, crawlFlags.follow, nil)
	if err != nil || result == nil {
		return err
	}

	path, err := writeResult(result, format, orDefault(crawlFlags.output, a.Config.OutputDir))
	if err != nil {
		return err
	}
	printSummary(result, path)

	if crawlFlags.images {
		return downloadImages(ctx, a, result, imageOptions{
			dir:     crawlFlags.imageDir,
			zip:     crawlFlags.zip,
			headers: headerMap,
		})
	}
	return nil
}

// crawlOptions applies command flags over the configured pacing
func crawlOptions(cmd *cobra.Command, a *app.Application) app.CrawlOptions {
	opts := app.CrawlOptions{
		MaxPages:  a.Config.MaxPages,
		PageDelay: a.Config.PageDelay,
	}
	if cmd.Flags().Changed("max-pages") {
		opts.MaxPages = crawlFlags.maxPages
	}
	if cmd.Flags().Changed("page-delay") {
		opts.PageDelay = crawlFlags.pageDelay
	}
	return opts
}

// crawlPage issues a scrape command against page. When the page hands off to
// the review list and follow is set, the command is re-issued once there.
// A nil result with a nil error means the handoff was not followed.
// remaining, when set, caps each crawl at the pages left in a saved sequence.
func crawlPage(ctx context.Context, a *app.Application, page dom.Page, location string, opts app.CrawlOptions, follow bool, remaining func() int) (*models.CrawlResult, error) {
	bar, onPage := newPageProgress(a)
	opts.OnPage = onPage
	defer bar.Finish()

	driver := a.NewDriver(opts)
	svc := crawler.NewService(driver, page, a.Config.ReviewListMarker)
	if remaining != nil {
		driver.MaxPages = remaining()
	}

	resp := svc.Handle(ctx, models.Command{Action: models.ActionScrape, URL: location})
	if resp.Status == models.StatusNavigating {
		if !follow {
			fmt.Fprintf(stdout, "%s %s\n", ui.Info("→"), resp.Message)
			return nil, nil
		}
		if err := driver.Settler.Settle(ctx); err != nil {
			return nil, err
		}
		if remaining != nil {
			driver.MaxPages = remaining()
		}
		// The review list is re-checked at its own location
		resp = svc.Handle(ctx, models.Command{Action: models.ActionScrape})
	}

	switch resp.Status {
	case models.StatusSuccess:
		return resp.Data, nil
	case models.StatusNavigating:
		return nil, errors.New("review list did not load after navigation")
	default:
		return nil, errors.New(resp.Message)
	}
}

func writeMetrics(a *app.Application, path string) {
	if err := a.Metrics.WriteFile(path); err != nil {
		log.Warn().Err(err).Str("file", path).Msg("Failed to write metrics")
		return
	}
	log.Debug().Str("file", path).Msg("Metrics written")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
