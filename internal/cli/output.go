package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"

	"github.com/law-makers/revscrape/internal/app"
	"github.com/law-makers/revscrape/internal/downloader"
	"github.com/law-makers/revscrape/internal/export"
	"github.com/law-makers/revscrape/internal/ui"
	"github.com/law-makers/revscrape/pkg/models"
)

// stdout is swapped out by tests
var stdout io.Writer = os.Stdout

func errorMark() string {
	return ui.Error("✗")
}

// progressWriter is where progress bars draw. They are hidden for quiet or
// JSON logging so machine-readable stderr stays clean.
func progressWriter(a *app.Application) io.Writer {
	if a.Config.JSONLog || a.Config.LogLevel == "error" {
		return io.Discard
	}
	return os.Stderr
}

// newPageProgress returns a spinner and an OnPage callback advancing it
func newPageProgress(a *app.Application) (*progressbar.ProgressBar, func(page, total int)) {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(progressWriter(a)),
		progressbar.OptionSetDescription("Crawling reviews"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	return bar, func(page, total int) {
		bar.Describe(fmt.Sprintf("Page %d, %d reviews", page, total))
		_ = bar.Add(1)
	}
}

// writeResult renders result in format and saves it under dir
func writeResult(result *models.CrawlResult, format export.Format, dir string) (string, error) {
	artifact, err := export.Render(result, format)
	if err != nil {
		return "", err
	}
	path, err := export.Save(dir, artifact)
	if err != nil {
		return "", err
	}
	log.Info().Str("file", path).Str("format", string(format)).Msg("Output saved")
	return path, nil
}

func printSummary(result *models.CrawlResult, path string) {
	fmt.Fprintf(stdout, "\n%s %s\n", ui.Success("✓"), ui.Bold(fmt.Sprintf("Collected %d review(s)", result.TotalReviews)))
	fmt.Fprintln(stdout, "  "+ui.Field("Product:", result.Product.Title))
	fmt.Fprintln(stdout, "  "+ui.Field("Price:", result.Product.Price))
	fmt.Fprintln(stdout, "  "+ui.Field("Source:", result.Product.SourceURL))
	if path != "" {
		fmt.Fprintln(stdout, "  "+ui.Field("Saved to:", path))
	}
}

type imageOptions struct {
	dir         string
	zip         bool
	concurrency int
	headers     map[string]string
}

// downloadImages fetches every review image in result into opts.dir and
// optionally bundles them into a zip archive next to it
func downloadImages(ctx context.Context, a *app.Application, result *models.CrawlResult, opts imageOptions) error {
	jobs := downloader.Jobs(result)
	if len(jobs) == 0 {
		fmt.Fprintln(stdout, "\n"+ui.Info("No review images to download."))
		return nil
	}

	absDir, err := filepath.Abs(opts.dir)
	if err != nil {
		return fmt.Errorf("invalid output directory: %w", err)
	}

	bar := progressbar.NewOptions(len(jobs),
		progressbar.OptionSetWriter(progressWriter(a)),
		progressbar.OptionSetDescription("Downloading images"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	pool := a.NewDownloadPool(opts.headers, opts.concurrency)
	results := pool.Run(ctx, jobs, absDir, func(*downloader.DownloadResult) {
		_ = bar.Add(1)
	})
	_ = bar.Finish()

	failed := printDownloads(results, absDir)

	if opts.zip {
		if err := writeArchive(result, results, filepath.Dir(absDir)); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d download(s) failed", failed)
	}
	return nil
}

func printDownloads(results []*downloader.DownloadResult, dir string) int {
	success, failed := 0, 0
	totalSize := int64(0)
	totalDuration := time.Duration(0)

	fmt.Fprintln(stdout, "\n"+ui.Bold("Download Results:"))
	fmt.Fprintln(stdout, strings.Repeat("=", 80))
	for i, r := range results {
		if r.Success {
			success++
			totalSize += r.Size
			totalDuration += r.Duration
			fmt.Fprintf(stdout, "%s [%d/%d] %s %s\n", ui.Success("✓"), i+1, len(results),
				ui.Value(filepath.Base(r.FilePath)),
				ui.Dim(formatBytes(r.Size)))
			continue
		}
		failed++
		fmt.Fprintf(stdout, "%s [%d/%d] %s\n", errorMark(), i+1, len(results), ui.Value(r.Job.URL))
		fmt.Fprintf(stdout, "  %s %s\n", ui.Dim("Error:"), ui.Error(fmt.Sprintf("%v", r.Error)))
	}
	fmt.Fprintln(stdout, strings.Repeat("=", 80))

	fmt.Fprintf(stdout, "  %s %s\n", ui.ColorBold+"Success:"+ui.ColorReset, ui.Success(fmt.Sprintf("%d", success)))
	fmt.Fprintf(stdout, "  %s %s\n", ui.ColorBold+"Failed:"+ui.ColorReset, ui.Error(fmt.Sprintf("%d", failed)))
	fmt.Fprintf(stdout, "  %s %s\n", ui.ColorBold+"Total Size:"+ui.ColorReset, ui.ColorWhite+formatBytes(totalSize)+ui.ColorReset)
	if success > 0 {
		avg := totalDuration / time.Duration(success)
		fmt.Fprintf(stdout, "  %s %s\n", ui.ColorBold+"Average Time:"+ui.ColorReset, ui.ColorWhite+avg.Round(time.Millisecond).String()+ui.ColorReset)
	}
	fmt.Fprintf(stdout, "  %s %s\n", ui.ColorBold+"Output Directory:"+ui.ColorReset, ui.ColorWhite+dir+ui.ColorReset)
	return failed
}

func writeArchive(result *models.CrawlResult, results []*downloader.DownloadResult, dir string) error {
	path := filepath.Join(dir, downloader.ArchiveName(result.Product.Title))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	n, err := downloader.Zip(f, results)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}
	log.Info().Str("file", path).Int("images", n).Msg("Archive written")
	fmt.Fprintf(stdout, "%s %s (%d images)\n", ui.Success("✓"), path, n)
	return nil
}

// formatBytes formats byte count as human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
