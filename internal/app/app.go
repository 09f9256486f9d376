// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/revscrape/internal/browser"
	"github.com/law-makers/revscrape/internal/config"
	"github.com/law-makers/revscrape/internal/crawler"
	"github.com/law-makers/revscrape/internal/dom"
	"github.com/law-makers/revscrape/internal/downloader"
	"github.com/law-makers/revscrape/internal/extract"
	"github.com/law-makers/revscrape/internal/ratelimit"
	"github.com/law-makers/revscrape/internal/static"
	"github.com/law-makers/revscrape/internal/store"
	"github.com/law-makers/revscrape/pkg/models"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once per command run. Use Close() to release the browser and
// idle connections.
type Application struct {
	Config      *config.Config
	Logger      *zerolog.Logger
	Slot        store.Slot
	Metrics     *crawler.Metrics
	Extractor   *extract.Extractor
	RateLimiter ratelimit.RateLimiter
	HTTPClient  *http.Client

	tabMu     sync.Mutex
	tab       *browser.Tab
	startTime time.Time
}

// PageOptions controls how a page is opened
type PageOptions struct {
	Mode    models.PageMode
	Headers map[string]string
}

// CrawlOptions tunes the pagination driver for one command
type CrawlOptions struct {
	MaxPages  int
	PageDelay time.Duration
	OnPage    func(page, total int)
}

// New creates and initializes a new Application with all dependencies.
// No browser is started until a page is opened in browser mode.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := setupLogging(cfg)

	if cfg.Proxy != "" {
		if _, err := parseProxy(cfg.Proxy); err != nil {
			return nil, fmt.Errorf("invalid proxy: %w", err)
		}
	}

	slot, err := store.Open(cfg.SlotBackend, cfg.SlotDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open product slot: %w", err)
	}
	logger.Debug().Str("backend", cfg.SlotBackend).Msg("Product slot ready")

	metrics := crawler.NewMetrics()
	ext := extract.New(cfg.Selectors)
	ext.OnFault = metrics.ExtractionFault

	rateLimiter := ratelimit.NewHostLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
		Transport: &http.Transport{
			Proxy:               proxyFunc(cfg.Proxy),
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	logger.Debug().
		Dur("timeout", cfg.HTTPTimeout).
		Float64("rps", cfg.RateLimitRPS).
		Msg("Application initialized")

	return &Application{
		Config:      cfg,
		Logger:      logger,
		Slot:        slot,
		Metrics:     metrics,
		Extractor:   ext,
		RateLimiter: rateLimiter,
		HTTPClient:  httpClient,
		startTime:   time.Now(),
	}, nil
}

func setupLogging(cfg *config.Config) *zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(level)

	var w io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	if cfg.JSONLog {
		w = os.Stderr
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return &log.Logger
}

// OpenPage positions a page on url using the requested backend
func (a *Application) OpenPage(ctx context.Context, url string, opts PageOptions) (dom.Page, error) {
	switch opts.Mode {
	case models.ModeStatic:
		fetcher := static.NewFetcher(a.HTTPClient, a.RateLimiter, a.Config.CacheSize, a.Config.CacheTTL, a.Config.UserAgent, opts.Headers)
		page, err := static.Open(ctx, fetcher, url)
		if err != nil {
			return nil, err
		}
		return page, nil
	case models.ModeBrowser, "":
		tab, err := a.ensureTab(opts.Headers)
		if err != nil {
			return nil, err
		}
		if err := tab.Navigate(ctx, url); err != nil {
			return nil, err
		}
		return tab, nil
	default:
		return nil, fmt.Errorf("unknown mode %q (must be browser or static)", opts.Mode)
	}
}

func (a *Application) ensureTab(headers map[string]string) (*browser.Tab, error) {
	a.tabMu.Lock()
	defer a.tabMu.Unlock()

	if a.tab != nil {
		return a.tab, nil
	}

	a.Logger.Debug().Msg("Starting browser on demand")
	tab, err := browser.Launch(browser.Options{
		ChromePath: a.Config.ChromePath,
		Headless:   a.Config.BrowserHeadless,
		UserAgent:  a.Config.UserAgent,
		Proxy:      a.Config.Proxy,
		Headers:    headers,
		Timeout:    a.Config.BrowserTimeout,
	})
	if err != nil {
		return nil, err
	}
	a.tab = tab
	return tab, nil
}

// NewDriver builds a pagination driver sharing the application's extractor,
// slot and metrics
func (a *Application) NewDriver(opts CrawlOptions) *crawler.Driver {
	return &crawler.Driver{
		Extractor: a.Extractor,
		Slot:      a.Slot,
		Settler:   crawler.FixedDelay(opts.PageDelay),
		Metrics:   a.Metrics,
		MaxPages:  opts.MaxPages,
		OnPage:    opts.OnPage,
	}
}

// NewDownloadPool returns a worker pool for review images. A concurrency of
// zero uses the configured value.
func (a *Application) NewDownloadPool(headers map[string]string, concurrency int) *downloader.WorkerPool {
	if concurrency <= 0 {
		concurrency = a.Config.DownloadConcurrency
	}
	d := downloader.NewDownloader(a.Config.HTTPTimeout*2, a.RateLimiter, a.Config.UserAgent, headers, proxyFunc(a.Config.Proxy))
	return downloader.NewWorkerPool(d, concurrency)
}

// Close gracefully shuts down the application and all its resources.
func (a *Application) Close(ctx context.Context) error {
	a.tabMu.Lock()
	if a.tab != nil {
		if err := a.tab.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Error closing browser")
		}
		a.tab = nil
	}
	a.tabMu.Unlock()

	if a.HTTPClient != nil {
		a.HTTPClient.CloseIdleConnections()
	}

	a.Logger.Debug().Dur("uptime", a.Uptime()).Msg("Application shutdown complete")
	return nil
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
