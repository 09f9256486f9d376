// Package browser drives a single Chrome tab through chromedp. The tab
// implements dom.Page so the crawler can paginate a live review list.
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/revscrape/internal/dom"
)

// ErrClosed is returned by operations on a closed Tab
var ErrClosed = errors.New("browser tab is closed")

// Options configures the browser
type Options struct {
	ChromePath string
	Headless   bool
	UserAgent  string
	Proxy      string
	Headers    map[string]string
	// Timeout bounds each individual browser call
	Timeout time.Duration
}

// Tab is one Chrome tab owned by the crawler
type Tab struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	timeout     time.Duration

	mu     sync.Mutex
	closed bool
}

// launchFlags are the Chrome switches every tab starts with
var launchFlags = map[string]interface{}{
	"disable-gpu":                   true,
	"no-sandbox":                    true,
	"disable-dev-shm-usage":         true,
	"disable-extensions":            true,
	"disable-background-networking": true,
	"disable-sync":                  true,
	"disable-translate":             true,
	"mute-audio":                    true,
	"window-size":                   "1920,1080",
}

// Launch starts Chrome and opens a blank tab
func Launch(opts Options) (*Tab, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 45 * time.Second
	}

	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
	}
	for name, value := range launchFlags {
		allocOpts = append(allocOpts, chromedp.Flag(name, value))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if path := FindChrome(opts.ChromePath); path != "" {
		allocOpts = append([]chromedp.ExecAllocatorOption{chromedp.ExecPath(path)}, allocOpts...)
	}
	if opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if opts.Proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.Proxy))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	warmup := []chromedp.Action{network.Enable()}
	if len(opts.Headers) > 0 {
		h := make(network.Headers, len(opts.Headers))
		for k, v := range opts.Headers {
			h[k] = v
		}
		warmup = append(warmup, network.SetExtraHTTPHeaders(h))
	}
	warmup = append(warmup, chromedp.Navigate("about:blank"))

	if err := chromedp.Run(tabCtx, warmup...); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	log.Debug().Bool("headless", opts.Headless).Msg("Browser tab ready")

	return &Tab{
		ctx:         tabCtx,
		cancel:      tabCancel,
		allocCancel: allocCancel,
		timeout:     opts.Timeout,
	}, nil
}

// run executes actions bounded by the tab timeout and the caller's context
func (t *Tab) run(ctx context.Context, actions ...chromedp.Action) error {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return ErrClosed
	}

	runCtx, cancel := context.WithTimeout(t.ctx, t.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Navigate loads url and waits for the body to be ready
func (t *Tab) Navigate(ctx context.Context, url string) error {
	log.Debug().Str("url", url).Msg("Navigating")
	if err := t.run(ctx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// Snapshot serializes the current document and parses it
func (t *Tab) Snapshot(ctx context.Context) (dom.Node, error) {
	var html string
	if err := t.run(ctx,
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("failed to snapshot page: %w", err)
	}
	return dom.ParseString(html)
}

// Activate clicks the first element matching selector
func (t *Tab) Activate(ctx context.Context, selector string) error {
	quoted, err := json.Marshal(selector)
	if err != nil {
		return err
	}
	script := fmt.Sprintf(`(function() {
	const el = document.querySelector(%s);
	if (!el) return false;
	el.click();
	return true;
})()`, quoted)

	var clicked bool
	if err := t.run(ctx, chromedp.Evaluate(script, &clicked)); err != nil {
		return fmt.Errorf("failed to activate %q: %w", selector, err)
	}
	if !clicked {
		return fmt.Errorf("no element matches %q", selector)
	}
	return nil
}

// Location returns the address of the current document
func (t *Tab) Location(ctx context.Context) (string, error) {
	var loc string
	if err := t.run(ctx, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return strings.TrimSpace(loc), nil
}

// Close shuts the tab and the browser process
func (t *Tab) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	t.cancel()
	t.allocCancel()
	log.Debug().Msg("Browser closed")
	return nil
}
