package config

import "time"

// AppName names the XDG directories holding the config file and the file slot
const AppName = "revscrape"

// Default constants for application configuration
const (
	DefaultLogLevel            = "info"
	DefaultJSONLog             = false
	DefaultUserAgent           = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	DefaultHTTPTimeout         = 30 * time.Second
	DefaultBrowserTimeout      = 45 * time.Second
	DefaultPageDelay           = 3000 * time.Millisecond
	DefaultMaxPages            = 0 // unlimited
	DefaultRateLimitRPS        = 1.0
	DefaultRateLimitBurst      = 2
	DefaultBrowserHeadless     = true
	DefaultMode                = "browser"
	DefaultFormat              = "json"
	DefaultOutputDir           = "."
	DefaultSlotBackend         = "keyring"
	DefaultCacheSize           = 64
	DefaultCacheTTL            = 5 * time.Minute
	DefaultDownloadConcurrency = 4
	MaxDownloadConcurrency     = 32
	DefaultHostPattern         = "amazon."
	DefaultReviewListMarker    = "customer-reviews"
)
