package urlutil

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateURL checks that urlStr is an absolute http(s) URL
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: must be http or https, got %s", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("invalid URL: missing host")
	}

	return nil
}

// ValidateStoreURL checks urlStr and requires hostPattern to appear in its host
func ValidateStoreURL(urlStr, hostPattern string) error {
	if err := ValidateURL(urlStr); err != nil {
		return err
	}
	if hostPattern == "" {
		return nil
	}
	u, _ := url.Parse(urlStr)
	if !strings.Contains(strings.ToLower(u.Hostname()), strings.ToLower(hostPattern)) {
		return fmt.Errorf("unsupported host %s: expected a host containing %q", u.Hostname(), hostPattern)
	}
	return nil
}

// ResolveURL resolves a possibly-relative href against a base URL and returns a string
func ResolveURL(base, href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if u.IsAbs() {
		return href
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(u).String()
}

// LooksLikeReviewList reports whether location already points at a review list
func LooksLikeReviewList(location, marker string) bool {
	return marker != "" && strings.Contains(location, marker)
}
