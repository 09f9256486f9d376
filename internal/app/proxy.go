package app

import (
	"fmt"
	"net/http"
	"net/url"
)

// proxyFunc routes HTTP requests through raw when it is set, otherwise
// through the environment's proxy settings
func proxyFunc(raw string) func(*http.Request) (*url.URL, error) {
	if raw == "" {
		return http.ProxyFromEnvironment
	}
	u, err := parseProxy(raw)
	if err != nil {
		return http.ProxyFromEnvironment
	}
	return http.ProxyURL(u)
}

func parseProxy(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "http", "https", "socks5", "socks5h":
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("proxy %q has no host", raw)
	}
	return u, nil
}
