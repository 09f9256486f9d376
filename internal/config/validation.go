package config

import (
	"fmt"

	"github.com/andybalholm/cascadia"
)

func validate(c *Config) error {
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be > 0")
	}
	if c.PageDelay < 0 {
		return fmt.Errorf("page delay must be >= 0")
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("max pages must be >= 0")
	}
	if c.DownloadConcurrency <= 0 || c.DownloadConcurrency > MaxDownloadConcurrency {
		return fmt.Errorf("download concurrency must be between 1 and %d", MaxDownloadConcurrency)
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("cache size must be > 0")
	}
	switch c.SlotBackend {
	case "keyring", "file", "memory":
	default:
		return fmt.Errorf("unknown slot backend %q (must be keyring, file or memory)", c.SlotBackend)
	}
	for name, sel := range c.Selectors.all() {
		if sel == "" {
			return fmt.Errorf("selector %s is empty", name)
		}
		if _, err := cascadia.Compile(sel); err != nil {
			return fmt.Errorf("selector %s: %w", name, err)
		}
	}
	return nil
}
