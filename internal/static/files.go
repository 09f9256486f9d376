package static

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/law-makers/revscrape/internal/dom"
)

// OpenFiles builds a Sequence from saved HTML files in the given order
func OpenFiles(paths ...string) (*Sequence, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files given")
	}
	s := &Sequence{}
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		root, err := dom.Parse(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		s.pages = append(s.pages, root)
		s.locations = append(s.locations, (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String())
	}
	return s, nil
}
