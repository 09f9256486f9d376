package extract

import (
	"regexp"

	"github.com/law-makers/revscrape/pkg/models"
)

var (
	// single-letter size tokens such as _S300_
	sizeToken = regexp.MustCompile(`[._](S|s|L|X|T|P|C|B|W|H|I|E|F|K|M|R|Y)\d{1,4}_`)
	// compound modifiers such as ._SY88_ or ._SL1500_
	modifierToken = regexp.MustCompile(`\._[A-Z]{1,4}\d{1,4}_`)
)

// HighResImageURL strips Amazon thumbnail modifiers from an image URL so it
// points at the full-size asset. Both rewrites are applied until the URL no
// longer changes. An empty URL yields models.ImageNotFound.
func HighResImageURL(raw string) string {
	if raw == "" {
		return models.ImageNotFound
	}

	out := raw
	for {
		next := sizeToken.ReplaceAllString(out, "")
		next = modifierToken.ReplaceAllString(next, "")
		if next == out {
			return out
		}
		out = next
	}
}
