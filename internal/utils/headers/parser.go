package headers

import (
	"fmt"
	"strings"
)

// ParseHeaders converts "Key: Value" strings from the command line into a map.
// Entries without a colon or with an empty key are rejected.
func ParseHeaders(h []string) (map[string]string, error) {
	m := make(map[string]string, len(h))
	for _, hdr := range h {
		parts := strings.SplitN(hdr, ":", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
			return nil, fmt.Errorf("malformed header %q: expected \"Key: Value\"", hdr)
		}
		m[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return m, nil
}
