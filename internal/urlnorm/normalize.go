// Package urlnorm canonicalizes raw URL strings before they enter the
// crawl frontier or any cache keyed by URL. Every set and queue operation
// in the crawler works on normalized URLs only.
package urlnorm

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/purell"
)

// Conservative flag set: lowercases scheme/host, drops default ports and
// fragments. Trailing slashes and query ordering are left untouched, so
// /a and /a/ remain distinct pages.
const normalizationFlags = purell.FlagLowercaseScheme |
	purell.FlagLowercaseHost |
	purell.FlagRemoveDefaultPort |
	purell.FlagRemoveFragment

// Normalize turns a raw URL string into its canonical form. It trims
// whitespace, repairs a doubled scheme prefix, prepends https:// when no
// scheme is present, and validates that the result parses with a host.
// Normalize is idempotent.
func Normalize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("empty URL")
	}

	s = collapseDoubledScheme(s)

	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		s = "https://" + s
	}

	normalized, err := purell.NormalizeURLString(s, normalizationFlags)
	if err != nil {
		return "", fmt.Errorf("unparsable URL %q: %w", raw, err)
	}

	u, err := url.Parse(normalized)
	if err != nil {
		return "", fmt.Errorf("unparsable URL %q: %w", raw, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("URL %q has no host", raw)
	}

	return normalized, nil
}

// collapseDoubledScheme strips repeated scheme prefixes such as
// "https://https://example.com", a typo seen in hand-entered audit URLs.
func collapseDoubledScheme(s string) string {
	for {
		lower := strings.ToLower(s)
		switch {
		case strings.HasPrefix(lower, "https://https://"), strings.HasPrefix(lower, "https://http://"):
			s = s[len("https://"):]
		case strings.HasPrefix(lower, "http://https://"), strings.HasPrefix(lower, "http://http://"):
			s = s[len("http://"):]
		default:
			return s
		}
	}
}
