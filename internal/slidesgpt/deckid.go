package slidesgpt

import (
	"net/url"
	"strings"
)

// ExtractDeckID recovers the remote deck identifier from a presentation view
// URL.  The service never returns the deck id as a field; the only place it
// appears is the final path segment of the view URL, e.g.
//
//	https://slidesgpt.com/view/abc123def          -> "abc123def"
//	https://slidesgpt.com/view/abc123def?slide=2  -> "abc123def"
//	https://slidesgpt.com/view/abc123def/         -> "abc123def"
//
// Reports false for an unparsable URL or one with an empty path.  All deck-id
// parsing goes through this one function so a change in the remote URL shape
// has a single place to land.
func ExtractDeckID(viewURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(viewURL))
	if err != nil {
		return "", false
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if seg := strings.TrimSpace(segments[i]); seg != "" {
			return seg, true
		}
	}
	return "", false
}
