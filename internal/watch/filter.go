package watch

import (
	"slices"
	"strings"
	"unicode/utf8"

	"go.klb.dev/recall/internal/fingerprint"
)

// MinTextLen is the shortest text, in characters after line-ending
// normalization, worth keeping. Surrounding whitespace counts.
const MinTextLen = 3

// DefaultBlocklist holds fragments that are copied by accident far more
// often than on purpose.
var DefaultBlocklist = []string{"#", "...", "# ...", "@"}

// Filter decides whether sampled text is worth recording.
type Filter struct {
	MinLen    int
	Blocklist []string
}

// DefaultFilter returns the filter used when none is configured.
func DefaultFilter() Filter {
	return Filter{MinLen: MinTextLen, Blocklist: slices.Clone(DefaultBlocklist)}
}

// Accept reports whether text should be captured.
func (f Filter) Accept(text string) bool {
	t := fingerprint.NormalizeText(text)
	if utf8.RuneCountInString(t) < f.MinLen {
		return false
	}
	return !slices.Contains(f.Blocklist, strings.TrimSpace(t))
}
