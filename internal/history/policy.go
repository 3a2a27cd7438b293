package history

import (
	"slices"
	"time"
)

// DefaultRetention is how long entries are kept.
const DefaultRetention = 7 * 24 * time.Hour

// DefaultMaxItems is the default number of entries shown to the user.
const DefaultMaxItems = 25

// SortNewestFirst orders items by capture time, newest first. Entries with
// equal timestamps keep their relative order.
func SortNewestFirst(items []Item) {
	slices.SortStableFunc(items, func(a, b Item) int {
		return b.CapturedAt.Compare(a.CapturedAt)
	})
}

// Expired reports whether it is older than retention at now.
func Expired(it Item, now time.Time, retention time.Duration) bool {
	return now.Sub(it.CapturedAt) > retention
}

// Dedupe keeps the first item for each fingerprint, in order. Items without
// a fingerprint are dropped.
func Dedupe(items []Item) (kept, dropped []Item) {
	seen := make(map[string]struct{}, len(items))
	kept = make([]Item, 0, len(items))
	for _, it := range items {
		if it.Fingerprint == "" {
			dropped = append(dropped, it)
			continue
		}
		if _, dup := seen[it.Fingerprint]; dup {
			dropped = append(dropped, it)
			continue
		}
		seen[it.Fingerprint] = struct{}{}
		kept = append(kept, it)
	}
	return kept, dropped
}

// Recent returns up to n items, newest first, without modifying items.
// n <= 0 returns all of them.
func Recent(items []Item, n int) []Item {
	out := slices.Clone(items)
	SortNewestFirst(out)
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
