// Package history is the ordered, deduplicated, time-bounded log of captured
// clipboard entries and the JSON file that persists it.
//
// The file is an array of objects:
//
//	[{"type": "text", "content": "...", "timestamp": "2006-01-02 15:04:05", "hash": "..."}]
//
// For image entries content is the path of a PNG file owned by the entry.
package history

import (
	"encoding/json"
	"strings"
	"time"
)

// Kind is the type of a history entry.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// TimeLayout is the timestamp format used in the history file.
const TimeLayout = "2006-01-02 15:04:05"

// missingTimestamp is assumed for entries with no readable timestamp so they
// sort after everything else.
var missingTimestamp = time.Date(2000, 1, 1, 0, 0, 0, 0, time.Local)

// Item is one captured clipboard entry.
type Item struct {
	Kind        Kind
	Content     string
	Fingerprint string
	CapturedAt  time.Time
}

type record struct {
	Type      string `json:"type"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Hash      string `json:"hash"`
}

// MarshalJSON encodes the item in the history file format.
func (it Item) MarshalJSON() ([]byte, error) {
	return json.Marshal(record{
		Type:      string(it.Kind),
		Content:   it.Content,
		Timestamp: it.CapturedAt.Format(TimeLayout),
		Hash:      it.Fingerprint,
	})
}

// UnmarshalJSON decodes an item, tolerating missing fields. A missing or
// unparseable timestamp becomes 2000-01-01 00:00:00 local time.
func (it *Item) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var r record
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}
	at, err := time.ParseInLocation(TimeLayout, r.Timestamp, time.Local)
	if err != nil {
		at = missingTimestamp
	}
	*it = Item{
		Kind:        Kind(r.Type),
		Content:     r.Content,
		Fingerprint: r.Hash,
		CapturedAt:  at,
	}
	return nil
}

// IsImage reports whether the item references an image file.
func (it Item) IsImage() bool { return it.Kind == KindImage }

// Preview returns a single-line rendering of the item's content, at most n
// runes long plus an ellipsis.
func (it Item) Preview(n int) string {
	if it.IsImage() {
		return "[image]"
	}
	s := strings.Join(strings.Fields(it.Content), " ")
	r := []rune(s)
	if n > 0 && len(r) > n {
		return string(r[:n]) + "..."
	}
	return s
}
