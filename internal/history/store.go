package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"go.klb.dev/recall/internal/fingerprint"
)

var (
	// ErrNotFound is returned by Lookup when no entry matches.
	ErrNotFound = errors.New("history entry not found")

	// ErrAmbiguous is returned by Lookup when a prefix matches several entries.
	ErrAmbiguous = errors.New("fingerprint prefix is ambiguous")
)

// minPrefix is the shortest fingerprint prefix Lookup accepts.
const minPrefix = 4

// Store holds the history in memory and persists it to a single JSON file.
//
// Only one goroutine may mutate a Store. Readers on other goroutines are
// safe: every accessor returns a copy.
type Store struct {
	fs       afero.Fs
	path     string
	imageDir string
	now      func() time.Time

	mu        sync.RWMutex
	items     []Item
	retention time.Duration

	saveMu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used for capture timestamps and aging.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRetention sets the retention window. Non-positive values are ignored.
func WithRetention(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.retention = d
		}
	}
}

// WithImageDir sets the directory image entries are written to. It defaults
// to an "images" directory next to the history file.
func WithImageDir(dir string) Option {
	return func(s *Store) {
		if dir != "" {
			s.imageDir = dir
		}
	}
}

// Open returns a Store backed by the history file at path and loads it.
// A missing or unreadable file yields an empty store.
func Open(fs afero.Fs, path string, opts ...Option) *Store {
	s := &Store{
		fs:        fs,
		path:      path,
		imageDir:  filepath.Join(filepath.Dir(path), "images"),
		now:       time.Now,
		retention: DefaultRetention,
	}
	for _, o := range opts {
		o(s)
	}
	s.Load()
	return s
}

// Path returns the history file path.
func (s *Store) Path() string { return s.path }

// ImageDir returns the directory holding image entries.
func (s *Store) ImageDir() string { return s.imageDir }

// Now returns the store's current time, truncated to the second.
func (s *Store) Now() time.Time { return s.now().Truncate(time.Second) }

// SetRetention changes the retention window. It takes effect on the next
// Insert or Cleanup. Non-positive values are ignored.
func (s *Store) SetRetention(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	s.retention = d
	s.mu.Unlock()
}

// Retention returns the current retention window.
func (s *Store) Retention() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.retention
}

// Load rereads the history file, replacing the in-memory history, and
// returns the entries newest first. Any read or decode failure leaves the
// store empty.
func (s *Store) Load() []Item {
	items := s.read()
	SortNewestFirst(items)

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	return slices.Clone(items)
}

func (s *Store) read() []Item {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("history unreadable, starting empty", "path", s.path, "err", err)
		}
		return nil
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		slog.Warn("history corrupt, starting empty", "path", s.path, "err", err)
		return nil
	}
	return items
}

// Save writes the in-memory history to disk, replacing the file atomically.
// A failure is logged and returned; the in-memory history is unaffected.
func (s *Store) Save() error {
	s.mu.RLock()
	items := slices.Clone(s.items)
	s.mu.RUnlock()
	if items == nil {
		items = []Item{}
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if err := s.write(items); err != nil {
		slog.Error("history save failed", "path", s.path, "err", err)
		return err
	}
	return nil
}

func (s *Store) write(items []Item) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}
	tmp, err := afero.TempFile(s.fs, dir, filepath.Base(s.path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("close history: %w", err)
	}
	if err := s.fs.Rename(tmpName, s.path); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("replace history: %w", err)
	}
	return nil
}

// Insert prepends it unless an entry with the same fingerprint already
// exists anywhere in the history, then drops expired entries and saves.
// It reports whether the item was added.
func (s *Store) Insert(it Item) bool {
	if it.Fingerprint == "" {
		slog.Warn("history insert without fingerprint ignored", "kind", it.Kind)
		return false
	}
	if it.CapturedAt.IsZero() {
		it.CapturedAt = s.Now()
	}

	s.mu.Lock()
	if slices.ContainsFunc(s.items, func(e Item) bool { return e.Fingerprint == it.Fingerprint }) {
		s.mu.Unlock()
		slog.Debug("duplicate entry ignored", "kind", it.Kind, "fingerprint", fingerprint.Short(it.Fingerprint))
		return false
	}
	s.items = slices.Insert(s.items, 0, it)

	now := s.now()
	var expired []Item
	s.items = slices.DeleteFunc(s.items, func(e Item) bool {
		if Expired(e, now, s.retention) {
			expired = append(expired, e)
			return true
		}
		return false
	})
	kept := slices.Clone(s.items)
	s.mu.Unlock()

	s.removeImages(expired, kept)
	if len(expired) > 0 {
		slog.Info("expired entries removed", "count", len(expired))
	}
	_ = s.Save()
	return true
}

// Clear empties the history, deletes every image file it owns and saves.
func (s *Store) Clear() {
	s.mu.Lock()
	removed := s.items
	s.items = nil
	s.mu.Unlock()

	s.removeImages(removed, nil)
	s.sweepOrphans(nil)
	_ = s.Save()
	slog.Info("history cleared", "removed", len(removed))
}

// Cleanup drops entries without a fingerprint, duplicate fingerprints
// (keeping the first), image entries whose file is missing, and expired
// entries. It also removes image files no entry references. Running it twice
// has the same effect as running it once. It returns the number of entries
// removed.
func (s *Store) Cleanup() int {
	s.mu.Lock()
	before := slices.Clone(s.items)
	kept, dropped := Dedupe(s.items)

	now := s.now()
	kept = slices.DeleteFunc(kept, func(e Item) bool {
		switch {
		case Expired(e, now, s.retention):
		case e.IsImage() && !s.exists(e.Content):
		default:
			return false
		}
		dropped = append(dropped, e)
		return true
	})
	SortNewestFirst(kept)
	s.items = kept
	changed := !slices.Equal(before, kept)
	after := slices.Clone(kept)
	s.mu.Unlock()

	s.removeImages(dropped, after)
	s.sweepOrphans(after)
	if changed {
		_ = s.Save()
	}
	if len(dropped) > 0 {
		slog.Info("history cleaned", "removed", len(dropped), "remaining", len(after))
	}
	return len(dropped)
}

// Items returns the history in its current order.
func (s *Store) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Recent returns up to n entries, newest first. It is a view limit only.
func (s *Store) Recent(n int) []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Recent(s.items, n)
}

// Newest returns the most recently captured entry.
func (s *Store) Newest() (Item, bool) {
	r := s.Recent(1)
	if len(r) == 0 {
		return Item{}, false
	}
	return r[0], true
}

// Contains reports whether an entry with fingerprint fp exists.
func (s *Store) Contains(fp string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.ContainsFunc(s.items, func(e Item) bool { return e.Fingerprint == fp })
}

// Lookup finds the entry whose fingerprint equals ref or starts with it.
// Prefixes shorter than four characters are rejected.
func (s *Store) Lookup(ref string) (Item, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if len(ref) < minPrefix {
		return Item{}, fmt.Errorf("%w: %q is too short", ErrNotFound, ref)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var found []Item
	for _, it := range s.items {
		if it.Fingerprint == ref {
			return it, nil
		}
		if strings.HasPrefix(it.Fingerprint, ref) {
			found = append(found, it)
		}
	}
	switch len(found) {
	case 0:
		return Item{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
	case 1:
		return found[0], nil
	default:
		return Item{}, fmt.Errorf("%w: %s matches %d entries", ErrAmbiguous, ref, len(found))
	}
}

func (s *Store) exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := s.fs.Stat(path)
	return err == nil
}
