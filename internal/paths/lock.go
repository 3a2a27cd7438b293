package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned by Acquire when another process holds the lock.
var ErrLocked = errors.New("history is in use by another recall process")

// Lock is an exclusive OS file lock on a sibling "<history>.lock" file.
// The OS drops it when the holding process exits, so a crashed watcher
// never leaves a stale lock behind. The file itself is left in place.
type Lock struct {
	fl *flock.Flock
}

// LockPath returns the lock file path for a history file.
func LockPath(historyFile string) string { return historyFile + ".lock" }

// Acquire takes the writer lock for historyFile without blocking.
func Acquire(historyFile string) (*Lock, error) {
	path := LockPath(historyFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}

	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrLocked, path)
	}
	return &Lock{fl: fl}, nil
}

// Held reports whether some process currently holds the lock for
// historyFile.
func Held(historyFile string) bool {
	l, err := Acquire(historyFile)
	if err != nil {
		return errors.Is(err, ErrLocked)
	}
	_ = l.Release()
	return false
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.fl.Path() }

// Release drops the lock. Releasing twice is a no-op.
func (l *Lock) Release() error {
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
