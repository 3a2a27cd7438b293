// Package paths resolves where recall keeps its files and guards the history
// file against concurrent writers.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// EnvHome overrides the data directory.
const EnvHome = "RECALL_HOME"

const appName = "recall"

// DataDir returns the directory holding the history file and images.
//
//   - $RECALL_HOME when set
//   - $XDG_DATA_HOME/recall when set
//   - macOS:   ~/Library/Application Support/recall
//   - Windows: %AppData%\recall
//   - others:  ~/.local/share/recall
func DataDir() (string, error) {
	if dir := os.Getenv(EnvHome); dir != "" {
		return filepath.Abs(dir)
	}
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	switch runtime.GOOS {
	case "darwin", "windows":
		dir, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("data dir: %w", err)
		}
		return filepath.Join(dir, appName), nil
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("data dir: %w", err)
		}
		return filepath.Join(home, ".local", "share", appName), nil
	}
}

// HistoryFile returns the default history file path.
func HistoryFile() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.json"), nil
}

// ImageDir returns the default image directory for a history file.
func ImageDir(historyFile string) string {
	return filepath.Join(filepath.Dir(historyFile), "images")
}

// Expand replaces a leading ~ with the user's home directory and makes path
// absolute.
func Expand(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" || len(path) > 1 && path[0] == '~' && os.IsPathSeparator(path[1]) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand %s: %w", path, err)
		}
		path = filepath.Join(home, path[1:])
	}
	return filepath.Abs(path)
}
