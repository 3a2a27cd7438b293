package history

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

const (
	imagePrefix = "img_"
	imageSuffix = ".png"
	imageLayout = "20060102_150405"
)

// SaveImage writes PNG data to a new file in the image directory named after
// at, e.g. img_20240102_150405.png. A numeric suffix is added when a file for
// the same second already exists. It returns the file's path.
func (s *Store) SaveImage(data []byte, at time.Time) (string, error) {
	if err := s.fs.MkdirAll(s.imageDir, 0o700); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}
	base := imagePrefix + at.Format(imageLayout)
	for n := 0; n < 100; n++ {
		name := base + imageSuffix
		if n > 0 {
			name = fmt.Sprintf("%s_%d%s", base, n, imageSuffix)
		}
		path := filepath.Join(s.imageDir, name)
		f, err := s.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create image: %w", err)
		}
		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			_ = s.fs.Remove(path)
			return "", fmt.Errorf("write image: %w", err)
		}
		if err := f.Close(); err != nil {
			_ = s.fs.Remove(path)
			return "", fmt.Errorf("close image: %w", err)
		}
		return path, nil
	}
	return "", fmt.Errorf("no free image name for %s", base)
}

// ReadImage returns the bytes of an image entry's file.
func (s *Store) ReadImage(it Item) ([]byte, error) {
	if !it.IsImage() {
		return nil, fmt.Errorf("entry %s is not an image", it.Fingerprint)
	}
	return afero.ReadFile(s.fs, it.Content)
}

// DiscardImage removes an image file that never made it into the history.
func (s *Store) DiscardImage(path string) {
	if err := s.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("image remove failed", "path", path, "err", err)
	}
}

// removeImages deletes the files of removed image entries unless a kept
// entry still references the same path.
func (s *Store) removeImages(removed, kept []Item) {
	referenced := make(map[string]struct{}, len(kept))
	for _, it := range kept {
		if it.IsImage() {
			referenced[it.Content] = struct{}{}
		}
	}
	for _, it := range removed {
		if !it.IsImage() || it.Content == "" {
			continue
		}
		if _, ok := referenced[it.Content]; ok {
			continue
		}
		s.DiscardImage(it.Content)
	}
}

// sweepOrphans removes image files in the image directory that no kept
// entry references. Only files following recall's naming are touched.
func (s *Store) sweepOrphans(kept []Item) {
	entries, err := afero.ReadDir(s.fs, s.imageDir)
	if err != nil {
		return
	}
	referenced := make(map[string]struct{}, len(kept))
	for _, it := range kept {
		if it.IsImage() {
			referenced[filepath.Clean(it.Content)] = struct{}{}
		}
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, imagePrefix) || !strings.HasSuffix(name, imageSuffix) {
			continue
		}
		path := filepath.Join(s.imageDir, name)
		if _, ok := referenced[path]; ok {
			continue
		}
		slog.Debug("orphaned image removed", "path", path)
		s.DiscardImage(path)
	}
}
