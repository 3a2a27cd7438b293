// Package config loads recall's settings file and keeps it current.
//
// Settings are read through viper from the first file found in:
//
//	the path given with --config
//	$HOME/.config/recall/recall.{json,toml,yaml}
//	$HOME/.power_paste/config.json
//
// A missing file means defaults. A malformed file is logged and ignored; on
// reload the previously read values stay in effect. Invalid values fall back
// to their defaults one by one.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"go.klb.dev/recall/internal/history"
	"go.klb.dev/recall/internal/watch"
)

// Keys understood in the settings file and as RECALL_* env vars.
const (
	KeyMaxItems    = "max_items"
	KeyRetention   = "retention"
	KeyInterval    = "interval"
	KeyHistoryFile = "history_file"
	KeyImageDir    = "image_dir"
)

// EnvPrefix is the prefix for environment overrides, e.g. RECALL_MAX_ITEMS.
const EnvPrefix = "RECALL"

// Settings are the tunables of the core.
type Settings struct {
	MaxItems    int
	Retention   time.Duration
	Interval    time.Duration
	HistoryFile string
	ImageDir    string
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Settings {
	return Settings{
		MaxItems:  history.DefaultMaxItems,
		Retention: history.DefaultRetention,
		Interval:  watch.DefaultInterval,
	}
}

// SearchPaths returns the candidate settings files in priority order.
func SearchPaths() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	dir := filepath.Join(home, ".config", "recall")
	return []string{
		filepath.Join(dir, "recall.json"),
		filepath.Join(dir, "recall.toml"),
		filepath.Join(dir, "recall.yaml"),
		filepath.Join(home, ".power_paste", "config.json"),
	}
}

// Find returns explicit when set, else the first existing file from
// SearchPaths, else "".
func Find(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, p := range SearchPaths() {
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p
		}
	}
	return ""
}

// Loader owns a viper instance over one settings file.
type Loader struct {
	v    *viper.Viper
	file string

	mu      sync.RWMutex
	current Settings
}

// NewLoader returns a loader for file, which may be empty. v carries any
// flag bindings the caller wants to take precedence; nil means a fresh
// instance.
func NewLoader(v *viper.Viper, file string) *Loader {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if file != "" {
		v.SetConfigFile(file)
	}
	return &Loader{v: v, file: file, current: Defaults()}
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault(KeyMaxItems, d.MaxItems)
	v.SetDefault(KeyRetention, d.Retention.String())
	v.SetDefault(KeyInterval, d.Interval.String())
	v.SetDefault(KeyHistoryFile, "")
	v.SetDefault(KeyImageDir, "")
}

// File returns the settings file in use, or "".
func (l *Loader) File() string { return l.file }

// Load reads the settings file and returns the resulting settings. It never
// fails: problems are logged and defaults used instead.
func (l *Loader) Load() Settings {
	if l.file != "" {
		if err := l.v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
				slog.Debug("no settings file", "path", l.file)
			} else {
				slog.Warn("settings file unreadable, using defaults", "path", l.file, "err", err)
			}
		}
	}
	s := Decode(l.v)

	l.mu.Lock()
	l.current = s
	l.mu.Unlock()
	return s
}

// Current returns the most recently loaded settings.
func (l *Loader) Current() Settings {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Watch reloads the settings whenever the file changes and passes the
// result to fn. It does nothing when no file is in use.
func (l *Loader) Watch(fn func(Settings)) {
	if l.file == "" {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		slog.Info("settings changed", "path", e.Name)
		fn(l.Load())
	})
	l.v.WatchConfig()
}

// Decode builds Settings from v, replacing invalid values with defaults.
func Decode(v *viper.Viper) Settings {
	d := Defaults()
	s := Settings{
		MaxItems:    d.MaxItems,
		Retention:   d.Retention,
		Interval:    d.Interval,
		HistoryFile: strings.TrimSpace(v.GetString(KeyHistoryFile)),
		ImageDir:    strings.TrimSpace(v.GetString(KeyImageDir)),
	}

	if n, err := strconv.Atoi(strings.TrimSpace(v.GetString(KeyMaxItems))); err == nil && n > 0 {
		s.MaxItems = n
	} else {
		slog.Warn("invalid setting, using default", "key", KeyMaxItems, "value", v.Get(KeyMaxItems), "default", d.MaxItems)
	}

	if r, err := ParseRetention(v.GetString(KeyRetention)); err == nil {
		s.Retention = r
	} else {
		slog.Warn("invalid setting, using default", "key", KeyRetention, "err", err, "default", d.Retention)
	}

	if i, err := time.ParseDuration(strings.TrimSpace(v.GetString(KeyInterval))); err == nil && i > 0 {
		s.Interval = i
	} else {
		slog.Warn("invalid setting, using default", "key", KeyInterval, "value", v.Get(KeyInterval), "default", d.Interval)
	}
	return s
}

// maxRetentionDays is the longest retention a time.Duration can hold.
const maxRetentionDays = float64(math.MaxInt64) / float64(24*time.Hour)

// ParseRetention accepts a Go duration ("72h") or a number of days ("7",
// "7d"). The result must be positive.
func ParseRetention(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty retention")
	}
	days := strings.TrimSuffix(s, "d")
	if n, err := strconv.ParseFloat(days, 64); err == nil {
		if math.IsNaN(n) || n <= 0 {
			return 0, fmt.Errorf("retention %q must be positive", s)
		}
		if n > maxRetentionDays {
			return 0, fmt.Errorf("retention %q is too long", s)
		}
		return time.Duration(n * float64(24*time.Hour)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("retention %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("retention %q must be positive", s)
	}
	return d, nil
}
