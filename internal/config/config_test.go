package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	s := NewLoader(nil, "").Load()
	assert.Equal(t, Defaults(), s)
	assert.Equal(t, 25, s.MaxItems)
	assert.Equal(t, 7*24*time.Hour, s.Retention)
	assert.Equal(t, time.Second, s.Interval)
}

func TestLoadLegacyFile(t *testing.T) {
	path := writeFile(t, "config.json", `{"max_items": 40}`)
	s := NewLoader(nil, path).Load()
	assert.Equal(t, 40, s.MaxItems)
	assert.Equal(t, 7*24*time.Hour, s.Retention)
}

func TestLoadAllKeys(t *testing.T) {
	path := writeFile(t, "recall.toml", `
max_items = 10
retention = "36h"
interval = "500ms"
history_file = "/tmp/h.json"
image_dir = "/tmp/img"
`)
	s := NewLoader(nil, path).Load()
	assert.Equal(t, Settings{
		MaxItems:    10,
		Retention:   36 * time.Hour,
		Interval:    500 * time.Millisecond,
		HistoryFile: "/tmp/h.json",
		ImageDir:    "/tmp/img",
	}, s)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	path := writeFile(t, "recall.yaml", "max_items: -3\nretention: 0\ninterval: soon\n")
	assert.Equal(t, Defaults(), NewLoader(nil, path).Load())
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeFile(t, "config.json", `{"max_items": 40`)
	assert.Equal(t, Defaults(), NewLoader(nil, path).Load())
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.json")
	assert.Equal(t, Defaults(), NewLoader(nil, path).Load())
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "config.json", `{"max_items": 40}`)
	t.Setenv("RECALL_MAX_ITEMS", "12")
	t.Setenv("RECALL_RETENTION", "3")
	s := NewLoader(nil, path).Load()
	assert.Equal(t, 12, s.MaxItems)
	assert.Equal(t, 3*24*time.Hour, s.Retention)
}

func TestExplicitValueWins(t *testing.T) {
	path := writeFile(t, "config.json", `{"max_items": 40}`)
	v := viper.New()
	l := NewLoader(v, path)
	v.Set(KeyMaxItems, 5)
	assert.Equal(t, 5, l.Load().MaxItems)
	assert.Equal(t, 5, l.Current().MaxItems)
}

func TestParseRetention(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		err  bool
	}{
		{in: "7", want: 7 * 24 * time.Hour},
		{in: "2d", want: 48 * time.Hour},
		{in: "0.5", want: 12 * time.Hour},
		{in: "90m", want: 90 * time.Minute},
		{in: "0", err: true},
		{in: "-1d", err: true},
		{in: "-5h", err: true},
		{in: "", err: true},
		{in: "forever", err: true},
		{in: "nan", err: true},
		{in: "NaN", err: true},
		{in: "inf", err: true},
		{in: "+Inf", err: true},
		{in: "1e10", err: true},
		{in: "1e10d", err: true},
		{in: "106751", want: 106751 * 24 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRetention(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFind(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	assert.Equal(t, "/explicit.json", Find("/explicit.json"))
	assert.Empty(t, Find(""))

	legacy := filepath.Join(home, ".power_paste", "config.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(legacy), 0o700))
	require.NoError(t, os.WriteFile(legacy, []byte(`{}`), 0o600))
	assert.Equal(t, legacy, Find(""))

	preferred := filepath.Join(home, ".config", "recall", "recall.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(preferred), 0o700))
	require.NoError(t, os.WriteFile(preferred, []byte("max_items: 3\n"), 0o600))
	assert.Equal(t, preferred, Find(""))
}

func TestWatchReloads(t *testing.T) {
	path := writeFile(t, "config.json", `{"max_items": 40}`)
	l := NewLoader(nil, path)
	require.Equal(t, 40, l.Load().MaxItems)

	changed := make(chan Settings, 8)
	l.Watch(func(s Settings) { changed <- s })

	require.NoError(t, os.WriteFile(path, []byte(`{"max_items": 8, "retention": "1d"}`), 0o600))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case s := <-changed:
			if s.MaxItems != 8 {
				continue
			}
			assert.Equal(t, 24*time.Hour, s.Retention)
			assert.Equal(t, 8, l.Current().MaxItems)
			return
		case <-deadline:
			t.Fatal("settings change not observed")
		}
	}
}
