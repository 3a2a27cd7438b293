package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/recall/internal/config"
	"go.klb.dev/recall/internal/fingerprint"
	"go.klb.dev/recall/internal/history"
	"go.klb.dev/recall/internal/paths"
)

// sandbox points HOME and RECALL_HOME at fresh directories and seeds a
// history with the given text entries, newest first.
func sandbox(t *testing.T, texts ...string) string {
	t.Helper()
	home := t.TempDir()
	data := filepath.Join(home, "data")
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv(paths.EnvHome, data)
	t.Setenv("XDG_DATA_HOME", "")

	now := time.Now().Truncate(time.Second)
	store := history.Open(afero.NewOsFs(), filepath.Join(data, "history.json"),
		history.WithClock(func() time.Time { return now }))
	for i := len(texts) - 1; i >= 0; i-- {
		at := now.Add(-time.Duration(i) * time.Minute)
		require.True(t, store.Insert(history.Item{
			Kind:        history.KindText,
			Content:     texts[i],
			Fingerprint: fingerprint.Text(texts[i]),
			CapturedAt:  at,
		}))
	}
	return filepath.Join(data, "history.json")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--log-level", "error", "--log-format", "json"))
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.Equal(t, "recall dev\n", out.String())
}

func TestListJSON(t *testing.T) {
	sandbox(t, "newest", "middle", "oldest")

	out, err := execute(t, "list", "--json", "-n", "2")
	require.NoError(t, err)

	var raw []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &raw))
	require.Len(t, raw, 2)
	assert.Equal(t, "newest", raw[0]["content"])
	assert.Equal(t, "middle", raw[1]["content"])
}

func TestListTable(t *testing.T) {
	sandbox(t, "line one\nline two")

	out, err := execute(t, "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "REF"))
	assert.Contains(t, lines[1], fingerprint.Short(fingerprint.Text("line one\nline two")))
	assert.Contains(t, lines[1], "line one line two")
}

func TestListMaxItemsFromSettings(t *testing.T) {
	home := filepath.Dir(filepath.Dir(sandbox(t, "a1", "b2", "c3")))
	legacy := filepath.Join(home, ".power_paste", "config.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(legacy), 0o700))
	require.NoError(t, os.WriteFile(legacy, []byte(`{"max_items": 1}`), 0o600))

	out, err := execute(t, "list", "--json")
	require.NoError(t, err)
	var raw []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &raw))
	assert.Len(t, raw, 1)
}

func TestShow(t *testing.T) {
	sandbox(t, "show me\nall of me")

	ref := fingerprint.Text("show me\nall of me")[:6]
	out, err := execute(t, "show", ref)
	require.NoError(t, err)
	assert.Equal(t, "show me\nall of me", out)

	_, err = execute(t, "show", "ffffffff")
	assert.ErrorIs(t, err, history.ErrNotFound)
}

func TestSearch(t *testing.T) {
	sandbox(t, "git commit --amend", "grocery list", "kubectl get pods")

	out, err := execute(t, "search", "--json", "kgp")
	require.NoError(t, err)
	var raw []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, "kubectl get pods", raw[0]["content"])
}

func TestOpenRejectsText(t *testing.T) {
	sandbox(t, "just text")
	_, err := execute(t, "open", fingerprint.Text("just text"))
	assert.Error(t, err)
}

func TestClearAndCleanup(t *testing.T) {
	file := sandbox(t, "one", "two")

	out, err := execute(t, "cleanup")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 0 entries, 2 remain.")

	out, err = execute(t, "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 2 entries.")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
	assert.False(t, paths.Held(file), "lock released")
}

func TestClearRefusedWhileLocked(t *testing.T) {
	file := sandbox(t, "keep")
	l, err := paths.Acquire(file)
	require.NoError(t, err)
	defer l.Release()

	_, err = execute(t, "clear")
	assert.ErrorIs(t, err, paths.ErrLocked)
}

func TestResolveStore(t *testing.T) {
	t.Setenv(paths.EnvHome, "/srv/recall")

	h, img, err := resolveStore(config.Defaults())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/srv/recall", "history.json"), h)
	assert.Equal(t, filepath.Join("/srv/recall", "images"), img)

	h, img, err = resolveStore(config.Settings{HistoryFile: "/a/h.json", ImageDir: "/b/img"})
	require.NoError(t, err)
	assert.Equal(t, "/a/h.json", h)
	assert.Equal(t, "/b/img", img)
}
