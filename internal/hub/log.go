package hub

import (
	"context"
	"log/slog"

	"go.klb.dev/recall/internal/fingerprint"
)

// previewLen is the number of runes of text shown in debug logs.
const previewLen = 120

// LogEvent logs a history event at INFO (kind, entry kind, fingerprint) and
// DEBUG (text preview up to 120 runes).
func LogEvent(ev Event) {
	switch ev.Kind {
	case Cleared, Cleaned:
		slog.Info("history "+string(ev.Kind), "removed", ev.Removed)
		return
	}
	slog.Info("history "+string(ev.Kind),
		"kind", ev.Item.Kind,
		"fingerprint", fingerprint.Short(ev.Item.Fingerprint),
	)

	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	if ev.Item.IsImage() {
		slog.Debug("history entry", "path", ev.Item.Content)
		return
	}
	slog.Debug("history entry", "preview", ev.Item.Preview(previewLen))
}

// Logger is a Subscriber that logs every event it receives.
type Logger struct{}

func (Logger) ID() string { return "log" }

// Send implements Subscriber.
func (Logger) Send(ev Event) { LogEvent(ev) }
